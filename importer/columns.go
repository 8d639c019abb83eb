package importer

import (
	"sort"
	"strings"
)

// Canonical fields a header cell can map to.
const (
	fieldDeveloper = "developer"
	fieldProject   = "project"
	fieldTask      = "task"
	fieldDate      = "date"
	fieldStart     = "start"
	fieldEnd       = "end"
	fieldDuration  = "duration"
	fieldNotes     = "notes"
)

func normalizeHeader(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	return trimmed
}

// classifyHeader maps a normalized header to a canonical field. Checks run in
// a fixed order; the first match wins and unmatched headers report false.
func classifyHeader(key string) (string, bool) {
	switch key {
	case "developer", "developername", "dev", "resource", "employee":
		return fieldDeveloper, true
	case "project", "projectname", "proj", "projectcode":
		return fieldProject, true
	case "task", "taskname":
		return fieldTask, true
	case "date":
		return fieldDate, true
	case "start", "starttime", "begin":
		return fieldStart, true
	case "end", "endtime", "finish":
		return fieldEnd, true
	}

	switch {
	case strings.Contains(key, "activity"):
		return fieldTask, true
	case strings.Contains(key, "workdate"):
		return fieldDate, true
	case strings.Contains(key, "duration"),
		strings.Contains(key, "minutes"),
		strings.Contains(key, "mins"),
		strings.Contains(key, "min"):
		return fieldDuration, true
	case strings.Contains(key, "note"),
		strings.Contains(key, "desc"),
		strings.Contains(key, "comment"):
		return fieldNotes, true
	}
	return "", false
}

// NormalizedRow holds the canonical optional fields recovered from one input
// row or one synthesized grid cell.
type NormalizedRow struct {
	RowNumber int
	Developer string
	Project   string
	Task      string
	Notes     string
	Date      Value
	Start     Value
	End       Value
	Duration  Value
}

func (r NormalizedRow) isBlank() bool {
	return r.Developer == "" && r.Project == "" && r.Task == "" && r.Notes == "" &&
		r.Date.IsEmpty() && r.Start.IsEmpty() && r.End.IsEmpty() && r.Duration.IsEmpty()
}

// NormalizeRow maps a header-keyed row onto the canonical field set. Pure;
// unmatched keys are ignored and absent fields stay zero. Keys are visited in
// sorted order so competing synonym headers resolve deterministically.
func NormalizeRow(row Row) NormalizedRow {
	out := NormalizedRow{RowNumber: row.RowNumber}
	keys := make([]string, 0, len(row.Values))
	for key := range row.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := row.Values[key]
		field, ok := classifyHeader(key)
		if !ok {
			continue
		}
		switch field {
		case fieldDeveloper:
			if out.Developer == "" {
				out.Developer = strings.TrimSpace(value.Text)
			}
		case fieldProject:
			if out.Project == "" {
				out.Project = strings.TrimSpace(value.Text)
			}
		case fieldTask:
			if out.Task == "" {
				out.Task = strings.TrimSpace(value.Text)
			}
		case fieldDate:
			if out.Date.IsEmpty() {
				out.Date = value
			}
		case fieldStart:
			if out.Start.IsEmpty() {
				out.Start = value
			}
		case fieldEnd:
			if out.End.IsEmpty() {
				out.End = value
			}
		case fieldDuration:
			if out.Duration.IsEmpty() {
				out.Duration = value
			}
		case fieldNotes:
			if out.Notes == "" {
				out.Notes = strings.TrimSpace(value.Text)
			}
		}
	}
	return out
}
