package importer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// Hours in one cell above this are assumed not to be hours at all.
	maxPlausibleHours = 24.0

	weekdayScanRows  = 20
	minWeekdayTokens = 5
)

// Weekday tokens mapped to a Monday-based index (0=Mon .. 6=Sun).
var weekdayTokens = map[string]int{
	"mon": 0, "monday": 0,
	"tue": 1, "tues": 1, "tuesday": 1,
	"wed": 2, "weds": 2, "wednesday": 2,
	"thu": 3, "thur": 3, "thurs": 3, "thursday": 3,
	"fri": 4, "friday": 4,
	"sat": 5, "saturday": 5,
	"sun": 6, "sunday": 6,
}

var gridProjectTokens = []string{"project", "client", "job"}
var gridTaskTokens = []string{"task", "activity", "workitem", "description", "role", "story", "card"}

type dayColumn struct {
	day  int // Monday-based weekday index; -1 when the label is unknown
	col  int
	date time.Time
	ok   bool // date resolved
}

type gridLayout struct {
	headerRow  int
	dayCols    []dayColumn
	projectCol int
	taskCol    int
}

// weekdayIndexFor matches a cell whose text begins with a weekday name, so
// headers like "Mon" and "Mon 2/3/2026" both count.
func weekdayIndexFor(text string) (int, bool) {
	letters := strings.Builder{}
	for _, r := range strings.TrimSpace(strings.ToLower(text)) {
		if r < 'a' || r > 'z' {
			break
		}
		letters.WriteRune(r)
	}
	word := letters.String()
	if word == "" {
		return 0, false
	}
	if day, ok := weekdayTokens[word]; ok {
		return day, true
	}
	// Accept truncations of the full names ("thurs", "wednes") but not
	// arbitrary words sharing a three-letter prefix ("month").
	if len(word) > 3 {
		for full, day := range weekdayTokens {
			if len(full) > 3 && strings.HasPrefix(full, word) {
				return day, true
			}
		}
	}
	return 0, false
}

// findWeekdayRow returns the first row in the top of the sheet containing at
// least five distinct weekday tokens, or -1.
func findWeekdayRow(m Matrix) int {
	limit := len(m)
	if limit > weekdayScanRows {
		limit = weekdayScanRows
	}
	for i := 0; i < limit; i++ {
		seen := map[int]bool{}
		for _, cell := range m[i] {
			if day, ok := weekdayIndexFor(cell.Text); ok {
				seen[day] = true
			}
		}
		if len(seen) >= minWeekdayTokens {
			return i
		}
	}
	return -1
}

// headerTimeFields reports which row-based time columns the header keys
// carry: a date, a duration, and a start/end pair.
func headerTimeFields(keys []string) (hasDate, hasDuration, hasStart, hasEnd bool) {
	for _, key := range keys {
		field, ok := classifyHeader(key)
		if !ok {
			continue
		}
		switch field {
		case fieldDate:
			hasDate = true
		case fieldDuration:
			hasDuration = true
		case fieldStart:
			hasStart = true
		case fieldEnd:
			hasEnd = true
		}
	}
	return hasDate, hasDuration, hasStart, hasEnd
}

// headersCanTimeRows reports whether header keys give rows any source of
// time: an explicit date plus either a duration or a start/end pair makes a
// tabular reading viable.
func headersCanTimeRows(keys []string) bool {
	hasDate, hasDuration, hasStart, hasEnd := headerTimeFields(keys)
	return hasDate || hasDuration || (hasStart && hasEnd)
}

// looksLikeGridHeaders reports whether normalized header keys describe a
// weekly grid: five or more distinct weekday columns and none of the
// row-based alternatives (a date column, a duration column, or a start/end
// pair).
func looksLikeGridHeaders(keys []string) bool {
	days := map[int]bool{}
	for _, key := range keys {
		if day, ok := weekdayIndexFor(key); ok {
			days[day] = true
		}
	}
	if len(days) < minWeekdayTokens {
		return false
	}
	return !headersCanTimeRows(keys)
}

// detectGridLayout locates the weekly-grid header geometry on the positional
// matrix. The primary anchor is a weekday-name row; the fallback is a literal
// "Project Code" header with five day columns assumed immediately right of
// the task column, which mirrors a known Sat..Fri timesheet layout.
func detectGridLayout(m Matrix) (gridLayout, bool) {
	if row := findWeekdayRow(m); row >= 0 {
		layout := gridLayout{headerRow: row, projectCol: -1, taskCol: -1}
		seen := map[int]bool{}
		for j, cell := range m[row] {
			day, ok := weekdayIndexFor(cell.Text)
			if !ok || seen[day] {
				continue
			}
			seen[day] = true
			layout.dayCols = append(layout.dayCols, dayColumn{day: day, col: j})
		}
		layout.projectCol, layout.taskCol = findGridLabelColumns(m[row], layout.dayCols)
		return layout, true
	}

	ref := findProjectCodeCell(m)
	if ref == nil {
		return gridLayout{}, false
	}
	layout := gridLayout{headerRow: ref.row, projectCol: ref.col, taskCol: ref.col + 1}
	for offset := 0; offset < 5; offset++ {
		layout.dayCols = append(layout.dayCols, dayColumn{day: -1, col: ref.col + 2 + offset})
	}
	return layout, true
}

func findGridLabelColumns(header []Value, dayCols []dayColumn) (int, int) {
	isDay := map[int]bool{}
	for _, dc := range dayCols {
		isDay[dc.col] = true
	}

	projectCol, taskCol := -1, -1
	for j, cell := range header {
		if isDay[j] {
			continue
		}
		key := normalizeHeader(cell.Text)
		if key == "" {
			continue
		}
		if projectCol < 0 && containsAny(key, gridProjectTokens) {
			projectCol = j
			continue
		}
		if taskCol < 0 && containsAny(key, gridTaskTokens) {
			taskCol = j
		}
	}
	if projectCol >= 0 && taskCol < 0 {
		taskCol = projectCol + 1
	}
	return projectCol, taskCol
}

func containsAny(key string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

// resolveDayDates fills a concrete calendar date for every day column.
// Explicit dates in the header cells or the row beneath win; otherwise every
// remaining column derives from a week-ending anchor by its column-position
// delta from the rightmost day column, which works for both Mon-Fri and
// Sat-Fri grids.
func resolveDayDates(m Matrix, layout *gridLayout, loc *time.Location) error {
	for i := range layout.dayCols {
		dc := &layout.dayCols[i]
		if date, ok := explicitColumnDate(m, layout.headerRow, dc.col, loc); ok {
			dc.date, dc.ok = date, true
		}
	}

	allResolved := true
	for _, dc := range layout.dayCols {
		if !dc.ok {
			allResolved = false
			break
		}
	}
	if allResolved {
		return nil
	}

	anchor, ok := findWeekEndingDate(m, loc)
	if !ok {
		return fmt.Errorf("weekly grid detected but no dates could be resolved for its day columns (no explicit dates and no week-ending anchor)")
	}

	rightmost := 0
	for _, dc := range layout.dayCols {
		if dc.col > rightmost {
			rightmost = dc.col
		}
	}
	for i := range layout.dayCols {
		dc := &layout.dayCols[i]
		if dc.ok {
			continue
		}
		dc.date = anchor.AddDate(0, 0, dc.col-rightmost)
		dc.ok = true
	}
	return nil
}

func explicitColumnDate(m Matrix, headerRow, col int, loc *time.Location) (time.Time, bool) {
	header := m.at(headerRow, col).Text
	if _, ok := weekdayIndexFor(header); ok {
		rest := strings.TrimSpace(trimLeadingLetters(header))
		if rest != "" {
			if date, err := ParseDate(cellValue(rest), loc); err == nil {
				return date, true
			}
		}
	}

	beneath := m.at(headerRow+1, col)
	if date, err := ParseDate(beneath, loc); err == nil && plausibleYear(date) {
		return date, true
	}
	return time.Time{}, false
}

func trimLeadingLetters(s string) string {
	trimmed := strings.TrimSpace(s)
	for i, r := range trimmed {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter {
			return trimmed[i:]
		}
	}
	return ""
}

func plausibleYear(t time.Time) bool {
	return t.Year() >= 2000 && t.Year() <= 2100
}

// findWeekEndingDate scans the top of the sheet for a "Week Ending" / "Week
// of" label, accepting a date in the adjacent cell or embedded in the label
// cell itself.
func findWeekEndingDate(m Matrix, loc *time.Location) (time.Time, bool) {
	limit := len(m)
	if limit > anchorScanRows {
		limit = anchorScanRows
	}
	for i := 0; i < limit; i++ {
		for j, cell := range m[i] {
			key := normalizeHeader(cell.Text)
			if !strings.Contains(key, "weekending") && !strings.Contains(key, "weekof") {
				continue
			}

			if date, err := ParseDate(m.at(i, j+1), loc); err == nil && plausibleYear(date) {
				return date, true
			}

			embedded := strings.TrimSpace(trimLeadingLetters(strings.TrimSuffix(strings.TrimSpace(cell.Text), ":")))
			embedded = strings.TrimLeft(embedded, ": ")
			if embedded != "" {
				if date, err := ParseDate(cellValue(embedded), loc); err == nil && plausibleYear(date) {
					return date, true
				}
			}
		}
	}
	return time.Time{}, false
}

// convertGrid rewrites a weekly-grid sheet into row-based normalized rows:
// one synthesized row per (task row, day column) pair holding positive hours.
func convertGrid(m Matrix, layout gridLayout, ctx Context) ([]NormalizedRow, []string, error) {
	warnings := make([]string, 0, 2)

	if err := resolveDayDates(m, &layout, ctx.Location); err != nil {
		return nil, nil, err
	}
	if layout.projectCol < 0 {
		return nil, nil, fmt.Errorf("weekly grid detected but no project column could be identified")
	}

	developer := ctx.SheetDeveloper
	if developer == "" {
		developer = findDeveloperOnSheet(m)
	}
	if developer == "" {
		warnings = append(warnings, "Developer name not found on sheet")
	}

	firstDataRow := layout.headerRow + 1
	if isExplicitDatesRow(m, firstDataRow, layout, ctx.Location) {
		firstDataRow++
	}

	rows := make([]NormalizedRow, 0, 16)
	for i := firstDataRow; i < len(m); i++ {
		project := strings.TrimSpace(m.at(i, layout.projectCol).Text)
		task := ""
		if layout.taskCol >= 0 {
			task = strings.TrimSpace(m.at(i, layout.taskCol).Text)
		}

		labels := strings.ToLower(project + " " + task)
		if strings.Contains(labels, "total") || strings.Contains(labels, "subtotal") {
			continue
		}

		hasHours := false
		for _, dc := range layout.dayCols {
			cell := m.at(i, dc.col)
			if cell.HasNum && cell.Number > 0 {
				hasHours = true
				break
			}
		}
		if project == "" && task == "" && !hasHours {
			continue
		}

		for _, dc := range layout.dayCols {
			cell := m.at(i, dc.col)
			if !cell.HasNum || cell.Number <= 0 || math.IsInf(cell.Number, 0) || cell.Number > maxPlausibleHours {
				continue
			}
			minutes := math.Round(cell.Number * 60)
			rows = append(rows, NormalizedRow{
				RowNumber: i - layout.headerRow + 1,
				Developer: developer,
				Project:   project,
				Task:      task,
				Date:      timeValue(dc.date),
				Duration:  Value{Number: minutes, HasNum: true, Text: fmt.Sprintf("%d", int(minutes))},
			})
		}
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("weekly grid detected but no positive hour values were found")
	}
	return rows, warnings, nil
}

// isExplicitDatesRow guards against consuming a dates row beneath the header
// as hour data: the row counts as dates when its day-column cells parse to
// plausible calendar years and none of them look like small hour values.
func isExplicitDatesRow(m Matrix, row int, layout gridLayout, loc *time.Location) bool {
	if row >= len(m) {
		return false
	}
	dateCells, hourCells := 0, 0
	for _, dc := range layout.dayCols {
		cell := m.at(row, dc.col)
		if cell.IsEmpty() && !cell.HasNum {
			continue
		}
		if cell.HasNum && cell.Number > 0 && cell.Number <= maxPlausibleHours {
			hourCells++
			continue
		}
		if date, err := ParseDate(cell, loc); err == nil && plausibleYear(date) {
			dateCells++
		}
	}
	return dateCells > 0 && hourCells == 0
}
