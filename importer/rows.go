package importer

import (
	"fmt"
	"strings"
	"time"

	"gridhour/internal/timeutil"
	"gridhour/timesheet"
)

// Context carries the immutable per-parse defaults every stage receives:
// the sheet-level developer name (may be empty) and the location used for
// all date/time construction.
type Context struct {
	SheetDeveloper string
	Location       *time.Location
}

func NewContext(developer string, loc *time.Location) Context {
	if loc == nil {
		loc = time.Local
	}
	return Context{SheetDeveloper: developer, Location: loc}
}

// PreviewRow is the display projection of one valid row.
type PreviewRow struct {
	Developer       string
	Project         string
	Task            string
	Start           time.Time
	DurationMinutes int
	Notes           string
}

// BuildCandidate validates one normalized row and builds a time-entry
// candidate. The returned error message is the bare reason; callers prefix it
// with the row number. Blank separator rows are the caller's concern.
func BuildCandidate(row NormalizedRow, ctx Context) (timesheet.Candidate, PreviewRow, error) {
	developer := row.Developer
	if developer == "" {
		developer = ctx.SheetDeveloper
	}
	if developer == "" {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Missing developer name")
	}

	if row.Project == "" {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Missing project name")
	}

	if row.Date.IsEmpty() {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Missing date")
	}
	date, err := ParseDate(row.Date, ctx.Location)
	if err != nil {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Invalid date: %s", rawValueText(row.Date))
	}

	minutes, err := resolveDuration(row, date)
	if err != nil {
		return timesheet.Candidate{}, PreviewRow{}, err
	}
	if minutes <= 0 {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Duration must be greater than 0")
	}
	if minutes%15 != 0 {
		return timesheet.Candidate{}, PreviewRow{}, fmt.Errorf("Duration must be a multiple of 15 minutes")
	}

	start := timeutil.StartOfDay(date)
	if !row.Start.IsEmpty() {
		if explicit, err := ParseTimeOfDay(date, row.Start); err == nil {
			start = explicit
		}
	}

	candidate := timesheet.Candidate{
		DeveloperName:   developer,
		ProjectName:     row.Project,
		TaskName:        row.Task,
		Start:           start,
		DurationMinutes: minutes,
		Description:     row.Notes,
	}
	preview := PreviewRow{
		Developer:       developer,
		Project:         row.Project,
		Task:            row.Task,
		Start:           start,
		DurationMinutes: minutes,
		Notes:           row.Notes,
	}
	return candidate, preview, nil
}

// resolveDuration prefers an explicit duration value and otherwise derives
// whole minutes from a parseable start/end time pair.
func resolveDuration(row NormalizedRow, date time.Time) (int, error) {
	if minutes, ok := row.Duration.Int(); ok {
		return minutes, nil
	}

	if !row.Start.IsEmpty() && !row.End.IsEmpty() {
		start, startErr := ParseTimeOfDay(date, row.Start)
		end, endErr := ParseTimeOfDay(date, row.End)
		if startErr == nil && endErr == nil {
			return DurationMinutes(start, end), nil
		}
	}
	return 0, fmt.Errorf("Must provide either duration or start/end times")
}

func rawValueText(v Value) string {
	if text := strings.TrimSpace(v.Text); text != "" {
		return text
	}
	if v.HasNum {
		return fmt.Sprintf("%v", v.Number)
	}
	return v.Text
}
