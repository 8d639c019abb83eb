package importer

import (
	"fmt"
	"sort"
	"strings"

	"gridhour/timesheet"
)

const previewLimit = 10

// ProjectReport lists every project name the sheet referenced and, in
// preview mode, the subset not present in the entity store.
type ProjectReport struct {
	All     []string
	Invalid []string
}

// Result is the engine's sole output.
type Result struct {
	Entries           []timesheet.Candidate
	SheetName         string
	DetectedDeveloper string
	Developers        []string
	Projects          ProjectReport
	Preview           []PreviewRow
	Errors            []string
	Warnings          []string
}

// resultBuilder accumulates per-row outcomes during a scan and assembles the
// final Result.
type resultBuilder struct {
	sheetName      string
	sheetDeveloper string

	entries    []timesheet.Candidate
	preview    []PreviewRow
	developers map[string]bool
	projects   map[string]bool
	rowErrors  []string
	warnings   []string
}

func newResultBuilder(sheetName, sheetDeveloper string) *resultBuilder {
	return &resultBuilder{
		sheetName:      sheetName,
		sheetDeveloper: sheetDeveloper,
		developers:     make(map[string]bool),
		projects:       make(map[string]bool),
	}
}

func (b *resultBuilder) addEntry(candidate timesheet.Candidate, preview PreviewRow) {
	b.entries = append(b.entries, candidate)
	if len(b.preview) < previewLimit {
		b.preview = append(b.preview, preview)
	}
	b.developers[candidate.DeveloperName] = true
	b.projects[candidate.ProjectName] = true
}

func (b *resultBuilder) addRowError(rowNumber int, reason string) {
	b.rowErrors = append(b.rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, reason))
}

func (b *resultBuilder) addWarning(warning string) {
	b.warnings = append(b.warnings, warning)
}

func (b *resultBuilder) addProjectName(name string) {
	if strings.TrimSpace(name) != "" {
		b.projects[name] = true
	}
}

func (b *resultBuilder) projectNames() []string {
	names := make([]string, 0, len(b.projects))
	for name := range b.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// assemble produces the final Result. A workbook-level error (the invalid
// projects summary) is prepended to the collected row errors.
func (b *resultBuilder) assemble(invalidProjects []string) *Result {
	result := &Result{
		Entries:   b.entries,
		SheetName: b.sheetName,
		Preview:   b.preview,
		Warnings:  b.warnings,
		Projects: ProjectReport{
			All:     b.projectNames(),
			Invalid: invalidProjects,
		},
	}

	result.Developers = make([]string, 0, len(b.developers))
	for name := range b.developers {
		result.Developers = append(result.Developers, name)
	}
	sort.Strings(result.Developers)

	result.DetectedDeveloper = b.sheetDeveloper
	if result.DetectedDeveloper == "" && len(result.Developers) == 1 {
		result.DetectedDeveloper = result.Developers[0]
	}

	if len(invalidProjects) > 0 {
		summary := fmt.Sprintf("Invalid projects (%d/%d): %s",
			len(invalidProjects), len(result.Projects.All), strings.Join(invalidProjects, ", "))
		result.Errors = append(result.Errors, summary)
	}
	result.Errors = append(result.Errors, b.rowErrors...)
	return result
}

// structuralFailure is the short-circuit Result for workbook-structure
// errors: zero entries plus an explanatory error, never partial success.
func structuralFailure(sheetName, reason string, warnings []string) *Result {
	return &Result{
		SheetName: sheetName,
		Errors:    []string{reason},
		Warnings:  warnings,
	}
}
