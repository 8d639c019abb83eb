package importer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"gridhour/timesheet"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func buildXLSX(t *testing.T, sheets []sheetFixture) []byte {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := file.SetSheetName(file.GetSheetName(0), sheet.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else {
			if _, err := file.NewSheet(sheet.name); err != nil {
				t.Fatalf("add sheet %s: %v", sheet.name, err)
			}
		}

		for r, row := range sheet.rows {
			for c, value := range row {
				if value == nil || value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := file.SetCellValue(sheet.name, cell, value); err != nil {
					t.Fatalf("set cell %s: %v", cell, err)
				}
			}
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func seededStore(projects ...string) *fakeStore {
	store := newFakeStore()
	for _, name := range projects {
		_, _ = store.CreateProject(timesheet.Project{Name: name, Status: "active"})
	}
	return store
}

func TestParseWorkbook_SelectsDataSheetOverMetadata(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Variable",
			rows: [][]any{
				{"Lookup", "Value"},
				{"Rate", 150},
			},
		},
		{
			name: "Timesheet",
			rows: [][]any{
				{"Developer", "Project", "Task", "Date", "Duration"},
				{"Alice", "Apollo", "Design", "2026-02-05", 60},
				{"Alice", "Apollo", "Review", "2026-02-06", 30},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SheetName != "Timesheet" {
		t.Fatalf("unexpected sheet: %q", result.SheetName)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if result.DetectedDeveloper != "Alice" {
		t.Fatalf("unexpected developer: %q", result.DetectedDeveloper)
	}
}

func TestParseWorkbook_PreviewKeepsValidRowsNextToErrors(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Timesheet",
			rows: [][]any{
				{"Developer", "Project", "Date", "Duration"},
				{"Alice", "Apollo", "2026-02-05", 60},
				{"Alice", "Apollo", "2026-02-06", 0},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if len(result.Preview) != 1 {
		t.Fatalf("unexpected preview count: %d", len(result.Preview))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Errors[0] != "Row 3: Duration must be greater than 0" {
		t.Fatalf("unexpected error string: %q", result.Errors[0])
	}
}

func TestParseWorkbook_PreviewCapsAtTenRows(t *testing.T) {
	t.Parallel()

	rows := [][]any{{"Developer", "Project", "Date", "Duration"}}
	for i := 0; i < 14; i++ {
		date := fmt.Sprintf("2026-02-%02d", i+1)
		rows = append(rows, []any{"Alice", "Apollo", date, 60})
	}

	data := buildXLSX(t, []sheetFixture{{name: "Timesheet", rows: rows}})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 14 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if len(result.Preview) != 10 {
		t.Fatalf("unexpected preview count: %d", len(result.Preview))
	}
}

func TestParseWorkbook_WeeklyGrid(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Week 6",
			rows: [][]any{
				{"Name:", "Alice"},
				{"Week Ending", "2026-02-06"},
				{"Project", "Task", "Mon", "Tue", "Wed", "Thu", "Fri"},
				{"Apollo", "Design", 1, 0, 0.25, "", 2},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if result.DetectedDeveloper != "Alice" {
		t.Fatalf("unexpected developer: %q", result.DetectedDeveloper)
	}

	for _, entry := range result.Entries {
		if entry.DurationMinutes%15 != 0 {
			t.Fatalf("duration not a multiple of 15: %d", entry.DurationMinutes)
		}
		if entry.DeveloperName != "Alice" || entry.ProjectName != "Apollo" || entry.TaskName != "Design" {
			t.Fatalf("unexpected entry names: %+v", entry)
		}
	}
}

func TestParseWorkbook_ProjectCodeGridWithoutWeekdayHeaders(t *testing.T) {
	t.Parallel()

	// Sat-Fri style layout: the header row names only the project and task
	// columns, the day columns carry no labels at all.
	data := buildXLSX(t, []sheetFixture{
		{
			name: "Week 6",
			rows: [][]any{
				{"Name:", "Alice"},
				{"Week Ending", "2026-02-06"},
				{"Project Code", "Description", "", "", "", "", ""},
				{"APOLLO", "Design work", 1, "", 2, "", ""},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("APOLLO")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if result.DetectedDeveloper != "Alice" {
		t.Fatalf("unexpected developer: %q", result.DetectedDeveloper)
	}

	// Day columns sit at a fixed offset right of the task column; dates
	// derive from the Friday week-ending anchor by column delta.
	first, second := result.Entries[0], result.Entries[1]
	if first.DurationMinutes != 60 || second.DurationMinutes != 120 {
		t.Fatalf("unexpected durations: %d, %d", first.DurationMinutes, second.DurationMinutes)
	}
	wantFirst := time.Date(2026, 2, 2, 0, 0, 0, 0, time.Local)
	wantSecond := time.Date(2026, 2, 4, 0, 0, 0, 0, time.Local)
	if !first.Start.Equal(wantFirst) {
		t.Fatalf("unexpected first start: want %s, got %s", wantFirst, first.Start)
	}
	if !second.Start.Equal(wantSecond) {
		t.Fatalf("unexpected second start: want %s, got %s", wantSecond, second.Start)
	}
	for _, entry := range result.Entries {
		if entry.ProjectName != "APOLLO" || entry.TaskName != "Design work" {
			t.Fatalf("unexpected entry names: %+v", entry)
		}
	}
}

func TestParseWorkbook_StructuralFailure(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Notes",
			rows: [][]any{
				{"Some prose about the week"},
				{"Nothing tabular here"},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: newFakeStore()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 0 {
		t.Fatalf("expected zero entries, got %d", len(result.Entries))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one structural error, got %v", result.Errors)
	}
}

func TestParseWorkbook_PreviewReportsInvalidProjects(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Timesheet",
			rows: [][]any{
				{"Developer", "Project", "Date", "Duration"},
				{"Alice", "Apollo", "2026-02-05", 60},
				{"Alice", "Hermes", "2026-02-05", 60},
			},
		},
	})

	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Projects.All) != 2 || result.Projects.All[0] != "Apollo" || result.Projects.All[1] != "Hermes" {
		t.Fatalf("unexpected project list: %v", result.Projects.All)
	}
	if len(result.Projects.Invalid) != 1 || result.Projects.Invalid[0] != "Hermes" {
		t.Fatalf("unexpected invalid projects: %v", result.Projects.Invalid)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Invalid projects (1/2):") {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Hermes") {
		t.Fatalf("expected Hermes in error, got %q", result.Errors[0])
	}
}

func TestParseWorkbook_ImportResolvesIDs(t *testing.T) {
	t.Parallel()

	data := buildXLSX(t, []sheetFixture{
		{
			name: "Timesheet",
			rows: [][]any{
				{"Developer", "Project", "Task", "Date", "Duration"},
				{"Alice", "Apollo", "Design", "2026-02-05", 60},
			},
		},
	})

	store := newFakeStore()
	service := NewService(time.Local)
	result, err := service.ParseWorkbook(data, &ImportResolver{Store: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.DeveloperID == 0 || entry.ProjectID == 0 || entry.TaskID == 0 {
		t.Fatalf("expected resolved ids, got %+v", entry)
	}
	if store.createdProjects != 1 {
		t.Fatalf("expected one created project, got %d", store.createdProjects)
	}
}

func TestParseRows_BypassesSheetSelection(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{
			RowNumber: 2,
			Values: map[string]Value{
				"developer": cellValue("Alice"),
				"project":   cellValue("Apollo"),
				"date":      cellValue("2026-02-05"),
				"duration":  cellValue("60"),
			},
		},
		{
			RowNumber: 3,
			Values: map[string]Value{
				"developer": cellValue("Alice"),
				"project":   cellValue("Apollo"),
				"date":      cellValue("not a date"),
				"duration":  cellValue("60"),
			},
		},
	}

	service := NewService(time.Local)
	result, err := service.ParseRows(rows, NewContext("", time.Local), &PreviewResolver{Store: seededStore("Apollo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("unexpected entry count: %d", len(result.Entries))
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Row 3: Invalid date: not a date" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}
