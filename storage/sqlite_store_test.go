package storage

import (
	"path/filepath"
	"testing"
	"time"

	"gridhour/timesheet"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "gridhour-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_DeveloperRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if _, found, err := store.FindDeveloperByName("Alice"); err != nil || found {
		t.Fatalf("expected no developer yet: found=%v err=%v", found, err)
	}

	id, err := store.CreateDeveloper(timesheet.Developer{Name: "Alice", Active: true})
	if err != nil {
		t.Fatalf("create developer: %v", err)
	}

	developer, found, err := store.FindDeveloperByName("Alice")
	if err != nil {
		t.Fatalf("find developer: %v", err)
	}
	if !found || developer.ID != id || !developer.Active {
		t.Fatalf("unexpected developer: %+v found=%v", developer, found)
	}
}

func TestSQLiteStore_DuplicateDeveloperRejected(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if _, err := store.CreateDeveloper(timesheet.Developer{Name: "Alice", Active: true}); err != nil {
		t.Fatalf("create developer: %v", err)
	}
	if _, err := store.CreateDeveloper(timesheet.Developer{Name: "Alice", Active: true}); err == nil {
		t.Fatalf("expected unique constraint error")
	}
}

func TestSQLiteStore_TaskNamesCaseSensitive(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	projectID, err := store.CreateProject(timesheet.Project{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	upperID, err := store.CreateTask(timesheet.Task{ProjectID: projectID, Name: "Design"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, found, err := store.FindTaskByName(projectID, "design"); err != nil || found {
		t.Fatalf("lowercase lookup must not match: found=%v err=%v", found, err)
	}

	lowerID, err := store.CreateTask(timesheet.Task{ProjectID: projectID, Name: "design"})
	if err != nil {
		t.Fatalf("create lowercase task: %v", err)
	}
	if upperID == lowerID {
		t.Fatalf("expected distinct task ids, both %d", upperID)
	}
}

func TestSQLiteStore_TaskUniquenessScopedToProject(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	apollo, err := store.CreateProject(timesheet.Project{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	hermes, err := store.CreateProject(timesheet.Project{Name: "Hermes"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if _, err := store.CreateTask(timesheet.Task{ProjectID: apollo, Name: "Design"}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := store.CreateTask(timesheet.Task{ProjectID: hermes, Name: "Design"}); err != nil {
		t.Fatalf("same name in another project must be allowed: %v", err)
	}
	if _, err := store.CreateTask(timesheet.Task{ProjectID: apollo, Name: "Design"}); err == nil {
		t.Fatalf("expected unique constraint inside one project")
	}
}

func TestSQLiteStore_FindProjectsByNames(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if _, err := store.CreateProject(timesheet.Project{Name: "Apollo"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	found, err := store.FindProjectsByNames([]string{"Apollo", "Hermes"})
	if err != nil {
		t.Fatalf("find projects: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("unexpected result size: %d", len(found))
	}
	if _, ok := found["Apollo"]; !ok {
		t.Fatalf("expected Apollo in result, got %v", found)
	}
}

func TestSQLiteStore_InsertTimeEntriesIsAtomic(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	developerID, err := store.CreateDeveloper(timesheet.Developer{Name: "Alice", Active: true})
	if err != nil {
		t.Fatalf("create developer: %v", err)
	}
	projectID, err := store.CreateProject(timesheet.Project{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	start := time.Date(2026, 2, 5, 9, 0, 0, 0, time.Local)
	entries := []timesheet.TimeEntry{
		{DeveloperID: developerID, ProjectID: projectID, Start: start, DurationMinutes: 60},
		// Violates the duration check constraint and must roll back the
		// first entry with it.
		{DeveloperID: developerID, ProjectID: projectID, Start: start, DurationMinutes: 0},
	}

	if _, err := store.InsertTimeEntries(entries); err == nil {
		t.Fatalf("expected constraint error")
	}

	details, err := store.ListEntryDetails()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(details) != 0 {
		t.Fatalf("expected empty store after rollback, got %d entries", len(details))
	}
}

func TestSQLiteStore_ListEntryDetails(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	developerID, err := store.CreateDeveloper(timesheet.Developer{Name: "Alice", Active: true})
	if err != nil {
		t.Fatalf("create developer: %v", err)
	}
	projectID, err := store.CreateProject(timesheet.Project{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	taskID, err := store.CreateTask(timesheet.Task{ProjectID: projectID, Name: "Design"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	start := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)
	entries := []timesheet.TimeEntry{
		{DeveloperID: developerID, ProjectID: projectID, TaskID: taskID, Start: start, DurationMinutes: 60, Description: "sketches"},
		{DeveloperID: developerID, ProjectID: projectID, Start: start.Add(-time.Hour), DurationMinutes: 30},
	}

	inserted, err := store.InsertTimeEntries(entries)
	if err != nil {
		t.Fatalf("insert entries: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("unexpected insert count: %d", inserted)
	}

	details, err := store.ListEntryDetails()
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("unexpected detail count: %d", len(details))
	}

	// Ordered by start time; the taskless entry starts earlier.
	if details[0].Task != "" || details[1].Task != "Design" {
		t.Fatalf("unexpected task names: %q, %q", details[0].Task, details[1].Task)
	}
	if details[1].Developer != "Alice" || details[1].Project != "Apollo" {
		t.Fatalf("unexpected names: %+v", details[1])
	}
	if !details[1].Start.Equal(start) {
		t.Fatalf("unexpected start: want %s, got %s", start, details[1].Start)
	}
}
