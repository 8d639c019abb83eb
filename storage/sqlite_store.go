package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gridhour/timesheet"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	// Name columns use the default BINARY collation: lookups are
	// case-sensitive, so "Design" and "design" are distinct tasks.
	const schema = `
CREATE TABLE IF NOT EXISTS developers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(project_id, name)
);

CREATE TABLE IF NOT EXISTS time_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	developer_id INTEGER NOT NULL REFERENCES developers(id),
	project_id INTEGER NOT NULL REFERENCES projects(id),
	task_id INTEGER REFERENCES tasks(id),
	start_datetime TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindDeveloperByName(name string) (timesheet.Developer, bool, error) {
	var (
		developer timesheet.Developer
		active    int
	)
	err := s.db.QueryRow(
		`SELECT id, name, active FROM developers WHERE name = ?;`, name,
	).Scan(&developer.ID, &developer.Name, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timesheet.Developer{}, false, nil
		}
		return timesheet.Developer{}, false, fmt.Errorf("query developer %q: %w", name, err)
	}
	developer.Active = active != 0
	return developer, true, nil
}

func (s *SQLiteStore) CreateDeveloper(developer timesheet.Developer) (int64, error) {
	active := 0
	if developer.Active {
		active = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO developers (name, active) VALUES (?, ?);`,
		developer.Name, active,
	)
	if err != nil {
		return 0, fmt.Errorf("insert developer %q: %w", developer.Name, err)
	}
	return lastInsertID(res)
}

func (s *SQLiteStore) FindProjectByName(name string) (timesheet.Project, bool, error) {
	var project timesheet.Project
	err := s.db.QueryRow(
		`SELECT id, name, status FROM projects WHERE name = ?;`, name,
	).Scan(&project.ID, &project.Name, &project.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timesheet.Project{}, false, nil
		}
		return timesheet.Project{}, false, fmt.Errorf("query project %q: %w", name, err)
	}
	return project, true, nil
}

func (s *SQLiteStore) CreateProject(project timesheet.Project) (int64, error) {
	status := project.Status
	if status == "" {
		status = "active"
	}
	res, err := s.db.Exec(
		`INSERT INTO projects (name, status) VALUES (?, ?);`,
		project.Name, status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert project %q: %w", project.Name, err)
	}
	return lastInsertID(res)
}

// FindProjectsByNames resolves a name set in one query and returns the subset
// that exists, keyed by exact name.
func (s *SQLiteStore) FindProjectsByNames(names []string) (map[string]timesheet.Project, error) {
	found := make(map[string]timesheet.Project, len(names))
	if len(names) == 0 {
		return found, nil
	}

	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}

	rows, err := s.db.Query(
		`SELECT id, name, status FROM projects WHERE name IN (`+placeholders+`);`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects by names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var project timesheet.Project
		if err := rows.Scan(&project.ID, &project.Name, &project.Status); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		found[project.Name] = project
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return found, nil
}

func (s *SQLiteStore) FindTaskByName(projectID int64, name string) (timesheet.Task, bool, error) {
	var task timesheet.Task
	err := s.db.QueryRow(
		`SELECT id, project_id, name, status FROM tasks WHERE project_id = ? AND name = ?;`,
		projectID, name,
	).Scan(&task.ID, &task.ProjectID, &task.Name, &task.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timesheet.Task{}, false, nil
		}
		return timesheet.Task{}, false, fmt.Errorf("query task %q: %w", name, err)
	}
	return task, true, nil
}

func (s *SQLiteStore) CreateTask(task timesheet.Task) (int64, error) {
	status := task.Status
	if status == "" {
		status = "pending"
	}
	res, err := s.db.Exec(
		`INSERT INTO tasks (project_id, name, status) VALUES (?, ?, ?);`,
		task.ProjectID, task.Name, status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task %q: %w", task.Name, err)
	}
	return lastInsertID(res)
}

// InsertTimeEntries persists a batch atomically: any failure rolls back the
// whole transaction and zero rows are committed.
func (s *SQLiteStore) InsertTimeEntries(entries []timesheet.TimeEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	const insertStmt = `
INSERT INTO time_entries (
	developer_id,
	project_id,
	task_id,
	start_datetime,
	duration_minutes,
	description
) VALUES (?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		var taskID any
		if entry.TaskID > 0 {
			taskID = entry.TaskID
		}
		if _, err := stmt.Exec(
			entry.DeveloperID,
			entry.ProjectID,
			taskID,
			entry.Start.Format(time.RFC3339),
			entry.DurationMinutes,
			entry.Description,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert time entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(entries), nil
}

// ListEntryDetails returns every time entry joined with its entity names,
// ordered by start time, for exports.
func (s *SQLiteStore) ListEntryDetails() ([]timesheet.EntryDetail, error) {
	const query = `
SELECT
	d.name,
	p.name,
	COALESCE(t.name, ''),
	e.start_datetime,
	e.duration_minutes,
	e.description
FROM time_entries e
JOIN developers d ON d.id = e.developer_id
JOIN projects p ON p.id = e.project_id
LEFT JOIN tasks t ON t.id = e.task_id
ORDER BY e.start_datetime, e.id;
`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	details := make([]timesheet.EntryDetail, 0, 256)
	for rows.Next() {
		var (
			detail   timesheet.EntryDetail
			startRaw string
		)
		if err := rows.Scan(
			&detail.Developer,
			&detail.Project,
			&detail.Task,
			&startRaw,
			&detail.DurationMinutes,
			&detail.Description,
		); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}

		detail.Start, err = time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, fmt.Errorf("parse start datetime %q: %w", startRaw, err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return details, nil
}

func lastInsertID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted row id: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid inserted row id %d", id)
	}
	return id, nil
}
