package timesheet

import "time"

// Developer is a person that logs time. Names are matched case-sensitively.
type Developer struct {
	ID     int64
	Name   string
	Active bool
}

type Project struct {
	ID     int64
	Name   string
	Status string
}

// Task belongs to exactly one project; its name is unique within that project.
type Task struct {
	ID        int64
	ProjectID int64
	Name      string
	Status    string
}

// TimeEntry is the persisted, ID-resolved record.
type TimeEntry struct {
	ID              int64
	DeveloperID     int64
	ProjectID       int64
	TaskID          int64 // 0 when the entry has no task
	Start           time.Time
	DurationMinutes int
	Description     string
}

// Candidate is a validated entry still keyed by names. Import-mode entity
// resolution fills the ID fields; preview mode leaves them zero.
type Candidate struct {
	DeveloperName   string
	ProjectName     string
	TaskName        string
	Start           time.Time
	DurationMinutes int
	Description     string

	DeveloperID int64
	ProjectID   int64
	TaskID      int64
}

func (c Candidate) Entry() TimeEntry {
	return TimeEntry{
		DeveloperID:     c.DeveloperID,
		ProjectID:       c.ProjectID,
		TaskID:          c.TaskID,
		Start:           c.Start,
		DurationMinutes: c.DurationMinutes,
		Description:     c.Description,
	}
}

// EntryDetail is a time entry joined with its entity names, used by exports.
type EntryDetail struct {
	Developer       string
	Project         string
	Task            string
	Start           time.Time
	DurationMinutes int
	Description     string
}
