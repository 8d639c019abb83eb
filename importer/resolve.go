package importer

import (
	"fmt"
	"sort"

	"gridhour/timesheet"
)

// EntityStore is the slice of the external entity store the engine needs.
// Name matching is case-sensitive exact; task names are scoped to a project.
type EntityStore interface {
	FindDeveloperByName(name string) (timesheet.Developer, bool, error)
	CreateDeveloper(developer timesheet.Developer) (int64, error)
	FindProjectByName(name string) (timesheet.Project, bool, error)
	CreateProject(project timesheet.Project) (int64, error)
	FindProjectsByNames(names []string) (map[string]timesheet.Project, error)
	FindTaskByName(projectID int64, name string) (timesheet.Task, bool, error)
	CreateTask(task timesheet.Task) (int64, error)
}

// EntityResolver is the mode strategy injected into a parse: import resolves
// names into durable IDs with get-or-create semantics, preview only checks
// which referenced projects already exist.
type EntityResolver interface {
	Mode() string
	ResolveEntry(candidate *timesheet.Candidate) error
	ValidateProjects(names []string) ([]string, error)
}

// ImportResolver mutates the entity store. ResolveEntry calls must be issued
// in row order and never in parallel: get-or-create for a not-yet-existing
// name must not race with itself.
type ImportResolver struct {
	Store EntityStore
}

func (r *ImportResolver) Mode() string { return "import" }

func (r *ImportResolver) ResolveEntry(candidate *timesheet.Candidate) error {
	developerID, err := r.resolveDeveloper(candidate.DeveloperName)
	if err != nil {
		return err
	}
	candidate.DeveloperID = developerID

	projectID, err := r.resolveProject(candidate.ProjectName)
	if err != nil {
		return err
	}
	candidate.ProjectID = projectID

	if candidate.TaskName != "" {
		taskID, err := r.resolveTask(projectID, candidate.TaskName)
		if err != nil {
			return err
		}
		candidate.TaskID = taskID
	}
	return nil
}

// ValidateProjects is a no-op in import mode: unknown projects are created,
// not reported.
func (r *ImportResolver) ValidateProjects([]string) ([]string, error) {
	return nil, nil
}

func (r *ImportResolver) resolveDeveloper(name string) (int64, error) {
	developer, found, err := r.Store.FindDeveloperByName(name)
	if err != nil {
		return 0, fmt.Errorf("find developer %q: %w", name, err)
	}
	if found {
		return developer.ID, nil
	}

	id, err := r.Store.CreateDeveloper(timesheet.Developer{Name: name, Active: true})
	if err == nil {
		return id, nil
	}
	// A concurrent import may have created the same name; the unique
	// constraint rejects ours, so look it up once more.
	if developer, found, findErr := r.Store.FindDeveloperByName(name); findErr == nil && found {
		return developer.ID, nil
	}
	return 0, fmt.Errorf("create developer %q: %w", name, err)
}

func (r *ImportResolver) resolveProject(name string) (int64, error) {
	project, found, err := r.Store.FindProjectByName(name)
	if err != nil {
		return 0, fmt.Errorf("find project %q: %w", name, err)
	}
	if found {
		return project.ID, nil
	}

	id, err := r.Store.CreateProject(timesheet.Project{Name: name, Status: "active"})
	if err == nil {
		return id, nil
	}
	if project, found, findErr := r.Store.FindProjectByName(name); findErr == nil && found {
		return project.ID, nil
	}
	return 0, fmt.Errorf("create project %q: %w", name, err)
}

func (r *ImportResolver) resolveTask(projectID int64, name string) (int64, error) {
	task, found, err := r.Store.FindTaskByName(projectID, name)
	if err != nil {
		return 0, fmt.Errorf("find task %q: %w", name, err)
	}
	if found {
		return task.ID, nil
	}

	id, err := r.Store.CreateTask(timesheet.Task{ProjectID: projectID, Name: name, Status: "pending"})
	if err == nil {
		return id, nil
	}
	if task, found, findErr := r.Store.FindTaskByName(projectID, name); findErr == nil && found {
		return task.ID, nil
	}
	return 0, fmt.Errorf("create task %q: %w", name, err)
}

// PreviewResolver never writes. Referenced project names are checked for
// existence in one batched query at the end of the parse.
type PreviewResolver struct {
	Store EntityStore
}

func (r *PreviewResolver) Mode() string { return "preview" }

func (r *PreviewResolver) ResolveEntry(*timesheet.Candidate) error { return nil }

// ValidateProjects returns the sorted subset of names missing from the store.
func (r *PreviewResolver) ValidateProjects(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := r.Store.FindProjectsByNames(names)
	if err != nil {
		return nil, fmt.Errorf("check projects: %w", err)
	}

	missing := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := existing[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}
