package models

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// TaskStatuses lists every status a task can be in, in board column order.
var TaskStatuses = []string{StatusTodo, StatusInProgress, StatusDone}

func IsValidTaskStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID            string     `json:"_id"`
	Title         string     `json:"title"`
	Code          string     `json:"code,omitempty"`
	Description   string     `json:"description"`
	Project       ProjectRef `json:"project"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Type          string     `json:"type"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Progress      *float64   `json:"progress,omitempty"`
	Commits       []Commit   `json:"commits,omitempty"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty"`
	Version       int64      `json:"version,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitzero"`
	UpdatedAt     time.Time  `json:"updatedAt,omitzero"`
}

type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author,omitempty"`
	URL     string    `json:"url,omitempty"`
	Date    time.Time `json:"date,omitzero"`
}

// ProjectRef is a task's owning project. The server sends either the bare
// project id or the populated project document.
type ProjectRef struct {
	ID      string
	Project *Project
}

func (r ProjectRef) MarshalJSON() ([]byte, error) {
	if r.Project != nil {
		return json.Marshal(r.Project)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *ProjectRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ProjectRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ProjectRef{ID: id}
		return nil
	}

	project := new(Project)
	if err := json.Unmarshal(data, project); err != nil {
		return err
	}
	*r = ProjectRef{ID: project.ID, Project: project}
	return nil
}

// Kanban groups tasks by status. It must always partition the task list.
type Kanban struct {
	Todo       []Task `json:"todo"`
	InProgress []Task `json:"in-progress"`
	Done       []Task `json:"done"`
}

// Bucket returns the column holding tasks of the given status, or nil
// for an unknown status.
func (k *Kanban) Bucket(status string) *[]Task {
	switch status {
	case StatusTodo:
		return &k.Todo
	case StatusInProgress:
		return &k.InProgress
	case StatusDone:
		return &k.Done
	}
	return nil
}

func (k Kanban) Len() int {
	return len(k.Todo) + len(k.InProgress) + len(k.Done)
}

// Clone returns a copy of the task that shares no memory with the original.
func (t Task) Clone() Task {
	if t.Deadline != nil {
		v := *t.Deadline
		t.Deadline = &v
	}
	if t.Progress != nil {
		v := *t.Progress
		t.Progress = &v
	}
	if t.EstimatedTime != nil {
		v := *t.EstimatedTime
		t.EstimatedTime = &v
	}
	if t.Commits != nil {
		t.Commits = append(make([]Commit, 0, len(t.Commits)), t.Commits...)
	}
	if t.Project.Project != nil {
		v := *t.Project.Project
		t.Project.Project = &v
	}
	return t
}
