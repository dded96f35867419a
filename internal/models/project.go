package models

import "time"

const (
	ProjectTypeDev      = "dev"
	ProjectTypePersonal = "personal"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on-hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Project counters are computed by the server and never derived locally.
type Project struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	Color          string    `json:"color,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	TaskCount      int       `json:"taskCount"`
	CompletedTasks int       `json:"completedTasks"`
	Progress       float64   `json:"progress"`
	Version        int64     `json:"version,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}
