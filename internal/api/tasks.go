package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/MHC32/momentum/internal/models"
)

type ListTasksParams struct {
	ProjectID string
	Status    string
}

type CreateTaskInput struct {
	Title         string     `json:"title"`
	Code          string     `json:"code,omitempty"`
	Description   string     `json:"description,omitempty"`
	Project       string     `json:"project,omitempty"`
	Status        string     `json:"status,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Type          string     `json:"type,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty"`
}

// UpdateTaskInput sends only the fields that are set.
type UpdateTaskInput struct {
	Title         *string    `json:"title,omitempty"`
	Code          *string    `json:"code,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Project       *string    `json:"project,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	Type          *string    `json:"type,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Progress      *float64   `json:"progress,omitempty"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty"`
}

type CommitInput struct {
	Hash    string     `json:"hash"`
	Message string     `json:"message"`
	Author  string     `json:"author,omitempty"`
	URL     string     `json:"url,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

func (c *Client) ListTasks(ctx context.Context, params ListTasksParams) ([]models.Task, error) {
	query := url.Values{}
	if params.ProjectID != "" {
		query.Set("project", params.ProjectID)
	}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	path := "/api/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var tasks []models.Task
	err := c.do(ctx, request{method: http.MethodGet, path: path, out: &tasks})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	task := new(models.Task)
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/tasks", body: input, out: task})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	task := new(models.Task)
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/tasks/" + url.PathEscape(id), body: input, out: task})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (*models.Task, error) {
	task := new(models.Task)
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/api/tasks/" + url.PathEscape(id) + "/status",
		body:   map[string]string{"status": status},
		out:    task,
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/tasks/" + url.PathEscape(id)})
}

func (c *Client) GetProjectKanban(ctx context.Context, projectID string) (*models.Kanban, error) {
	kanban := new(models.Kanban)
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/tasks/project/" + url.PathEscape(projectID) + "/kanban",
		out:    kanban,
	})
	if err != nil {
		return nil, err
	}
	return kanban, nil
}

func (c *Client) AddTaskCommit(ctx context.Context, id string, input CommitInput) (*models.Task, error) {
	task := new(models.Task)
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/tasks/" + url.PathEscape(id) + "/commits",
		body:   input,
		out:    task,
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
