package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/MHC32/momentum/internal/models"
)

type ProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/projects", out: &projects})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project := new(models.Project)
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/projects/" + url.PathEscape(id), out: project})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (c *Client) CreateProject(ctx context.Context, input ProjectInput) (*models.Project, error) {
	project := new(models.Project)
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/projects", body: input, out: project})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, input ProjectInput) (*models.Project, error) {
	project := new(models.Project)
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/projects/" + url.PathEscape(id), body: input, out: project})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/projects/" + url.PathEscape(id)})
}

// GetDashboard returns the server-computed dashboard summary untouched.
func (c *Client) GetDashboard(ctx context.Context) (json.RawMessage, error) {
	var dashboard json.RawMessage
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard", out: &dashboard})
	if err != nil {
		return nil, err
	}
	return dashboard, nil
}
