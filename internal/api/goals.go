package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MHC32/momentum/internal/models"
)

type ListGoalsParams struct {
	Level    string
	Category string
}

type GoalInput struct {
	Title           string        `json:"title,omitempty"`
	Description     string        `json:"description,omitempty"`
	Type            string        `json:"type,omitempty"`
	Category        string        `json:"category,omitempty"`
	Level           string        `json:"level,omitempty"`
	Priority        string        `json:"priority,omitempty"`
	ParentGoal      string        `json:"parentGoal,omitempty"`
	ShowInHierarchy *bool         `json:"showInHierarchy,omitempty"`
	ShowInChecklist *bool         `json:"showInChecklist,omitempty"`
	AutoDecompose   *bool         `json:"autoDecompose,omitempty"`
	CurrentValue    *float64      `json:"currentValue,omitempty"`
	TargetValue     *float64      `json:"targetValue,omitempty"`
	Unit            string        `json:"unit,omitempty"`
	Steps           []models.Step `json:"steps,omitempty"`
	Completed       *bool         `json:"completed,omitempty"`
}

// GoalProgressInput carries the type payload after a progress edit.
type GoalProgressInput struct {
	CurrentValue *float64      `json:"currentValue,omitempty"`
	Steps        []models.Step `json:"steps,omitempty"`
	Completed    *bool         `json:"completed,omitempty"`
}

// NewGoalProgressInput extracts the progress payload matching the goal type.
func NewGoalProgressInput(goal models.Goal) GoalProgressInput {
	switch goal.Type {
	case models.GoalTypeNumeric:
		return GoalProgressInput{CurrentValue: goal.CurrentValue}
	case models.GoalTypeSteps:
		return GoalProgressInput{Steps: goal.Steps}
	default:
		return GoalProgressInput{Completed: goal.Completed}
	}
}

func (c *Client) ListGoals(ctx context.Context, params ListGoalsParams) ([]models.Goal, error) {
	query := url.Values{}
	if params.Level != "" {
		query.Set("level", params.Level)
	}
	if params.Category != "" {
		query.Set("category", params.Category)
	}
	path := "/api/goals"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var goals []models.Goal
	err := c.do(ctx, request{method: http.MethodGet, path: path, out: &goals})
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (c *Client) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	goal := new(models.Goal)
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/goals/" + url.PathEscape(id), out: goal})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (c *Client) CreateGoal(ctx context.Context, input GoalInput) (*models.Goal, error) {
	goal := new(models.Goal)
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/goals", body: input, out: goal})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (c *Client) UpdateGoal(ctx context.Context, id string, input GoalInput) (*models.Goal, error) {
	goal := new(models.Goal)
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/goals/" + url.PathEscape(id), body: input, out: goal})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (c *Client) UpdateGoalProgress(ctx context.Context, id string, input GoalProgressInput) (*models.Goal, error) {
	goal := new(models.Goal)
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/api/goals/" + url.PathEscape(id) + "/progress",
		body:   input,
		out:    goal,
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/goals/" + url.PathEscape(id)})
}
