package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	GoalTypeNumeric = "numeric"
	GoalTypeSteps   = "steps"
	GoalTypeSimple  = "simple"
)

const (
	GoalCategoryFinancial    = "financial"
	GoalCategoryProfessional = "professional"
	GoalCategoryLearning     = "learning"
	GoalCategoryPersonal     = "personal"
	GoalCategoryHealth       = "health"
)

const (
	GoalLevelAnnual    = "annual"
	GoalLevelQuarterly = "quarterly"
	GoalLevelMonthly   = "monthly"
	GoalLevelWeekly    = "weekly"
	GoalLevelDaily     = "daily"
)

var ErrInvalidGoalPayload = errors.New("invalid goal payload")

type Goal struct {
	ID              string `json:"_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Type            string `json:"type"`
	Category        string `json:"category"`
	Level           string `json:"level"`
	Priority        string `json:"priority,omitempty"`
	ParentGoal      string `json:"parentGoal,omitempty"`
	ShowInHierarchy bool   `json:"showInHierarchy"`
	ShowInChecklist bool   `json:"showInChecklist"`
	AutoDecompose   *bool  `json:"autoDecompose,omitempty"`

	// Server computed.
	Progress       float64 `json:"progress"`
	ProgressStatus string  `json:"progressStatus,omitempty"`

	// numeric
	CurrentValue *float64 `json:"currentValue,omitempty"`
	TargetValue  *float64 `json:"targetValue,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	// steps
	Steps []Step `json:"steps,omitempty"`
	// simple
	Completed *bool `json:"completed,omitempty"`

	Version   int64     `json:"version,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

type Step struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON also accepts current_value and target_value, which some
// backend payloads send instead of the camel case keys.
func (g *Goal) UnmarshalJSON(data []byte) error {
	type Alias Goal
	aux := struct {
		*Alias
		SnakeCurrentValue *float64 `json:"current_value"`
		SnakeTargetValue  *float64 `json:"target_value"`
	}{Alias: (*Alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if g.CurrentValue == nil {
		g.CurrentValue = aux.SnakeCurrentValue
	}
	if g.TargetValue == nil {
		g.TargetValue = aux.SnakeTargetValue
	}
	return nil
}

// ProgressPercent reports the progress exactly as the server computed it.
func (g *Goal) ProgressPercent() float64 {
	return g.Progress
}

// Validate checks that exactly the payload matching the goal type is set.
func (g *Goal) Validate() error {
	numeric := g.CurrentValue != nil || g.TargetValue != nil
	steps := len(g.Steps) > 0
	simple := g.Completed != nil

	switch g.Type {
	case GoalTypeNumeric:
		if g.CurrentValue == nil || g.TargetValue == nil || steps || simple {
			return fmt.Errorf("%w: numeric goal %q", ErrInvalidGoalPayload, g.ID)
		}
	case GoalTypeSteps:
		if g.Steps == nil || numeric || simple {
			return fmt.Errorf("%w: steps goal %q", ErrInvalidGoalPayload, g.ID)
		}
	case GoalTypeSimple:
		if g.Completed == nil || numeric || steps {
			return fmt.Errorf("%w: simple goal %q", ErrInvalidGoalPayload, g.ID)
		}
	default:
		return fmt.Errorf("%w: unknown goal type %q", ErrInvalidGoalPayload, g.Type)
	}
	return nil
}

// Clone returns a deep copy so that optimistic edits never alias a shadow.
func (g Goal) Clone() Goal {
	if g.AutoDecompose != nil {
		v := *g.AutoDecompose
		g.AutoDecompose = &v
	}
	if g.CurrentValue != nil {
		v := *g.CurrentValue
		g.CurrentValue = &v
	}
	if g.TargetValue != nil {
		v := *g.TargetValue
		g.TargetValue = &v
	}
	if g.Completed != nil {
		v := *g.Completed
		g.Completed = &v
	}
	if g.Steps != nil {
		g.Steps = append([]Step(nil), g.Steps...)
		if g.Steps == nil {
			g.Steps = []Step{}
		}
	}
	return g
}
