package services

import (
	"context"
	"errors"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/store"
)

func (s *syncServiceImpl) Goals() []models.Goal {
	return s.goals.Goals()
}

func (s *syncServiceImpl) CurrentGoal() (models.Goal, bool) {
	return s.goals.Current()
}

// CloseGoal forgets the goal opened for editing. The goal stays in the list.
func (s *syncServiceImpl) CloseGoal() {
	s.goals.ClearCurrent()
}

func (s *syncServiceImpl) OpenGoal(ctx context.Context, id string) (*models.Goal, error) {
	goal, err := s.client.GetGoal(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("goal_id", id).
			Msg("failed to fetch goal")
		return nil, err
	}

	err = s.goals.SetCurrent(*goal)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("goal_id", id).
			Msg("rejected goal snapshot")
		return nil, err
	}
	return goal, nil
}

func (s *syncServiceImpl) CreateGoal(ctx context.Context, input api.GoalInput) (*models.Goal, error) {
	goal, err := s.client.CreateGoal(ctx, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("title", input.Title).
			Msg("failed to create goal")
		return nil, err
	}
	s.applyGoal(*goal)

	s.logger.Info().
		Str("goal_id", goal.ID).
		Msg("created goal")
	return goal, nil
}

func (s *syncServiceImpl) UpdateGoal(ctx context.Context, id string, input api.GoalInput) (*models.Goal, error) {
	goal, err := s.client.UpdateGoal(ctx, id, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("goal_id", id).
			Msg("failed to update goal")
		return nil, err
	}
	s.applyGoal(*goal)

	s.logger.Info().
		Str("goal_id", goal.ID).
		Msg("updated goal")
	return goal, nil
}

func (s *syncServiceImpl) DeleteGoal(ctx context.Context, id string) error {
	err := s.client.DeleteGoal(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("goal_id", id).
			Msg("failed to delete goal")
		return err
	}
	s.goals.Remove(id)

	s.logger.Info().
		Str("goal_id", id).
		Msg("deleted goal")
	return nil
}

func (s *syncServiceImpl) ToggleGoalStep(ctx context.Context, id string, index int) (*models.Goal, error) {
	return s.editGoalProgress(ctx, id, func() (store.Mutation, error) {
		return s.goals.ToggleStep(id, index)
	})
}

func (s *syncServiceImpl) AdjustGoalValue(ctx context.Context, id string, delta float64) (*models.Goal, error) {
	return s.editGoalProgress(ctx, id, func() (store.Mutation, error) {
		return s.goals.AdjustValue(id, delta)
	})
}

func (s *syncServiceImpl) CompleteGoal(ctx context.Context, id string) (*models.Goal, error) {
	return s.editGoalProgress(ctx, id, func() (store.Mutation, error) {
		return s.goals.MarkComplete(id)
	})
}

// editGoalProgress applies a local edit, sends the resulting payload and
// settles the edit with the server's answer.
func (s *syncServiceImpl) editGoalProgress(ctx context.Context, id string, edit func() (store.Mutation, error)) (*models.Goal, error) {
	m, err := edit()
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("goal_id", id).
			Msg("failed to edit goal progress")
		return nil, err
	}

	edited, ok := s.goals.Get(id)
	if !ok {
		s.rollbackGoalEdit(m)
		return nil, store.ErrGoalNotFound
	}

	goal, err := s.client.UpdateGoalProgress(ctx, id, api.NewGoalProgressInput(edited))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("goal_id", id).
			Str("kind", m.Kind).
			Msg("failed to update goal progress")
		s.rollbackGoalEdit(m)
		return nil, err
	}

	err = s.goals.Confirm(m.ID, *goal)
	if err != nil && !errors.Is(err, store.ErrStaleSnapshot) {
		s.logger.Error().
			Err(err).
			Str("goal_id", id).
			Msg("failed to confirm goal edit")
		return nil, err
	}

	s.logger.Info().
		Str("goal_id", id).
		Str("kind", m.Kind).
		Float64("progress", goal.ProgressPercent()).
		Msg("updated goal progress")
	return goal, nil
}

// rollbackGoalEdit restores the shadow of a failed edit. A mutation already
// settled by a push is not an error.
func (s *syncServiceImpl) rollbackGoalEdit(m store.Mutation) {
	_, err := s.goals.Rollback(m.ID)
	if err != nil && !errors.Is(err, store.ErrMutationNotFound) {
		s.logger.Error().
			Err(err).
			Str("mutation_id", m.ID).
			Msg("failed to roll back goal edit")
	}
}
