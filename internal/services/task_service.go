package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/store"
)

func (s *syncServiceImpl) Tasks() []models.Task {
	return s.tasks.Tasks()
}

func (s *syncServiceImpl) Kanban() models.Kanban {
	return s.tasks.Kanban()
}

func (s *syncServiceImpl) Task(id string) (models.Task, bool) {
	return s.tasks.Get(id)
}

func (s *syncServiceImpl) SearchTasks(query string) []models.Task {
	return s.tasks.Search(query, store.DefaultSearchThreshold)
}

func (s *syncServiceImpl) CreateTask(ctx context.Context, input api.CreateTaskInput) (*models.Task, error) {
	task, err := s.client.CreateTask(ctx, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("title", input.Title).
			Msg("failed to create task")
		return nil, err
	}
	s.applyTask(*task)

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *syncServiceImpl) UpdateTask(ctx context.Context, id string, input api.UpdateTaskInput) (*models.Task, error) {
	task, err := s.client.UpdateTask(ctx, id, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task")
		return nil, err
	}
	s.applyTask(*task)

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *syncServiceImpl) MoveTask(ctx context.Context, id, status string) (*models.Task, error) {
	current, ok := s.tasks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrTaskNotFound, id)
	}

	m, err := s.tasks.MoveOptimistic(id, current.Status, status)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", id).
			Str("status", status).
			Msg("failed to move task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", id).
		Str("mutation_id", m.ID).
		Str("from", current.Status).
		Str("to", status).
		Msg("moved task optimistically")

	task, err := s.client.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task status")

		restored, rbErr := s.tasks.Rollback(m.ID)
		if rbErr != nil && !errors.Is(rbErr, store.ErrMutationNotFound) {
			s.logger.Error().
				Err(rbErr).
				Str("mutation_id", m.ID).
				Msg("failed to roll back task move")
		}
		s.logger.Info().
			Str("task_id", id).
			Bool("restored", restored).
			Msg("rolled back task move")
		return nil, err
	}

	err = s.tasks.Confirm(m.ID, *task)
	if err != nil && !errors.Is(err, store.ErrStaleSnapshot) {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to confirm task move")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", id).
		Str("status", task.Status).
		Msg("updated task status")
	return task, nil
}

func (s *syncServiceImpl) DeleteTask(ctx context.Context, id string) error {
	err := s.client.DeleteTask(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return err
	}
	s.tasks.Remove(id)

	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return nil
}

func (s *syncServiceImpl) AddTaskCommit(ctx context.Context, id string, input api.CommitInput) (*models.Task, error) {
	task, err := s.client.AddTaskCommit(ctx, id, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to add task commit")
		return nil, err
	}
	s.applyTask(*task)

	s.logger.Info().
		Str("task_id", id).
		Str("hash", input.Hash).
		Msg("added task commit")
	return task, nil
}

// LoadProjectKanban merges a project's board into the store. Local tasks of
// the project that the server no longer lists are dropped.
func (s *syncServiceImpl) LoadProjectKanban(ctx context.Context, projectID string) (*models.Kanban, error) {
	kanban, err := s.client.GetProjectKanban(ctx, projectID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("project_id", projectID).
			Msg("failed to fetch project kanban")
		return nil, err
	}

	listed := make(map[string]struct{}, kanban.Len())
	for _, status := range models.TaskStatuses {
		bucket := kanban.Bucket(status)
		for i := range *bucket {
			// the column is authoritative for the status
			(*bucket)[i].Status = status
			listed[(*bucket)[i].ID] = struct{}{}
			s.applyTask((*bucket)[i])
		}
	}
	for _, task := range s.tasks.Tasks() {
		if task.Project.ID != projectID {
			continue
		}
		if _, ok := listed[task.ID]; !ok {
			s.tasks.Remove(task.ID)
		}
	}

	s.logger.Debug().
		Str("project_id", projectID).
		Int("count", len(listed)).
		Msg("loaded project kanban")
	return kanban, nil
}
