package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/store"
)

func (s *syncServiceImpl) Projects() []models.Project {
	return s.projects.Projects()
}

// OpenProject refreshes one project from the server. A project the server no
// longer knows is dropped locally and reported as store.ErrProjectNotFound.
func (s *syncServiceImpl) OpenProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.client.GetProject(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		s.projects.Remove(id)
		s.logger.Info().
			Str("project_id", id).
			Msg("dropped project missing on server")
		return nil, fmt.Errorf("%w: %q", store.ErrProjectNotFound, id)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("project_id", id).
			Msg("failed to fetch project")
		return nil, err
	}
	s.applyProject(*project)

	return project, nil
}

func (s *syncServiceImpl) CreateProject(ctx context.Context, input api.ProjectInput) (*models.Project, error) {
	project, err := s.client.CreateProject(ctx, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("name", input.Name).
			Msg("failed to create project")
		return nil, err
	}
	s.applyProject(*project)

	s.logger.Info().
		Str("project_id", project.ID).
		Msg("created project")
	return project, nil
}

func (s *syncServiceImpl) UpdateProject(ctx context.Context, id string, input api.ProjectInput) (*models.Project, error) {
	project, err := s.client.UpdateProject(ctx, id, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("project_id", id).
			Msg("failed to update project")
		return nil, err
	}
	s.applyProject(*project)

	s.logger.Info().
		Str("project_id", id).
		Msg("updated project")
	return project, nil
}

func (s *syncServiceImpl) DeleteProject(ctx context.Context, id string) error {
	err := s.client.DeleteProject(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("project_id", id).
			Msg("failed to delete project")
		return err
	}
	s.projects.Remove(id)

	s.logger.Info().
		Str("project_id", id).
		Msg("deleted project")
	return nil
}

func (s *syncServiceImpl) applyProject(project models.Project) {
	err := s.projects.Upsert(project)
	s.logApply("project", project.ID, err)
}
