package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/MHC32/momentum/internal/models"
)

type ProjectStore struct {
	mu       sync.RWMutex
	projects []models.Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{}
}

func (s *ProjectStore) Upsert(project models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(project.ID)
	if i < 0 {
		s.projects = slices.Insert(s.projects, 0, project)
		return nil
	}

	current := s.projects[i]
	if olderThan(project.Version, project.UpdatedAt, current.Version, current.UpdatedAt) {
		return fmt.Errorf("%w: project %q", ErrStaleSnapshot, project.ID)
	}
	s.projects[i] = project
	return nil
}

func (s *ProjectStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = slices.DeleteFunc(s.projects, func(p models.Project) bool {
		return p.ID == id
	})
}

func (s *ProjectStore) Replace(projects []models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = slices.Clone(projects)
}

func (s *ProjectStore) Reset() {
	s.Replace(nil)
}

func (s *ProjectStore) Get(id string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Project{}, false
	}
	return s.projects[i], true
}

func (s *ProjectStore) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.projects)
}

func (s *ProjectStore) indexOf(id string) int {
	return slices.IndexFunc(s.projects, func(p models.Project) bool {
		return p.ID == id
	})
}
