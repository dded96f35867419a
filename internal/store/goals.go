package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MHC32/momentum/internal/models"
)

// GoalStore keeps the goal list and the goal currently opened for editing.
// Progress values are stored as received; nothing here derives them.
type GoalStore struct {
	mu        sync.RWMutex
	goals     []models.Goal
	current   *models.Goal
	revisions map[string]uint64
	pending   *ledger[models.Goal]
	now       func() time.Time
}

func NewGoalStore() *GoalStore {
	return &GoalStore{
		revisions: make(map[string]uint64),
		pending:   newLedger[models.Goal](),
		now:       time.Now,
	}
}

// Upsert applies a goal snapshot to the list and, when it is the opened
// goal, to the current goal as well.
func (s *GoalStore) Upsert(goal models.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertLocked(goal)
}

func (s *GoalStore) upsertLocked(goal models.Goal) error {
	goal = goal.Clone()
	i := s.indexOf(goal.ID)
	if i >= 0 {
		current := s.goals[i]
		if olderThan(goal.Version, goal.UpdatedAt, current.Version, current.UpdatedAt) {
			return fmt.Errorf("%w: goal %q", ErrStaleSnapshot, goal.ID)
		}
	} else if s.current != nil && s.current.ID == goal.ID {
		if olderThan(goal.Version, goal.UpdatedAt, s.current.Version, s.current.UpdatedAt) {
			return fmt.Errorf("%w: goal %q", ErrStaleSnapshot, goal.ID)
		}
	}

	if i >= 0 {
		s.goals[i] = goal
	} else {
		s.goals = slices.Insert(s.goals, 0, goal)
	}
	if s.current != nil && s.current.ID == goal.ID {
		current := goal.Clone()
		s.current = &current
	}
	s.revisions[goal.ID]++
	return nil
}

func (s *GoalStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals = slices.DeleteFunc(s.goals, func(g models.Goal) bool {
		return g.ID == id
	})
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.revisions[id]++
}

// Replace swaps the list for a freshly fetched one. Goals failing
// validation are skipped and reported in the returned error; the valid ones
// are stored either way.
func (s *GoalStore) Replace(goals []models.Goal) error {
	var skipped []error
	valid := make([]models.Goal, 0, len(goals))
	for _, goal := range goals {
		if err := goal.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("goal %q: %w", goal.ID, err))
			continue
		}
		valid = append(valid, goal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, goal := range s.goals {
		s.revisions[goal.ID]++
	}
	s.goals = make([]models.Goal, 0, len(valid))
	for _, goal := range valid {
		s.goals = append(s.goals, goal.Clone())
		s.revisions[goal.ID]++
		if s.current != nil && s.current.ID == goal.ID {
			current := goal.Clone()
			s.current = &current
		}
	}
	return errors.Join(skipped...)
}

// SetCurrent opens a goal snapshot for editing and applies it to the list.
func (s *GoalStore) SetCurrent(goal models.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := goal.Clone()
	s.current = &current
	if i := s.indexOf(goal.ID); i >= 0 {
		s.goals[i] = goal.Clone()
	}
	s.revisions[goal.ID]++
	return nil
}

func (s *GoalStore) Current() (models.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return models.Goal{}, false
	}
	return s.current.Clone(), true
}

func (s *GoalStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
}

func (s *GoalStore) Get(id string) (models.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.goals[i].Clone(), true
	}
	if s.current != nil && s.current.ID == id {
		return s.current.Clone(), true
	}
	return models.Goal{}, false
}

func (s *GoalStore) Goals() []models.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Goal, len(s.goals))
	for i, goal := range s.goals {
		out[i] = goal.Clone()
	}
	return out
}

// ToggleStep flips the completion of one step of a steps goal.
func (s *GoalStore) ToggleStep(id string, index int) (Mutation, error) {
	return s.mutate(MutationToggleStep, id, func(g *models.Goal) error {
		if g.Type != models.GoalTypeSteps {
			return fmt.Errorf("%w: goal %q is %s", ErrGoalTypeMismatch, id, g.Type)
		}
		if index < 0 || index >= len(g.Steps) {
			return fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, index, len(g.Steps))
		}
		g.Steps[index].Completed = !g.Steps[index].Completed
		return nil
	})
}

// AdjustValue adds delta to the current value of a numeric goal. The value
// never drops below zero.
func (s *GoalStore) AdjustValue(id string, delta float64) (Mutation, error) {
	return s.mutate(MutationAdjustValue, id, func(g *models.Goal) error {
		if g.Type != models.GoalTypeNumeric {
			return fmt.Errorf("%w: goal %q is %s", ErrGoalTypeMismatch, id, g.Type)
		}
		value := *g.CurrentValue + delta
		if value < 0 {
			value = 0
		}
		*g.CurrentValue = value
		return nil
	})
}

// MarkComplete completes a goal of any type: a simple goal is flagged, every
// step of a steps goal is checked and a numeric goal reaches its target.
func (s *GoalStore) MarkComplete(id string) (Mutation, error) {
	return s.mutate(MutationCompleteGoal, id, func(g *models.Goal) error {
		switch g.Type {
		case models.GoalTypeSimple:
			*g.Completed = true
		case models.GoalTypeSteps:
			for i := range g.Steps {
				g.Steps[i].Completed = true
			}
		case models.GoalTypeNumeric:
			*g.CurrentValue = *g.TargetValue
		default:
			return fmt.Errorf("%w: goal %q is %s", ErrGoalTypeMismatch, id, g.Type)
		}
		return nil
	})
}

func (s *GoalStore) mutate(kind, id string, apply func(g *models.Goal) error) (Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	opened := s.current != nil && s.current.ID == id
	if i < 0 && !opened {
		return Mutation{}, fmt.Errorf("%w: %q", ErrGoalNotFound, id)
	}
	if s.pending.pending(id) {
		return Mutation{}, fmt.Errorf("%w: goal %q", ErrMutationPending, id)
	}

	var base models.Goal
	if i >= 0 {
		base = s.goals[i]
	} else {
		base = *s.current
	}
	shadow := base.Clone()

	next := base.Clone()
	if err := apply(&next); err != nil {
		return Mutation{}, err
	}

	if i >= 0 {
		s.goals[i] = next
	}
	if opened {
		current := next.Clone()
		s.current = &current
	}

	return s.pending.add(kind, id, shadow, s.revisions[id], s.now()), nil
}

// Confirm settles a pending mutation with the server's snapshot.
func (s *GoalStore) Confirm(mutationID string, snapshot models.Goal) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.take(mutationID)
	return s.upsertLocked(snapshot)
}

// Rollback restores the goal as it was before the mutation unless a newer
// snapshot arrived in the meantime.
func (s *GoalStore) Rollback(mutationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending.take(mutationID)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrMutationNotFound, mutationID)
	}

	id := entry.mutation.EntityID
	if s.revisions[id] != entry.revision {
		return false, nil
	}

	restored := false
	if i := s.indexOf(id); i >= 0 {
		s.goals[i] = entry.shadow.Clone()
		restored = true
	}
	if s.current != nil && s.current.ID == id {
		current := entry.shadow.Clone()
		s.current = &current
		restored = true
	}
	return restored, nil
}

func (s *GoalStore) Expired(cutoff time.Time) []Mutation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pending.startedBefore(cutoff)
}

func (s *GoalStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals = nil
	s.current = nil
	clear(s.revisions)
	s.pending.clear()
}

func (s *GoalStore) indexOf(id string) int {
	return slices.IndexFunc(s.goals, func(g models.Goal) bool {
		return g.ID == id
	})
}
