package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MHC32/momentum/internal/models"
)

// TaskStore keeps the task list and its per-status buckets.
type TaskStore struct {
	mu        sync.RWMutex
	tasks     []models.Task
	kanban    models.Kanban
	revisions map[string]uint64
	pending   *ledger[models.Task]
	now       func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		kanban:    emptyKanban(),
		revisions: make(map[string]uint64),
		pending:   newLedger[models.Task](),
		now:       time.Now,
	}
}

func emptyKanban() models.Kanban {
	return models.Kanban{
		Todo:       []models.Task{},
		InProgress: []models.Task{},
		Done:       []models.Task{},
	}
}

// Upsert applies a task snapshot. An existing task is replaced in place,
// a new one is prepended. The task is then moved to the end of the bucket
// matching its status.
//
// It returns ErrStaleSnapshot, leaving the state untouched, when both the
// snapshot and the stored copy are ordered and the snapshot is older.
func (s *TaskStore) Upsert(task models.Task) error {
	if !models.IsValidTaskStatus(task.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, task.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertLocked(task)
}

func (s *TaskStore) upsertLocked(task models.Task) error {
	task = task.Clone()
	if i := s.indexOf(task.ID); i >= 0 {
		current := s.tasks[i]
		if olderThan(task.Version, task.UpdatedAt, current.Version, current.UpdatedAt) {
			return fmt.Errorf("%w: task %q", ErrStaleSnapshot, task.ID)
		}
		s.tasks[i] = task
	} else {
		s.tasks = slices.Insert(s.tasks, 0, task)
	}

	s.revisions[task.ID]++
	s.place(task)
	return nil
}

// Remove deletes the task from the list and every bucket. Removing an
// unknown id is a no-op.
func (s *TaskStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.unplace(id)
	s.revisions[id]++
}

// MoveOptimistic moves a task between buckets ahead of server confirmation.
// List membership is unchanged. The returned mutation must be settled with
// Confirm or Rollback.
//
// Only one move per task may be pending; a second one fails with
// ErrMutationPending.
func (s *TaskStore) MoveOptimistic(id, from, to string) (Mutation, error) {
	if !models.IsValidTaskStatus(from) {
		return Mutation{}, fmt.Errorf("%w: %q", ErrInvalidStatus, from)
	}
	if !models.IsValidTaskStatus(to) {
		return Mutation{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Mutation{}, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	if s.pending.pending(id) {
		return Mutation{}, fmt.Errorf("%w: task %q", ErrMutationPending, id)
	}

	shadow := s.tasks[i].Clone()

	// The task may sit in another bucket than the gesture claims; it is
	// taken out of all of them to keep the partition.
	s.tasks[i].Status = to
	s.place(s.tasks[i])

	return s.pending.add(MutationMoveTask, id, shadow, s.revisions[id], s.now()), nil
}

// Confirm settles a pending mutation with the server's snapshot. The
// snapshot is applied even if the mutation was already settled or swept.
func (s *TaskStore) Confirm(mutationID string, snapshot models.Task) error {
	if !models.IsValidTaskStatus(snapshot.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, snapshot.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.take(mutationID)
	return s.upsertLocked(snapshot)
}

// Rollback restores the task as it was before the mutation. If a snapshot
// for the task was applied in the meantime it supersedes the shadow and
// nothing is restored. It reports whether the shadow was restored.
func (s *TaskStore) Rollback(mutationID string) (bool, error) {
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
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	s.tasks[i] = entry.shadow
	s.place(entry.shadow)
	return true, nil
}

// Expired returns the pending mutations started before cutoff.
func (s *TaskStore) Expired(cutoff time.Time) []Mutation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pending.startedBefore(cutoff)
}

func (s *TaskStore) Pending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pending.pending(id)
}

// Replace swaps the whole list for a freshly fetched one and rebuilds the
// buckets. Duplicate ids keep their first position and last content. Tasks
// with an unknown status are skipped and reported in the returned error.
func (s *TaskStore) Replace(tasks []models.Task) error {
	var skipped []error
	valid := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if !models.IsValidTaskStatus(task.Status) {
			skipped = append(skipped, fmt.Errorf("%w: task %q has status %q", ErrInvalidStatus, task.ID, task.Status))
			continue
		}
		valid = append(valid, task)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		s.revisions[task.ID]++
	}

	positions := make(map[string]int, len(valid))
	list := make([]models.Task, 0, len(valid))
	for _, task := range valid {
		if i, ok := positions[task.ID]; ok {
			list[i] = task.Clone()
			continue
		}
		positions[task.ID] = len(list)
		list = append(list, task.Clone())
		s.revisions[task.ID]++
	}

	s.tasks = list
	s.kanban = emptyKanban()
	for _, task := range s.tasks {
		bucket := s.kanban.Bucket(task.Status)
		*bucket = append(*bucket, task)
	}
	return errors.Join(skipped...)
}

// Reset drops every task and pending mutation.
func (s *TaskStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	s.kanban = emptyKanban()
	clear(s.revisions)
	s.pending.clear()
}

func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneTasks(s.tasks)
}

func (s *TaskStore) Kanban() models.Kanban {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Kanban{
		Todo:       cloneTasks(s.kanban.Todo),
		InProgress: cloneTasks(s.kanban.InProgress),
		Done:       cloneTasks(s.kanban.Done),
	}
}

func (s *TaskStore) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

// place moves the task to the end of the bucket matching its status.
func (s *TaskStore) place(task models.Task) {
	s.unplace(task.ID)
	bucket := s.kanban.Bucket(task.Status)
	*bucket = append(*bucket, task)
}

func (s *TaskStore) unplace(id string) {
	for _, status := range models.TaskStatuses {
		bucket := s.kanban.Bucket(status)
		*bucket = slices.DeleteFunc(*bucket, func(t models.Task) bool {
			return t.ID == id
		})
	}
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}
