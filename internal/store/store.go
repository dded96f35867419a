// Package store holds the client-side projection of server-owned entities.
//
// Every store serializes its mutations under a single mutex, so readers
// always observe a state in which the task buckets partition the task list.
// Snapshots coming from the server and optimistic local mutations go
// through the same operations.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrGoalNotFound     = errors.New("goal not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrStaleSnapshot    = errors.New("stale snapshot")
	ErrMutationPending  = errors.New("mutation already pending")
	ErrMutationNotFound = errors.New("mutation not found")
	ErrGoalTypeMismatch = errors.New("goal type mismatch")
	ErrStepOutOfRange   = errors.New("step index out of range")
)

const (
	MutationMoveTask     = "move-task"
	MutationToggleStep   = "toggle-step"
	MutationAdjustValue  = "adjust-value"
	MutationCompleteGoal = "complete-goal"
)

// Mutation identifies an optimistic change awaiting server confirmation.
type Mutation struct {
	ID        string
	EntityID  string
	Kind      string
	StartedAt time.Time
}

type pendingEntry[T any] struct {
	mutation Mutation
	shadow   T
	// revision of the entity when the mutation started
	revision uint64
}

// ledger tracks at most one pending mutation per entity.
type ledger[T any] struct {
	byID     map[string]pendingEntry[T]
	byEntity map[string]string
}

func newLedger[T any]() *ledger[T] {
	return &ledger[T]{
		byID:     make(map[string]pendingEntry[T]),
		byEntity: make(map[string]string),
	}
}

func (l *ledger[T]) pending(entityID string) bool {
	_, ok := l.byEntity[entityID]
	return ok
}

func (l *ledger[T]) add(kind, entityID string, shadow T, revision uint64, now time.Time) Mutation {
	m := Mutation{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Kind:      kind,
		StartedAt: now,
	}
	l.byID[m.ID] = pendingEntry[T]{
		mutation: m,
		shadow:   shadow,
		revision: revision,
	}
	l.byEntity[entityID] = m.ID
	return m
}

func (l *ledger[T]) take(mutationID string) (pendingEntry[T], bool) {
	entry, ok := l.byID[mutationID]
	if !ok {
		return entry, false
	}
	delete(l.byID, mutationID)
	if l.byEntity[entry.mutation.EntityID] == mutationID {
		delete(l.byEntity, entry.mutation.EntityID)
	}
	return entry, true
}

func (l *ledger[T]) startedBefore(cutoff time.Time) []Mutation {
	var expired []Mutation
	for _, entry := range l.byID {
		if entry.mutation.StartedAt.Before(cutoff) {
			expired = append(expired, entry.mutation)
		}
	}
	return expired
}

func (l *ledger[T]) clear() {
	clear(l.byID)
	clear(l.byEntity)
}

// olderThan reports whether a snapshot is strictly older than the stored
// copy. Versions win over timestamps; without ordering info on both sides
// the incoming snapshot is never considered older.
func olderThan(inVersion int64, inUpdated time.Time, curVersion int64, curUpdated time.Time) bool {
	if inVersion != 0 && curVersion != 0 {
		return inVersion < curVersion
	}
	if !inUpdated.IsZero() && !curUpdated.IsZero() {
		return inUpdated.Before(curUpdated)
	}
	return false
}
