package realtime

import "encoding/json"

// EventJoin is the only event the client sends. It subscribes the
// connection to the user's room.
const EventJoin = "join"

const (
	EventTaskCreated       = "task-created"
	EventTaskUpdated       = "task-updated"
	EventTaskStatusUpdated = "task-status-updated"
	EventTaskDeleted       = "task-deleted"

	EventGoalCreated         = "goal-created"
	EventGoalUpdated         = "goal-updated"
	EventGoalDeleted         = "goal-deleted"
	EventGoalProgressUpdated = "goal-progress-updated"
	EventGoalCommitsSynced   = "goal-commits-synced"
	EventBookCompleted       = "book-completed"
	EventGoalStepCompleted   = "goal-step-completed"
	EventGoalRecalculated    = "goal-recalculated"
)

// Frame is one message on the wire in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	UserID string `json:"userId"`
}
