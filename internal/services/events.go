package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/realtime"
)

var errMissingID = errors.New("payload carries no id")

var (
	taskSnapshotEvents = []string{
		realtime.EventTaskCreated,
		realtime.EventTaskUpdated,
		realtime.EventTaskStatusUpdated,
	}
	goalSnapshotEvents = []string{
		realtime.EventGoalCreated,
		realtime.EventGoalUpdated,
		realtime.EventGoalProgressUpdated,
		realtime.EventGoalCommitsSynced,
		realtime.EventBookCompleted,
		realtime.EventGoalStepCompleted,
		realtime.EventGoalRecalculated,
	}
)

// registerHandlers subscribes the stores to push events. Handlers of an
// older generation turn into no-ops once the session that registered them
// has ended.
func (s *syncServiceImpl) registerHandlers(gen uint64) {
	for _, event := range taskSnapshotEvents {
		s.channel.On(event, func(_ context.Context, payload json.RawMessage) {
			if !s.isCurrent(gen) {
				return
			}
			task, err := decodeTask(payload)
			if err != nil {
				s.logDecode(event, err)
				return
			}
			s.applyTask(task)
		})
	}

	s.channel.On(realtime.EventTaskDeleted, func(_ context.Context, payload json.RawMessage) {
		if !s.isCurrent(gen) {
			return
		}
		id, err := decodeID(payload, "taskId")
		if err != nil {
			s.logDecode(realtime.EventTaskDeleted, err)
			return
		}
		s.tasks.Remove(id)
	})

	for _, event := range goalSnapshotEvents {
		s.channel.On(event, func(_ context.Context, payload json.RawMessage) {
			if !s.isCurrent(gen) {
				return
			}
			goal, err := decodeGoal(payload)
			if err != nil {
				s.logDecode(event, err)
				return
			}
			s.applyGoal(goal)
		})
	}

	s.channel.On(realtime.EventGoalDeleted, func(_ context.Context, payload json.RawMessage) {
		if !s.isCurrent(gen) {
			return
		}
		id, err := decodeID(payload, "goalId")
		if err != nil {
			s.logDecode(realtime.EventGoalDeleted, err)
			return
		}
		s.goals.Remove(id)
	})

	s.channel.OnReconnect(func(ctx context.Context) {
		if !s.isCurrent(gen) {
			return
		}
		s.logger.Info().Msg("realtime channel reconnected, refetching")
		if err := s.Refetch(ctx); err != nil {
			s.logger.Warn().
				Err(err).
				Msg("refetch after reconnect failed")
		}
	})
}

func (s *syncServiceImpl) logDecode(event string, err error) {
	s.logger.Warn().
		Err(err).
		Str("event", event).
		Msg("dropped malformed event")
}

// unwrap returns the value under key when payload is an object holding it,
// and payload itself otherwise.
func unwrap(payload json.RawMessage, key string) json.RawMessage {
	var wrapped map[string]json.RawMessage
	if json.Unmarshal(payload, &wrapped) != nil {
		return payload
	}
	if inner, ok := wrapped[key]; ok && len(inner) > 0 && inner[0] == '{' {
		return inner
	}
	return payload
}

func decodeTask(payload json.RawMessage) (models.Task, error) {
	var task models.Task
	if err := json.Unmarshal(unwrap(payload, "task"), &task); err != nil {
		return models.Task{}, err
	}
	if task.ID == "" {
		return models.Task{}, errMissingID
	}
	return task, nil
}

func decodeGoal(payload json.RawMessage) (models.Goal, error) {
	var goal models.Goal
	if err := json.Unmarshal(unwrap(payload, "goal"), &goal); err != nil {
		return models.Goal{}, err
	}
	if goal.ID == "" {
		return models.Goal{}, errMissingID
	}
	return goal, nil
}

// decodeID accepts a bare JSON string or an object keyed by id, _id or the
// entity specific key.
func decodeID(payload json.RawMessage, key string) (string, error) {
	var id string
	if json.Unmarshal(payload, &id) == nil {
		if id == "" {
			return "", errMissingID
		}
		return id, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", err
	}
	for _, k := range []string{key, "id", "_id"} {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if json.Unmarshal(raw, &id) == nil && id != "" {
			return id, nil
		}
	}
	return "", errMissingID
}
