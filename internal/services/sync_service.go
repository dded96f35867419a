package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/realtime"
	"github.com/MHC32/momentum/internal/store"
)

type SyncParams struct {
	PendingTimeout time.Duration
	SweepInterval  time.Duration
}

type syncServiceImpl struct {
	logger   zerolog.Logger
	client   *api.Client
	channel  PushChannel
	tasks    *store.TaskStore
	goals    *store.GoalStore
	projects *store.ProjectStore
	params   SyncParams
	now      func() time.Time

	mu         sync.Mutex
	generation uint64
	stopSweep  context.CancelFunc
}

func NewSyncService(
	logger zerolog.Logger,
	client *api.Client,
	channel PushChannel,
	tasks *store.TaskStore,
	goals *store.GoalStore,
	projects *store.ProjectStore,
	params SyncParams,
) SyncService {
	if params.PendingTimeout <= 0 {
		params.PendingTimeout = 30 * time.Second
	}
	if params.SweepInterval <= 0 {
		params.SweepInterval = 5 * time.Second
	}
	return &syncServiceImpl{
		logger:   logger,
		client:   client,
		channel:  channel,
		tasks:    tasks,
		goals:    goals,
		projects: projects,
		params:   params,
		now:      time.Now,
	}
}

// Start refetches everything, subscribes to push events and starts the
// sweeper for timed out optimistic mutations. Failures of the refetch or of
// the realtime connection are returned but leave the service running; a
// channel that failed its first dial keeps retrying until Stop.
//
// ctx only bounds the startup calls. Background work started here is
// stopped by Stop or by the next Start.
func (s *syncServiceImpl) Start(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	s.shutdownLocked()
	s.generation++
	gen := s.generation

	// The sweeper outlives the call that started it.
	sweepCtx, cancel := context.WithCancel(context.Background())
	s.stopSweep = cancel
	s.mu.Unlock()

	s.registerHandlers(gen)
	go s.sweep(sweepCtx)

	var errs []error
	err := s.Refetch(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	if !s.isCurrent(gen) {
		s.logger.Info().Msg("session ended during startup")
		return errors.Join(errs...)
	}

	err = s.channel.Connect(ctx, session.Token, session.User.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to connect realtime channel")
		errs = append(errs, err)
	}
	if !errors.Is(err, realtime.ErrAlreadyConnected) && !s.isCurrent(gen) {
		s.channel.Disconnect()
	}

	s.logger.Info().
		Str("user_id", session.User.ID).
		Msg("synchronization started")
	return errors.Join(errs...)
}

// Stop unsubscribes, disconnects and drops all cached state.
func (s *syncServiceImpl) Stop() {
	s.mu.Lock()
	s.shutdownLocked()
	s.generation++
	s.mu.Unlock()

	s.tasks.Reset()
	s.goals.Reset()
	s.projects.Reset()

	s.logger.Info().Msg("synchronization stopped")
}

func (s *syncServiceImpl) shutdownLocked() {
	s.channel.OffAll()
	s.channel.Disconnect()
	if s.stopSweep != nil {
		s.stopSweep()
		s.stopSweep = nil
	}
}

func (s *syncServiceImpl) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation == gen
}

func (s *syncServiceImpl) Refetch(ctx context.Context) error {
	var errs []error

	tasks, err := s.client.ListTasks(ctx, api.ListTasksParams{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch tasks")
		errs = append(errs, err)
	} else if err = s.tasks.Replace(tasks); err != nil {
		s.logger.Warn().
			Err(err).
			Msg("skipped invalid tasks")
	}

	goals, err := s.client.ListGoals(ctx, api.ListGoalsParams{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch goals")
		errs = append(errs, err)
	} else if err = s.goals.Replace(goals); err != nil {
		s.logger.Warn().
			Err(err).
			Msg("skipped invalid goals")
	}

	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch projects")
		errs = append(errs, err)
	} else {
		s.projects.Replace(projects)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info().
		Int("tasks", len(tasks)).
		Int("goals", len(goals)).
		Int("projects", len(projects)).
		Msg("refetched state")
	return nil
}

func (s *syncServiceImpl) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.params.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rollbackExpired()
		}
	}
}

func (s *syncServiceImpl) rollbackExpired() {
	cutoff := s.now().Add(-s.params.PendingTimeout)

	for _, m := range s.tasks.Expired(cutoff) {
		restored, err := s.tasks.Rollback(m.ID)
		s.logExpired(m, restored, err)
	}
	for _, m := range s.goals.Expired(cutoff) {
		restored, err := s.goals.Rollback(m.ID)
		s.logExpired(m, restored, err)
	}
}

func (s *syncServiceImpl) logExpired(m store.Mutation, restored bool, err error) {
	if err != nil && !errors.Is(err, store.ErrMutationNotFound) {
		s.logger.Error().
			Err(err).
			Str("mutation_id", m.ID).
			Msg("failed to roll back expired mutation")
		return
	}
	s.logger.Warn().
		Str("mutation_id", m.ID).
		Str("kind", m.Kind).
		Str("entity_id", m.EntityID).
		Bool("restored", restored).
		Msg("optimistic mutation timed out")
}

// applyTask stores a server snapshot; a stale one is not an error for the
// caller since a newer copy is already held.
func (s *syncServiceImpl) applyTask(task models.Task) {
	err := s.tasks.Upsert(task)
	s.logApply("task", task.ID, err)
}

func (s *syncServiceImpl) applyGoal(goal models.Goal) {
	err := s.goals.Upsert(goal)
	s.logApply("goal", goal.ID, err)
}

func (s *syncServiceImpl) logApply(kind, id string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, store.ErrStaleSnapshot):
		s.logger.Debug().
			Str("kind", kind).
			Str("id", id).
			Msg("ignored stale snapshot")
	default:
		s.logger.Warn().
			Err(err).
			Str("kind", kind).
			Str("id", id).
			Msg("rejected snapshot")
	}
}

func (s *syncServiceImpl) Dashboard(ctx context.Context) (json.RawMessage, error) {
	dashboard, err := s.client.GetDashboard(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch dashboard")
		return nil, err
	}
	return dashboard, nil
}
