package app

import (
	"context"
	"errors"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/config"
	"github.com/MHC32/momentum/internal/realtime"
	"github.com/MHC32/momentum/internal/services"
	"github.com/MHC32/momentum/internal/store"
)

var (
	globalSessions services.SessionService
	globalSync     services.SyncService
)

// InitServices wires the API client, the realtime channel and the stores
// into the session and sync services. Storage must be open.
func InitServices() {
	cfg := config.Global()

	client := api.New(Logger("api"), cfg.API.BaseURL, cfg.API.Timeout)
	channel := realtime.New(Logger("realtime"), cfg.Realtime.URL, realtime.Options{
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		ReconnectDelay:    cfg.Realtime.ReconnectDelay,
		MaxReconnectDelay: cfg.Realtime.MaxReconnectDelay,
	})

	globalSync = services.NewSyncService(
		Logger("sync"),
		client,
		channel,
		store.NewTaskStore(),
		store.NewGoalStore(),
		store.NewProjectStore(),
		services.SyncParams{
			PendingTimeout: cfg.Sync.PendingTimeout,
			SweepInterval:  cfg.Sync.SweepInterval,
		},
	)
	globalSessions = services.NewSessionService(Logger("session"), client, globalStorage, globalSync)

	globalLogger.Info().
		Str("api", cfg.API.BaseURL).
		Str("realtime", cfg.Realtime.URL).
		Msg("initialized services")
}

// RestoreSession resumes the persisted session, if any. A missing, corrupt
// or expired session is not an error; the user has to log in again.
func RestoreSession(ctx context.Context) {
	session, err := globalSessions.Restore(ctx)
	switch {
	case err == nil:
		globalLogger.Info().
			Str("user_id", session.User.ID).
			Msg("resumed session")
	case errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrSessionCorrupted),
		errors.Is(err, services.ErrSessionExpired):
		globalLogger.Info().
			Err(err).
			Msg("login required")
	default:
		globalLogger.Error().
			Err(err).
			Msg("failed to restore session")
	}
}

// StopSync ends synchronization but keeps the persisted session for the
// next start.
func StopSync() {
	if globalSync == nil {
		return
	}
	globalSync.Stop()
}

func Sessions() services.SessionService {
	return globalSessions
}

func Sync() services.SyncService {
	return globalSync
}
