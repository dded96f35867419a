package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/realtime"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrSessionCorrupted = errors.New("persisted session corrupted")
	ErrSessionExpired   = errors.New("session expired")
)

type SessionService interface {
	// Login authenticates against the backend, persists the token and the
	// user profile and starts synchronization.
	//
	// A session that is already active is ended first.
	Login(ctx context.Context, params LoginParams) (*models.Session, error)

	// Register creates an account and then behaves like Login.
	Register(ctx context.Context, params RegisterParams) (*models.Session, error)

	// Restore loads the persisted session at startup.
	//
	// It returns ErrNoSession if nothing is persisted. A profile that cannot
	// be parsed clears the storage and returns ErrSessionCorrupted; a token
	// past its expiry clears it and returns ErrSessionExpired.
	Restore(ctx context.Context) (*models.Session, error)

	// Logout stops synchronization and clears the persisted state.
	Logout(ctx context.Context) error

	// ForceLogout ends the session after the backend rejected its token.
	// It is a no-op when no session is active.
	ForceLogout()

	Current() (*models.Session, bool)

	api.Authenticator
}

// SessionLifecycle is started when a session is established and stopped
// when it ends.
type SessionLifecycle interface {
	Start(ctx context.Context, session models.Session) error
	Stop()
}

// PushChannel is the realtime connection as seen by the sync service.
type PushChannel interface {
	On(event string, h realtime.Handler)
	OffAll()
	OnReconnect(fn func(ctx context.Context))
	Connect(ctx context.Context, token, userID string) error
	Disconnect()
}

type SyncService interface {
	SessionLifecycle

	// Refetch replaces tasks, goals and projects with a fresh server copy.
	// Entries failing validation are skipped and logged, not returned.
	Refetch(ctx context.Context) error

	Tasks() []models.Task
	Kanban() models.Kanban
	Task(id string) (models.Task, bool)
	SearchTasks(query string) []models.Task

	CreateTask(ctx context.Context, input api.CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, input api.UpdateTaskInput) (*models.Task, error)

	// MoveTask moves the task to the status bucket right away and asks the
	// server to confirm. On failure the move is rolled back.
	//
	// It returns store.ErrMutationPending while a previous move of the same
	// task is unconfirmed.
	MoveTask(ctx context.Context, id, status string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	AddTaskCommit(ctx context.Context, id string, input api.CommitInput) (*models.Task, error)
	LoadProjectKanban(ctx context.Context, projectID string) (*models.Kanban, error)

	Goals() []models.Goal
	CurrentGoal() (models.Goal, bool)
	OpenGoal(ctx context.Context, id string) (*models.Goal, error)
	CloseGoal()
	CreateGoal(ctx context.Context, input api.GoalInput) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id string, input api.GoalInput) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	ToggleGoalStep(ctx context.Context, id string, index int) (*models.Goal, error)
	AdjustGoalValue(ctx context.Context, id string, delta float64) (*models.Goal, error)
	CompleteGoal(ctx context.Context, id string) (*models.Goal, error)

	Projects() []models.Project
	OpenProject(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, input api.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, input api.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	Dashboard(ctx context.Context) (json.RawMessage, error)
}

type LoginParams struct {
	Email    string
	Password string
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}
