package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/services"
	"github.com/MHC32/momentum/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSessions struct {
	services.SessionService
	session *models.Session
	LoginFn func(ctx context.Context, params services.LoginParams) (*models.Session, error)
}

func (m *mockSessions) Login(ctx context.Context, params services.LoginParams) (*models.Session, error) {
	return m.LoginFn(ctx, params)
}

func (m *mockSessions) Current() (*models.Session, bool) {
	return m.session, m.session != nil
}

func (m *mockSessions) Logout(context.Context) error {
	m.session = nil
	return nil
}

type mockSync struct {
	services.SyncService
	tasks            []models.Task
	MoveTaskFn       func(ctx context.Context, id, status string) (*models.Task, error)
	ToggleGoalStepFn func(ctx context.Context, id string, index int) (*models.Goal, error)
	CreateTaskFn     func(ctx context.Context, input api.CreateTaskInput) (*models.Task, error)
	OpenProjectFn    func(ctx context.Context, id string) (*models.Project, error)
	closedGoals      int
}

func (m *mockSync) Tasks() []models.Task {
	return m.tasks
}

func (m *mockSync) MoveTask(ctx context.Context, id, status string) (*models.Task, error) {
	return m.MoveTaskFn(ctx, id, status)
}

func (m *mockSync) ToggleGoalStep(ctx context.Context, id string, index int) (*models.Goal, error) {
	return m.ToggleGoalStepFn(ctx, id, index)
}

func (m *mockSync) CreateTask(ctx context.Context, input api.CreateTaskInput) (*models.Task, error) {
	return m.CreateTaskFn(ctx, input)
}

func (m *mockSync) OpenProject(ctx context.Context, id string) (*models.Project, error) {
	return m.OpenProjectFn(ctx, id)
}

func (m *mockSync) CloseGoal() {
	m.closedGoals++
}

func (m *mockSync) Dashboard(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"streak":4}`), nil
}

var activeSession = &models.Session{Token: "tok", User: models.User{ID: "u1", Name: "Ada"}}

func newTestRouter(sessions *mockSessions, sync *mockSync, apiKeyHash string) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), New(zerolog.Nop(), sessions, sync, apiKeyHash))
	return router
}

func do(router http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionRequired(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockSessions{}, &mockSync{}, "")
	w := do(router, http.MethodGet, "/api/v1/tasks", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestGetTasksFilters(t *testing.T) {
	t.Parallel()

	sync := &mockSync{tasks: []models.Task{
		{ID: "t1", Status: models.StatusTodo, Project: models.ProjectRef{ID: "p1"}},
		{ID: "t2", Status: models.StatusDone, Project: models.ProjectRef{ID: "p1"}},
		{ID: "t3", Status: models.StatusTodo, Project: models.ProjectRef{ID: "p2"}},
	}}
	router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

	w := do(router, http.MethodGet, "/api/v1/tasks?status=todo&project=p1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var tasks []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("Expected only t1, got %+v", tasks)
	}

	w = do(router, http.MethodGet, "/api/v1/tasks?status=archived", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestSetTaskStatusMapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"missing task", fmt.Errorf("%w: %q", store.ErrTaskNotFound, "t1"), http.StatusNotFound},
		{"pending move", store.ErrMutationPending, http.StatusConflict},
		{"invalid status", store.ErrInvalidStatus, http.StatusBadRequest},
		{"token rejected", &api.Error{StatusCode: http.StatusUnauthorized}, http.StatusUnauthorized},
		{"backend down", &api.Error{StatusCode: http.StatusServiceUnavailable}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sync := &mockSync{MoveTaskFn: func(_ context.Context, id, status string) (*models.Task, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &models.Task{ID: id, Status: status}, nil
			}}
			router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

			w := do(router, http.MethodPatch, "/api/v1/tasks/t1/status?status=done", "", nil)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCreateTaskValidatesBody(t *testing.T) {
	t.Parallel()

	called := false
	sync := &mockSync{CreateTaskFn: func(_ context.Context, input api.CreateTaskInput) (*models.Task, error) {
		called = true
		return &models.Task{ID: "t1", Title: input.Title, Status: models.StatusTodo}, nil
	}}
	router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

	w := do(router, http.MethodPost, "/api/v1/tasks", `{"title":"A","priority":"urgent"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if called {
		t.Errorf("Expected invalid body rejected before the network call")
	}

	w = do(router, http.MethodPost, "/api/v1/tasks", `{"title":"A","priority":"high"}`, nil)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
}

func TestToggleGoalStepIndex(t *testing.T) {
	t.Parallel()

	var gotIndex int
	sync := &mockSync{ToggleGoalStepFn: func(_ context.Context, id string, index int) (*models.Goal, error) {
		gotIndex = index
		if index > 1 {
			return nil, store.ErrStepOutOfRange
		}
		return &models.Goal{ID: id}, nil
	}}
	router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

	w := do(router, http.MethodPost, "/api/v1/goals/g1/steps/1/toggle", "", nil)
	if w.Code != http.StatusOK || gotIndex != 1 {
		t.Errorf("Expected toggle of step 1, got status %d index %d", w.Code, gotIndex)
	}
	if w := do(router, http.MethodPost, "/api/v1/goals/g1/steps/x/toggle", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/v1/goals/g1/steps/7/toggle", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestLoginAndSession(t *testing.T) {
	t.Parallel()

	sessions := &mockSessions{}
	sessions.LoginFn = func(_ context.Context, params services.LoginParams) (*models.Session, error) {
		if params.Password != "secret1" {
			return nil, &api.Error{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
		}
		sessions.session = activeSession
		return activeSession, nil
	}
	router := newTestRouter(sessions, &mockSync{}, "")

	w := do(router, http.MethodPost, "/api/v1/session/login", `{"email":"ada@example.com","password":"wrong12"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	w = do(router, http.MethodPost, "/api/v1/session/login", `{"email":"not-an-email","password":"secret1"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	w = do(router, http.MethodPost, "/api/v1/session/login", `{"email":"ada@example.com","password":"secret1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w = do(router, http.MethodGet, "/api/v1/session", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"Ada"`) {
		t.Errorf("Expected current session, got %d %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodPost, "/api/v1/session/logout", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	w = do(router, http.MethodGet, "/api/v1/session", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 after logout, got %d", w.Code)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	hash, err := argon2id.CreateHash("local-key", argon2id.DefaultParams)
	if err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(&mockSessions{session: activeSession}, &mockSync{}, hash)

	if w := do(router, http.MethodGet, "/api/v1/dashboard", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}
	wrong := http.Header{apiKeyHeader: []string{"other"}}
	if w := do(router, http.MethodGet, "/api/v1/dashboard", "", wrong); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	right := http.Header{apiKeyHeader: []string{"local-key"}}
	w := do(router, http.MethodGet, "/api/v1/dashboard", "", right)
	if w.Code != http.StatusOK || w.Body.String() != `{"streak":4}` {
		t.Errorf("Expected dashboard, got %d %s", w.Code, w.Body.String())
	}
}

type requestKey struct{}

func TestLoginUsesRequestContext(t *testing.T) {
	t.Parallel()

	var got context.Context
	sessions := &mockSessions{}
	sessions.LoginFn = func(ctx context.Context, _ services.LoginParams) (*models.Session, error) {
		got = ctx
		return activeSession, nil
	}
	router := newTestRouter(sessions, &mockSync{}, "")

	body := `{"email":"ada@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), requestKey{}, "login"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if _, ok := got.(*gin.Context); ok {
		t.Errorf("Expected request context, got the gin context")
	}
	if got.Value(requestKey{}) != "login" {
		t.Errorf("Expected request context values, got %v", got.Value(requestKey{}))
	}
}

func TestGetProject(t *testing.T) {
	t.Parallel()

	sync := &mockSync{OpenProjectFn: func(_ context.Context, id string) (*models.Project, error) {
		if id != "p1" {
			return nil, fmt.Errorf("%w: %q", store.ErrProjectNotFound, id)
		}
		return &models.Project{ID: id, Name: "Momentum"}, nil
	}}
	router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

	w := do(router, http.MethodGet, "/api/v1/projects/p1", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"Momentum"`) {
		t.Errorf("Expected project p1, got %d %s", w.Code, w.Body.String())
	}
	if w := do(router, http.MethodGet, "/api/v1/projects/gone", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCloseCurrentGoal(t *testing.T) {
	t.Parallel()

	sync := &mockSync{}
	router := newTestRouter(&mockSessions{session: activeSession}, sync, "")

	w := do(router, http.MethodDelete, "/api/v1/goals/current", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if sync.closedGoals != 1 {
		t.Errorf("Expected goal closed once, got %d", sync.closedGoals)
	}
}
