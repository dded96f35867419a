package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/models"
)

type fakeAuth struct {
	token        string
	unauthorized atomic.Int32
}

func (a *fakeAuth) Token() string { return a.token }

func (a *fakeAuth) Unauthorized() { a.unauthorized.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeAuth) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	auth := &fakeAuth{token: "secret"}
	client := New(zerolog.Nop(), server.URL+"/", 5*time.Second)
	client.SetAuthenticator(auth)
	return client, auth
}

func TestClientSendsBearerAndDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer header, got %q", got)
		}
		if r.URL.Path != "/api/tasks" || r.URL.Query().Get("project") != "p1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":[{"_id":"t1","title":"A","status":"todo","project":{"_id":"p1","name":"Momentum"}}]}`)
	})

	tasks, err := client.ListTasks(context.Background(), ListTasksParams{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Project.ID != "p1" || tasks[0].Project.Project == nil || tasks[0].Project.Project.Name != "Momentum" {
		t.Errorf("Expected embedded project, got %+v", tasks[0].Project)
	}
}

func TestClientDecodesBareEntity(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/tasks/t1/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != models.StatusDone {
			t.Errorf("Expected status done in body, got %v", body)
		}
		_, _ = io.WriteString(w, `{"_id":"t1","title":"A","status":"done","project":"p1"}`)
	})

	task, err := client.UpdateTaskStatus(context.Background(), "t1", models.StatusDone)
	if err != nil {
		t.Fatalf("UpdateTaskStatus failed: %v", err)
	}
	if task.Status != models.StatusDone || task.Project.ID != "p1" {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestClientUnauthorizedCallsHookOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"token expired"}`)
	})

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "token expired" {
		t.Errorf("Expected message 'token expired', got %v", err)
	}
	if got := auth.unauthorized.Load(); got != 1 {
		t.Errorf("Expected 1 unauthorized call, got %d", got)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected no retry, got %d requests", got)
	}
}

func TestClientPublicCallsSkipAuth(t *testing.T) {
	t.Parallel()

	client, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Expected no authorization header on login")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid credentials"}`)
	})

	_, err := client.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}
	if got := auth.unauthorized.Load(); got != 0 {
		t.Errorf("Expected login failure not to force logout, got %d calls", got)
	}
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.DeleteGoal(context.Background(), "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetDashboardPassesThrough(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"tasksDone":3,"streak":7}}`)
	})

	dashboard, err := client.GetDashboard(context.Background())
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(dashboard, &got); err != nil {
		t.Fatal(err)
	}
	if got["tasksDone"] != 3 || got["streak"] != 7 {
		t.Errorf("unexpected dashboard %v", got)
	}
}

func TestNewGoalProgressInput(t *testing.T) {
	t.Parallel()

	value := 12.5
	in := NewGoalProgressInput(models.Goal{Type: models.GoalTypeNumeric, CurrentValue: &value})
	if in.CurrentValue == nil || *in.CurrentValue != 12.5 || in.Steps != nil || in.Completed != nil {
		t.Errorf("unexpected numeric input %+v", in)
	}

	done := true
	in = NewGoalProgressInput(models.Goal{Type: models.GoalTypeSimple, Completed: &done})
	if in.Completed == nil || !*in.Completed || in.CurrentValue != nil {
		t.Errorf("unexpected simple input %+v", in)
	}
}
