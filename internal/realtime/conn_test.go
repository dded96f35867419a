package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// testServer upgrades every request, records join frames and hands the
// server side of each connection to the test. The first rejects requests
// are answered with 503 instead.
type testServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	rejects  atomic.Int32

	mu    sync.Mutex
	joins []string
	auths []string
}

func newTestServer(t *testing.T) (*testServer, string) {
	t.Helper()
	ts := &testServer{t: t, conns: make(chan *websocket.Conn, 4)}
	server := httptest.NewServer(ts)
	t.Cleanup(server.Close)
	return ts, "ws" + strings.TrimPrefix(server.URL, "http")
}

func (ts *testServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ts.rejects.Add(-1) >= 0 {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ts.t.Errorf("upgrade failed: %v", err)
		return
	}

	var frame Frame
	if err := ws.ReadJSON(&frame); err != nil {
		ts.t.Errorf("failed to read join: %v", err)
		return
	}
	var join joinPayload
	_ = json.Unmarshal(frame.Data, &join)

	ts.mu.Lock()
	if frame.Event == EventJoin {
		ts.joins = append(ts.joins, join.UserID)
	}
	ts.auths = append(ts.auths, r.Header.Get("Authorization"))
	ts.mu.Unlock()

	ts.conns <- ws
}

func (ts *testServer) next(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-ts.conns:
		return ws
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func send(t *testing.T, ws *websocket.Conn, event string, data string) {
	t.Helper()
	if err := ws.WriteJSON(Frame{Event: event, Data: json.RawMessage(data)}); err != nil {
		t.Fatalf("failed to send %s: %v", event, err)
	}
}

func TestConnDispatchesEvents(t *testing.T) {
	ts, url := newTestServer(t)
	conn := New(zerolog.Nop(), url, Options{ReconnectDelay: 10 * time.Millisecond})

	got := make(chan string, 4)
	conn.On(EventTaskUpdated, func(_ context.Context, payload json.RawMessage) {
		got <- string(payload)
	})

	if err := conn.Connect(context.Background(), "tok", "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Disconnect()

	if err := conn.Connect(context.Background(), "tok", "u1"); err != ErrAlreadyConnected {
		t.Errorf("Expected ErrAlreadyConnected, got %v", err)
	}

	ws := ts.next(t)
	send(t, ws, "unknown-event", `{}`)
	send(t, ws, EventTaskUpdated, `{"_id":"t1"}`)

	select {
	case payload := <-got:
		if payload != `{"_id":"t1"}` {
			t.Errorf("unexpected payload %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.joins) != 1 || ts.joins[0] != "u1" {
		t.Errorf("Expected join for u1, got %v", ts.joins)
	}
	if ts.auths[0] != "Bearer tok" {
		t.Errorf("Expected bearer header, got %q", ts.auths[0])
	}
}

func TestConnReconnectsAndRunsHook(t *testing.T) {
	ts, url := newTestServer(t)
	conn := New(zerolog.Nop(), url, Options{
		ReconnectDelay:    10 * time.Millisecond,
		MaxReconnectDelay: 50 * time.Millisecond,
	})

	reconnected := make(chan struct{}, 1)
	conn.OnReconnect(func(context.Context) {
		reconnected <- struct{}{}
	})
	got := make(chan string, 1)
	conn.On(EventGoalUpdated, func(_ context.Context, payload json.RawMessage) {
		got <- string(payload)
	})

	if err := conn.Connect(context.Background(), "tok", "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Disconnect()

	first := ts.next(t)
	_ = first.Close()

	second := ts.next(t)
	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect hook")
	}

	send(t, second, EventGoalUpdated, `{"_id":"g1"}`)
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event after reconnect")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.joins) != 2 {
		t.Errorf("Expected room rejoined, got joins %v", ts.joins)
	}
}

func TestDisconnectStopsDispatch(t *testing.T) {
	ts, url := newTestServer(t)
	conn := New(zerolog.Nop(), url, Options{ReconnectDelay: 10 * time.Millisecond})

	if err := conn.Connect(context.Background(), "", "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	ts.next(t)
	done := conn.Done()

	conn.Disconnect()
	if conn.Connected() {
		t.Errorf("Expected disconnected")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch loop did not exit")
	}

	// second disconnect is a no-op
	conn.Disconnect()

	conn.On(EventTaskCreated, func(context.Context, json.RawMessage) {})
	conn.OffAll()
	conn.mu.RLock()
	defer conn.mu.RUnlock()
	if len(conn.handlers) != 0 || conn.onReconnect != nil {
		t.Errorf("Expected handlers cleared")
	}
}

type callerKey struct{}

func TestConnOutlivesConnectContext(t *testing.T) {
	ts, url := newTestServer(t)
	conn := New(zerolog.Nop(), url, Options{ReconnectDelay: 10 * time.Millisecond})

	hookCtx := make(chan context.Context, 1)
	conn.OnReconnect(func(ctx context.Context) {
		hookCtx <- ctx
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), callerKey{}, "request"))
	if err := conn.Connect(ctx, "tok", "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Disconnect()
	cancel()

	first := ts.next(t)
	_ = first.Close()
	ts.next(t)

	select {
	case got := <-hookCtx:
		if got.Err() != nil {
			t.Errorf("Expected live context after caller cancel, got %v", got.Err())
		}
		if got.Value(callerKey{}) != nil {
			t.Errorf("Expected no caller values, got %v", got.Value(callerKey{}))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect hook")
	}
}

func TestConnRetriesFailedFirstDial(t *testing.T) {
	ts, url := newTestServer(t)
	ts.rejects.Store(2)
	conn := New(zerolog.Nop(), url, Options{
		ReconnectDelay:    10 * time.Millisecond,
		MaxReconnectDelay: 20 * time.Millisecond,
	})

	reconnected := make(chan struct{}, 1)
	conn.OnReconnect(func(context.Context) {
		reconnected <- struct{}{}
	})
	got := make(chan string, 1)
	conn.On(EventTaskCreated, func(_ context.Context, payload json.RawMessage) {
		got <- string(payload)
	})

	if err := conn.Connect(context.Background(), "tok", "u1"); err == nil {
		t.Fatal("Expected first dial to fail")
	}
	defer conn.Disconnect()
	if !conn.Connected() {
		t.Errorf("Expected connection kept after failed first dial")
	}

	ws := ts.next(t)
	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect hook")
	}

	send(t, ws, EventTaskCreated, `{"_id":"t1"}`)
	select {
	case payload := <-got:
		if payload != `{"_id":"t1"}` {
			t.Errorf("unexpected payload %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	if n := ts.rejects.Load(); n >= 0 {
		t.Errorf("Expected both rejections consumed, got %d left", n)
	}
}

func TestDisconnectStopsRetrying(t *testing.T) {
	ts, url := newTestServer(t)
	ts.rejects.Store(1 << 20)
	conn := New(zerolog.Nop(), url, Options{ReconnectDelay: 5 * time.Millisecond})

	if err := conn.Connect(context.Background(), "", "u1"); err == nil {
		t.Fatal("Expected first dial to fail")
	}
	done := conn.Done()

	conn.Disconnect()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not exit")
	}
}
