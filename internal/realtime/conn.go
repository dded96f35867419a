// Package realtime maintains the push channel to the Momentum backend.
//
// A Conn is owned by whoever starts the session; there is no package-level
// connection. Events are dispatched one at a time in arrival order from a
// single goroutine. Nothing is replayed after a drop: the reconnect hook is
// the place to resynchronize.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var ErrAlreadyConnected = errors.New("realtime connection already established")

// Handler receives the raw payload of one event.
type Handler func(ctx context.Context, payload json.RawMessage)

type Options struct {
	HandshakeTimeout  time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

type Conn struct {
	logger zerolog.Logger
	url    string
	dialer *websocket.Dialer
	opts   Options

	mu          sync.RWMutex
	handlers    map[string]Handler
	onReconnect func(ctx context.Context)

	lifeMu sync.Mutex
	link   *link
}

// link is one Connect..Disconnect lifetime, surviving reconnects.
type link struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
	ws *websocket.Conn
}

func (l *link) setWS(ws *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ws = ws
}

func (l *link) close() {
	l.cancel()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ws != nil {
		_ = l.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
			time.Now().Add(time.Second),
		)
		_ = l.ws.Close()
	}
}

func New(logger zerolog.Logger, url string, opts Options) *Conn {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.MaxReconnectDelay < opts.ReconnectDelay {
		opts.MaxReconnectDelay = opts.ReconnectDelay
	}
	return &Conn{
		logger: logger,
		url:    url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		opts:     opts,
		handlers: make(map[string]Handler),
	}
}

// On registers the handler for an event, replacing any previous one.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[event] = h
}

// OffAll unregisters every event handler and the reconnect hook.
func (c *Conn) OffAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.handlers)
	c.onReconnect = nil
}

// OnReconnect sets the hook run after the connection was re-established
// and the room rejoined, before any further event is dispatched.
func (c *Conn) OnReconnect(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onReconnect = fn
}

// Connect dials the server, joins the user's room and starts dispatching.
// ctx bounds the first dial only; the connection ends with Disconnect.
//
// When the first dial fails the error is returned, but the connection stays
// established and keeps redialing with backoff. The reconnect hook runs once
// it gets through.
func (c *Conn) Connect(ctx context.Context, token, userID string) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.link != nil {
		return ErrAlreadyConnected
	}

	ws, err := c.dial(ctx, token, userID)

	loopCtx, cancel := context.WithCancel(context.Background())
	l := &link{
		cancel: cancel,
		done:   make(chan struct{}),
		ws:     ws,
	}
	c.link = l

	go c.run(loopCtx, l, ws, token, userID)

	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("realtime channel unavailable, retrying in background")
		return err
	}
	return nil
}

// Disconnect closes the connection and stops dispatching. It does not wait
// for an event handler that is already running, so it is safe to call from
// inside one. It is a no-op when not connected.
func (c *Conn) Disconnect() {
	c.lifeMu.Lock()
	l := c.link
	c.link = nil
	c.lifeMu.Unlock()

	if l == nil {
		return
	}
	l.close()
	c.logger.Info().Msg("disconnected from realtime channel")
}

// Done is closed once the dispatch loop of the current connection exits.
// It returns nil when not connected.
func (c *Conn) Done() <-chan struct{} {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.link == nil {
		return nil
	}
	return c.link.done
}

func (c *Conn) Connected() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	return c.link != nil
}

func (c *Conn) dial(ctx context.Context, token, userID string) (*websocket.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("url", c.url).
			Msg("failed to dial realtime channel")
		return nil, err
	}

	data, err := json.Marshal(joinPayload{UserID: userID})
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	err = ws.WriteJSON(Frame{Event: EventJoin, Data: data})
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to join user room")
		_ = ws.Close()
		return nil, err
	}

	c.logger.Info().
		Str("user_id", userID).
		Msg("joined realtime room")
	return ws, nil
}

// run dispatches events of ws until it drops, then redials. A nil ws means
// the first dial failed.
func (c *Conn) run(ctx context.Context, l *link, ws *websocket.Conn, token, userID string) {
	defer close(l.done)

	for {
		if ws != nil {
			err := c.read(ctx, ws)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().
				Err(err).
				Msg("realtime connection dropped")
			_ = ws.Close()
			l.setWS(nil)
		}

		ws = c.redial(ctx, token, userID)
		if ws == nil {
			return
		}
		l.setWS(ws)
		// close may have run between redial and setWS
		if ctx.Err() != nil {
			_ = ws.Close()
			return
		}

		c.mu.RLock()
		hook := c.onReconnect
		c.mu.RUnlock()
		if hook != nil {
			hook(ctx)
		}
	}
}

// redial waits out an exponential backoff between attempts until a dial
// succeeds. It returns nil once ctx is done.
func (c *Conn) redial(ctx context.Context, token, userID string) *websocket.Conn {
	b := backoff.WithContext(c.newBackOff(), ctx)
	for {
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		ws, err := c.dial(ctx, token, userID)
		if err == nil {
			c.logger.Info().Msg("reconnected to realtime channel")
			return ws
		}
		c.logger.Debug().
			Err(err).
			Msg("retrying realtime connection")
	}
}

func (c *Conn) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.ReconnectDelay
	b.MaxInterval = c.opts.MaxReconnectDelay
	// retry until Disconnect
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Conn) read(ctx context.Context, ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn().
				Err(err).
				Msg("dropping malformed realtime frame")
			continue
		}

		c.mu.RLock()
		handler, ok := c.handlers[frame.Event]
		c.mu.RUnlock()
		if !ok {
			c.logger.Debug().
				Str("event", frame.Event).
				Msg("no handler for realtime event")
			continue
		}

		c.logger.Debug().
			Str("event", frame.Event).
			Msg("dispatching realtime event")
		handler(ctx, frame.Data)
	}
}
