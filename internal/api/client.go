// Package api is a client for the Momentum REST API. Every call returns the
// full entity snapshot the server answered with.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxResponseSize = 8 << 20

// Authenticator supplies the bearer token and is told when the server
// rejects it.
type Authenticator interface {
	Token() string
	// Unauthorized is called at most once per rejected request.
	Unauthorized()
}

type Client struct {
	logger     zerolog.Logger
	baseURL    string
	httpClient *http.Client

	mu   sync.RWMutex
	auth Authenticator
}

func New(logger zerolog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetAuthenticator(auth Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.auth = auth
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.auth
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// dataEnvelope matches answers of the form {"success": true, "data": ...}.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type request struct {
	method string
	path   string
	body   any
	out    any
	public bool
}

func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	auth := c.authenticator()
	if !r.public && auth != nil {
		if token := auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", r.method).
			Str("path", r.path).
			Msg("api request failed")
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request done")

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(payload, &errResp) == nil {
			apiErr.Message = errResp.Message
			if apiErr.Message == "" {
				apiErr.Message = errResp.Error
			}
		}

		if resp.StatusCode == http.StatusUnauthorized && !r.public && auth != nil {
			c.logger.Warn().
				Str("path", r.path).
				Msg("token rejected by api")
			auth.Unauthorized()
		}
		return apiErr
	}

	if r.out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	var envelope dataEnvelope
	if json.Unmarshal(payload, &envelope) == nil && len(envelope.Data) > 0 {
		payload = envelope.Data
	}
	if err := json.Unmarshal(payload, r.out); err != nil {
		c.logger.Error().
			Err(err).
			Str("path", r.path).
			Msg("failed to decode api response")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
