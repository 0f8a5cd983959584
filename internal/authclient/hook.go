// Package authclient is the client side of the session gate: a Hook that
// loads the caller's auth state from /api/auth/status once, and a Gate that
// turns that state into a render-or-redirect decision.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const statusPath = "/api/auth/status"

// User is the caller as reported by the status endpoint.
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	IsAdmin       bool   `json:"isAdmin"`
	Role          string `json:"role"`
}

// State is the shared auth state. Loading is true until the first Load
// completes.
type State struct {
	User       *User
	Loading    bool
	IsAdmin    bool
	Err        error
	BypassMode bool
}

func (s State) Authenticated() bool {
	return s.User != nil
}

type statusResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
	BypassMode    bool  `json:"bypassMode,omitempty"`
}

// Hook holds the state for one client session. It queries the server once
// and never polls.
type Hook struct {
	baseURL string
	client  *http.Client
	bearer  string
	bypass  bool

	once  sync.Once
	mu    sync.RWMutex
	state State
}

type Option func(*Hook)

// WithHTTPClient sets the client used for the status call. Pass a client
// with a cookie jar to forward the session cookie.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Hook) { h.client = c }
}

// WithBearer sends an ID token as Authorization: Bearer.
func WithBearer(token string) Option {
	return func(h *Hook) { h.bearer = token }
}

// WithBypass substitutes the mock admin without contacting the server.
func WithBypass(enabled bool) Option {
	return func(h *Hook) { h.bypass = enabled }
}

func NewHook(baseURL string, opts ...Option) *Hook {
	h := &Hook{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		state:   State{Loading: true},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns a snapshot of the current state.
func (h *Hook) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Load performs the status check on first call and returns the resulting
// state. Later calls return the stored state without a request.
func (h *Hook) Load(ctx context.Context) State {
	h.once.Do(func() {
		next := h.fetch(ctx)
		h.mu.Lock()
		h.state = next
		h.mu.Unlock()
	})
	return h.State()
}

func (h *Hook) fetch(ctx context.Context) State {
	if h.bypass {
		return bypassState()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+statusPath, nil)
	if err != nil {
		return State{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if h.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+h.bearer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return State{Err: fmt.Errorf("auth status: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return State{Err: fmt.Errorf("auth status: unexpected status %d", resp.StatusCode)}
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return State{Err: fmt.Errorf("auth status: decode: %w", err)}
	}

	if !body.Authenticated || body.User == nil {
		return State{}
	}
	return State{
		User:       body.User,
		IsAdmin:    body.User.IsAdmin || body.BypassMode,
		BypassMode: body.BypassMode,
	}
}

func bypassState() State {
	return State{
		User: &User{
			UID:           "dev-bypass-admin",
			Email:         "admin@localhost",
			EmailVerified: true,
			IsAdmin:       true,
			Role:          "admin",
		},
		IsAdmin:    true,
		BypassMode: true,
	}
}
