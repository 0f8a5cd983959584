package authclient

import (
	"net/url"
	"time"
)

// DefaultRedirectDelay keeps a flapping state from bouncing between pages.
const DefaultRedirectDelay = 100 * time.Millisecond

type Action int

const (
	ActionSpinner Action = iota
	ActionRedirect
	ActionRender
)

func (a Action) String() string {
	switch a {
	case ActionSpinner:
		return "spinner"
	case ActionRedirect:
		return "redirect"
	case ActionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decision tells the caller what to show. Location and Delay are only set
// for ActionRedirect.
type Decision struct {
	Action   Action
	Location string
	Delay    time.Duration
}

// Gate guards a protected screen.
type Gate struct {
	RequireAdmin bool
	LoginPath    string
	Delay        time.Duration
}

func NewGate(requireAdmin bool) Gate {
	return Gate{RequireAdmin: requireAdmin, LoginPath: "/login", Delay: DefaultRedirectDelay}
}

// Decide maps state to spinner, redirect or render. Redirects keep the
// requested path so login can send the user back.
func (g Gate) Decide(s State, requestedPath string) Decision {
	switch {
	case s.Loading:
		return Decision{Action: ActionSpinner}
	case s.BypassMode:
		return Decision{Action: ActionRender}
	case !s.Authenticated(), g.RequireAdmin && !s.IsAdmin:
		return Decision{
			Action:   ActionRedirect,
			Location: g.loginURL(requestedPath),
			Delay:    g.Delay,
		}
	default:
		return Decision{Action: ActionRender}
	}
}

func (g Gate) loginURL(requestedPath string) string {
	login := g.LoginPath
	if login == "" {
		login = "/login"
	}
	if requestedPath == "" {
		return login
	}
	return login + "?redirect=" + url.QueryEscape(requestedPath)
}
