package http

import (
	"time"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/middleware"
	"github.com/brightpixel/agency-backend/internal/auth/service"
)

// recentSignInWindow bounds how old an ID token's sign-in may be when it is
// exchanged for a session cookie.
const recentSignInWindow = 5 * time.Minute

type Options struct {
	AdminOnlyAccess bool
	SessionTTL      time.Duration
	PublicAPIKey    string
	PublicProjectID string
}

type Handler struct {
	admin    *service.AdminService
	provider auth.Provider
	guard    *middleware.Guard
	opts     Options
	now      func() time.Time
}

func New(admin *service.AdminService, provider auth.Provider, guard *middleware.Guard, opts Options) *Handler {
	return &Handler{
		admin:    admin,
		provider: provider,
		guard:    guard,
		opts:     opts,
		now:      time.Now,
	}
}

type addUserRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CreateAccount bool   `json:"createAccount"`
}

type deleteUserRequest struct {
	UID string `json:"uid" form:"uid"`
}

type updateRoleRequest struct {
	UID  string `json:"uid" binding:"required"`
	Role string `json:"role" binding:"required"`
}

type createSessionRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}
