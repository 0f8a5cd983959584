package auth

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

const (
	BypassUID    = "dev-bypass-admin"
	BypassEmail  = "admin@localhost"
	BypassHeader = "X-Auth-Bypass"
)

// BypassPrincipal is the fixed admin injected when BYPASS_AUTH is on.
func BypassPrincipal() domain.Principal {
	now := time.Now().UTC()
	return domain.Principal{
		UID:           BypassUID,
		Email:         BypassEmail,
		EmailVerified: true,
		Admin:         true,
		Role:          domain.RoleAdmin,
		AuthTime:      now,
		ExpiresAt:     now.Add(time.Hour),
		Bypass:        true,
	}
}

// BypassIndicator marks every response while bypass mode is on. It is a
// no-op when enabled is false.
func BypassIndicator(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled {
			c.Header(BypassHeader, "active")
		}
		c.Next()
	}
}
