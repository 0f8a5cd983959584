package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/internal/metrics"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

// Guard is the single session gate. It resolves the caller from a Bearer ID
// token or the session cookie and places a domain.Principal on the context.
type Guard struct {
	provider auth.Provider
	cookies  auth.SessionCookies
	bypass   bool
}

func NewGuard(provider auth.Provider, cookies auth.SessionCookies, bypass bool) *Guard {
	return &Guard{provider: provider, cookies: cookies, bypass: bypass}
}

func (g *Guard) BypassEnabled() bool {
	return g.bypass
}

func (g *Guard) Cookies() auth.SessionCookies {
	return g.cookies
}

// Resolve verifies the request credentials. It returns domain.ErrMissingToken
// when nothing was presented and domain.ErrInvalidToken when verification
// failed. In bypass mode it always returns the mock admin.
func (g *Guard) Resolve(c *gin.Context) (domain.Principal, error) {
	if g.bypass {
		return auth.BypassPrincipal(), nil
	}

	token, kind := g.cookies.ExtractToken(c)
	if token == "" {
		return domain.Principal{}, domain.ErrMissingToken
	}

	info, err := g.provider.VerifyToken(c.Request.Context(), token, kind)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.PrincipalFromToken(*info), nil
}

// Authenticate rejects requests without a valid credential.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose verified token lacks the admin claim.
// The directory's isAdmin flag is never consulted.
func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := g.authenticate(c)
		if !ok {
			return
		}
		if !p.Admin {
			metrics.RecordDecision("forbidden")
			logger.Ctx(c.Request.Context()).Warn().
				Str("uid", p.UID).
				Str("path", c.FullPath()).
				Msg("admin route denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": domain.ErrAdminRequired.Error()})
			return
		}
		c.Next()
	}
}

func (g *Guard) authenticate(c *gin.Context) (domain.Principal, bool) {
	p, err := g.Resolve(c)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingToken):
		metrics.RecordDecision("missing_token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.ErrMissingToken.Error()})
		return p, false
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.RecordDecision("invalid_token")
		logger.Ctx(c.Request.Context()).Debug().Err(err).Msg("token verification failed")
		g.cookies.Clear(c)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.ErrInvalidToken.Error()})
		return p, false
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("token verification error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
		return p, false
	}

	if p.Bypass {
		metrics.RecordDecision("bypass")
	} else {
		metrics.RecordDecision("authenticated")
	}
	auth.SetPrincipal(c, p)
	return p, true
}
