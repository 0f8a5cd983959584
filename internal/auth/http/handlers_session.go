package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

// Status reports whether the caller holds a valid credential. It never fails
// with a 4xx; unauthenticated callers get authenticated=false.
func (h *Handler) Status(c *gin.Context) {
	p, err := h.guard.Resolve(c)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingToken):
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	case errors.Is(err, domain.ErrInvalidToken):
		h.guard.Cookies().Clear(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("auth status check failed")
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	resp := gin.H{"authenticated": true, "user": p}
	if p.Bypass {
		resp["bypassMode"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSession exchanges a freshly issued ID token for a session cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	if h.guard.BypassEnabled() {
		c.JSON(http.StatusOK, gin.H{"success": true, "bypassMode": true})
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": bindingMessage(err)})
		return
	}

	ctx := c.Request.Context()
	info, err := h.provider.VerifyToken(ctx, req.IDToken, domain.TokenKindID)
	if err != nil {
		h.guard.Cookies().Clear(c)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.ErrInvalidToken.Error()})
		return
	}
	if h.now().Sub(info.AuthTime) > recentSignInWindow {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.ErrStaleSignIn.Error()})
		return
	}
	if h.opts.AdminOnlyAccess && !info.IsAdmin() {
		logger.Ctx(ctx).Warn().Str("uid", info.UID).Msg("session refused: admin-only access")
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": domain.ErrAdminRequired.Error()})
		return
	}

	cookie, err := h.provider.CreateSessionCookie(ctx, req.IDToken, h.opts.SessionTTL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			h.guard.Cookies().Clear(c)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.ErrInvalidToken.Error()})
			return
		}
		logger.Ctx(ctx).Error().Err(err).Str("uid", info.UID).Msg("failed to create session cookie")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create session"})
		return
	}

	h.guard.Cookies().Set(c, cookie)
	h.admin.RecordLogin(ctx, *info)

	c.JSON(http.StatusOK, gin.H{"success": true, "user": domain.PrincipalFromToken(*info)})
}

// DeleteSession clears the cookie and revokes refresh tokens when the caller
// can still be identified.
func (h *Handler) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	if p, err := h.guard.Resolve(c); err == nil && !p.Bypass {
		if err := h.provider.RevokeRefreshTokens(ctx, p.UID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("uid", p.UID).Msg("failed to revoke refresh tokens")
		}
	}

	h.guard.Cookies().Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
