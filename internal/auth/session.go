package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

// SessionCookies writes and clears the session cookie carrying the
// provider-minted session token.
type SessionCookies struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (s SessionCookies) Set(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, value, int(s.TTL.Seconds()), "/", "", s.Secure, true)
}

func (s SessionCookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// ExtractToken prefers a Bearer ID token and falls back to the session cookie.
func (s SessionCookies) ExtractToken(c *gin.Context) (string, domain.TokenKind) {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		if tok := strings.TrimSpace(bearerToken[7:]); tok != "" {
			return tok, domain.TokenKindID
		}
	}
	if cookie, err := c.Cookie(s.Name); err == nil && cookie != "" {
		return cookie, domain.TokenKindSessionCookie
	}
	return "", domain.TokenKindID
}
