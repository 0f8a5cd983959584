package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

const CtxPrincipal = "auth_principal"

// SetPrincipal stores the authenticated caller on the gin context.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(CtxPrincipal, p)
}

// PrincipalFrom returns the caller placed by the guard, if any.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

