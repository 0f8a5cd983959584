package http

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/brightpixel/agency-backend/internal/authclient"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type adminPage struct {
	User   *authclient.User
	Bypass bool
}

type loginPage struct {
	Redirect  string
	APIKey    string
	ProjectID string
}

// AdminPage applies the protected-route gate on the server: callers without
// a session are redirected to login with the requested path preserved.
func (h *Handler) AdminPage(c *gin.Context) {
	state := authclient.State{}
	if p, err := h.guard.Resolve(c); err == nil {
		state = authclient.State{
			User: &authclient.User{
				UID:           p.UID,
				Email:         p.Email,
				EmailVerified: p.EmailVerified,
				IsAdmin:       p.Admin,
				Role:          string(p.Role),
			},
			IsAdmin:    p.Admin,
			BypassMode: p.Bypass,
		}
	}

	gate := authclient.NewGate(true)
	d := gate.Decide(state, c.Request.URL.RequestURI())
	if d.Action == authclient.ActionRedirect {
		c.Redirect(http.StatusFound, d.Location)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplates,
		Name:     "admin.html",
		Data:     adminPage{User: state.User, Bypass: state.BypassMode},
	})
}

func (h *Handler) LoginPage(c *gin.Context) {
	redirect := c.Query("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = "/admin"
	}

	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplates,
		Name:     "login.html",
		Data: loginPage{
			Redirect:  redirect,
			APIKey:    h.opts.PublicAPIKey,
			ProjectID: h.opts.PublicProjectID,
		},
	})
}
