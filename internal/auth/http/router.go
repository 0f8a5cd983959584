package http

import "github.com/gin-gonic/gin"

// Register mounts the admin and auth endpoints under api. limited wraps the
// routes that mint sessions or mutate users.
func (h *Handler) Register(api *gin.RouterGroup, limited gin.HandlerFunc) {
	useJSONFieldNames()

	admin := api.Group("/admin", limited, h.guard.RequireAdmin())
	admin.POST("/add-user", h.AddUser)
	admin.DELETE("/delete-user", h.DeleteUser)
	admin.POST("/update-role", h.UpdateRole)
	admin.GET("/users", h.ListUsers)
	admin.GET("/user-stats", h.UserStats)

	authGroup := api.Group("/auth")
	authGroup.GET("/status", h.Status)
	authGroup.POST("/session", limited, h.CreateSession)
	authGroup.DELETE("/session", h.DeleteSession)
}

// RegisterPages mounts the server-rendered shell pages.
func (h *Handler) RegisterPages(r gin.IRouter) {
	r.GET("/admin", h.AdminPage)
	r.GET("/login", h.LoginPage)
}
