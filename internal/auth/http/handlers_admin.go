package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/internal/metrics"
)

// AddUser grants a role to an account by email, optionally creating it.
func (h *Handler) AddUser(c *gin.Context) {
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "add_user", bindingMessage(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	user, err := h.admin.AddUser(c.Request.Context(), actor, domain.AddUserRequest{
		Email:         req.Email,
		Name:          req.Name,
		Role:          req.Role,
		CreateAccount: req.CreateAccount,
	})
	if err != nil {
		respondError(c, "add_user", err)
		return
	}

	metrics.RecordAdminOperation("add_user", "ok")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User " + user.Email + " added as " + string(user.Role),
		"user":    user,
	})
}

// DeleteUser reads the uid from the JSON body, falling back to ?uid=.
func (h *Handler) DeleteUser(c *gin.Context) {
	var req deleteUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "delete_user", "invalid request body")
			return
		}
	}
	if strings.TrimSpace(req.UID) == "" {
		req.UID = c.Query("uid")
	}
	if strings.TrimSpace(req.UID) == "" {
		badRequest(c, "delete_user", "uid is required")
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	if err := h.admin.DeleteUser(c.Request.Context(), actor, req.UID); err != nil {
		respondError(c, "delete_user", err)
		return
	}

	metrics.RecordAdminOperation("delete_user", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}

func (h *Handler) UpdateRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "update_role", bindingMessage(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	user, err := h.admin.UpdateRole(c.Request.Context(), actor, req.UID, req.Role)
	if err != nil {
		respondError(c, "update_role", err)
		return
	}

	metrics.RecordAdminOperation("update_role", "ok")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Role updated to " + string(user.Role),
		"user":    user,
	})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, "list_users", err)
		return
	}

	metrics.RecordAdminOperation("list_users", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

func (h *Handler) UserStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "user_stats", err)
		return
	}

	metrics.RecordAdminOperation("user_stats", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
