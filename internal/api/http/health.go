package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Directory string    `json:"directory,omitempty"`
	Bypass    bool      `json:"bypassMode,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	directory   Pinger
	bypass      bool
}

func NewHealthHandler(serviceName, version string, directory Pinger, bypass bool) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		directory:   directory,
		bypass:      bypass,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dirStatus := "disabled"
	status := "healthy"
	if h.directory != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.directory.Ping(pingCtx); err != nil {
			dirStatus = "down"
			status = "degraded"
		} else {
			dirStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Directory: dirStatus,
		Bypass:    h.bypass,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
