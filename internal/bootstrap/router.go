package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/brightpixel/agency-backend/config"
	httpapi "github.com/brightpixel/agency-backend/internal/api/http"
	"github.com/brightpixel/agency-backend/internal/api/http/middleware"
	"github.com/brightpixel/agency-backend/internal/auth"
	authhttp "github.com/brightpixel/agency-backend/internal/auth/http"
	authmw "github.com/brightpixel/agency-backend/internal/auth/middleware"
	"github.com/brightpixel/agency-backend/internal/auth/repository"
	"github.com/brightpixel/agency-backend/internal/auth/service"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	Provider    auth.Provider
	Directory   repository.DirectoryStore
}

// BuildRouter wires every route. The returned func stops background work
// owned by the router.
func BuildRouter(dep RouterDeps) (*gin.Engine, func()) {
	cfg := dep.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(auth.BypassIndicator(cfg.Auth.BypassAuth))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, auth.BypassHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, cfg.App.Version, dep.Directory, cfg.Auth.BypassAuth)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.RPS),
		Burst: cfg.RateLimit.Burst,
	})

	cookies := auth.SessionCookies{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.SessionTTL,
	}
	guard := authmw.NewGuard(dep.Provider, cookies, cfg.Auth.BypassAuth)
	adminService := service.NewAdminService(dep.Provider, dep.Directory)

	authHandler := authhttp.New(adminService, dep.Provider, guard, authhttp.Options{
		AdminOnlyAccess: cfg.Auth.AdminOnlyAccess,
		SessionTTL:      cfg.Auth.SessionTTL,
		PublicAPIKey:    cfg.Firebase.PublicAPIKey,
		PublicProjectID: cfg.Firebase.PublicProjectID,
	})
	authHandler.Register(r.Group("/api"), limiter.Middleware())
	authHandler.RegisterPages(r)

	return r, limiter.Stop
}
