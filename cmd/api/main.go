package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightpixel/agency-backend/config"
	cronjob "github.com/brightpixel/agency-backend/internal/auth/cron"
	"github.com/brightpixel/agency-backend/internal/auth/service"
	"github.com/brightpixel/agency-backend/internal/bootstrap"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

const serviceName = "agency-auth"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{Level: "info"})
		log := logger.Get()
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Options{
		Level:  cfg.App.LogLevel,
		Pretty: !cfg.IsProduction(),
	})
	log := logger.Get()

	bootstrap.SetGinMode(cfg.App.Environment)

	if cfg.Auth.BypassAuth {
		log.Warn().Msg("authentication bypass is ENABLED: every request is treated as an administrator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	svcs, err := bootstrap.OpenServices(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close directory")
		}
	}()

	router, stopRouter := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		Provider:    svcs.Provider,
		Directory:   svcs.Directory.Store,
	})
	defer stopRouter()

	var scheduler *cronjob.Scheduler
	if cfg.Jobs.DriftAuditSchedule != "" {
		scheduler = cronjob.NewScheduler(service.NewAdminService(svcs.Provider, svcs.Directory.Store), cfg.Jobs.DriftAuditSchedule)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start drift audit")
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("environment", cfg.App.Environment).
			Str("directory", cfg.Directory.Backend).
			Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("server stopped")
}
