package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brightpixel/agency-backend/config"
	cronjob "github.com/brightpixel/agency-backend/internal/auth/cron"
	"github.com/brightpixel/agency-backend/internal/auth/service"
	"github.com/brightpixel/agency-backend/internal/bootstrap"
	"github.com/brightpixel/agency-backend/internal/storage/postgres"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: worker <drift|migrate>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Options{Level: cfg.App.LogLevel, Pretty: !cfg.IsProduction()})
	log := logger.Get()

	switch os.Args[1] {
	case "drift":
		if err := runDrift(cfg); err != nil {
			log.Fatal().Err(err).Msg("drift audit failed")
		}
	case "migrate":
		if cfg.Database.URL == "" {
			log.Fatal().Msg("DATABASE_URL is required")
		}
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("migrations applied")
	default:
		log.Fatal().Str("command", os.Args[1]).Msg("unknown command")
	}
}

func runDrift(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svcs, err := bootstrap.OpenServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	scheduler := cronjob.NewScheduler(service.NewAdminService(svcs.Provider, svcs.Directory.Store), cfg.Jobs.DriftAuditSchedule)
	_, err = scheduler.RunOnce(ctx)
	return err
}
