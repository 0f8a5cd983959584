package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

// DriftAuditor compares the identity provider with the directory.
type DriftAuditor interface {
	Drift(ctx context.Context) (*domain.DriftReport, error)
}

// Scheduler runs the read-only drift audit on a cron schedule with seconds.
type Scheduler struct {
	auditor DriftAuditor
	spec    string
	timeout time.Duration
	c       *cron.Cron
}

func NewScheduler(auditor DriftAuditor, spec string) *Scheduler {
	return &Scheduler{
		auditor: auditor,
		spec:    spec,
		timeout: 2 * time.Minute,
		c:       cron.New(cron.WithSeconds()),
	}
}

// Start registers the audit and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.c.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_, _ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid drift audit schedule %q: %w", s.spec, err)
	}

	logger.Get().Info().Str("schedule", s.spec).Msg("drift audit scheduler started")
	s.c.Start()
	return nil
}

// Stop waits for a running audit to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one audit and logs the result.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.DriftReport, error) {
	log := logger.Get()
	start := time.Now()

	report, err := s.auditor.Drift(ctx)
	if err != nil {
		log.Error().Err(err).Msg("drift audit failed")
		return nil, err
	}

	evt := log.Info()
	if len(report.ProviderOnly)+len(report.DirectoryOnly)+len(report.RoleMismatch) > 0 {
		evt = log.Warn()
	}
	evt.
		Int("provider_only", len(report.ProviderOnly)).
		Int("directory_only", len(report.DirectoryOnly)).
		Int("role_mismatch", len(report.RoleMismatch)).
		Strs("role_mismatch_uids", report.RoleMismatch).
		Dur("took", time.Since(start)).
		Msg("drift audit completed")
	return report, nil
}
