package cronjob

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

type auditorFunc func(ctx context.Context) (*domain.DriftReport, error)

func (f auditorFunc) Drift(ctx context.Context) (*domain.DriftReport, error) { return f(ctx) }

func TestRunOnce(t *testing.T) {
	want := &domain.DriftReport{ProviderOnly: []string{"a"}, DirectoryOnly: []string{}, RoleMismatch: []string{"b"}}
	s := NewScheduler(auditorFunc(func(context.Context) (*domain.DriftReport, error) { return want, nil }), "@every 1h")

	got, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunOnce_Error(t *testing.T) {
	s := NewScheduler(auditorFunc(func(context.Context) (*domain.DriftReport, error) {
		return nil, errors.New("provider down")
	}), "@every 1h")

	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(auditorFunc(func(context.Context) (*domain.DriftReport, error) {
		return &domain.DriftReport{}, nil
	}), "not a schedule")
	assert.Error(t, s.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := NewScheduler(auditorFunc(func(context.Context) (*domain.DriftReport, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return &domain.DriftReport{}, nil
	}), "* * * * * *")
	require.NoError(t, s.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("audit did not run")
	}
}

func TestStart_LogsSchedule(t *testing.T) {
	logger.Reset()
	t.Cleanup(logger.Reset)
	var buf bytes.Buffer
	logger.Init(logger.Options{Output: &buf})

	s := NewScheduler(auditorFunc(func(context.Context) (*domain.DriftReport, error) {
		return &domain.DriftReport{}, nil
	}), "@every 1h")
	require.NoError(t, s.Start())
	s.Stop(context.Background())

	assert.Contains(t, buf.String(), "drift audit scheduler started")
	assert.Contains(t, buf.String(), `"schedule":"@every 1h"`)
}
