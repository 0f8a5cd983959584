package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour)
	stale := now.Add(-60 * 24 * time.Hour)

	identities := []domain.Identity{
		{UID: "a", EmailVerified: true, CreatedAt: ts(2025, 6, 1), LastSignInAt: &recent, Providers: []string{"password"}},
		{UID: "b", EmailVerified: true, CreatedAt: ts(2025, 6, 2), Providers: []string{"google.com"},
			Claims: auth.MergeAdminClaims(nil, true)},
		{UID: "c", Disabled: true, CreatedAt: ts(2024, 7, 10), LastSignInAt: &stale, Providers: []string{"password"}},
		{UID: "d", CreatedAt: ts(2023, 1, 1)},
	}

	stats := ComputeStats(identities, now)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 1, stats.Admins)
	assert.Equal(t, 2, stats.Verified)
	assert.Equal(t, 50.0, stats.VerificationRate)
	assert.Equal(t, 1, stats.RecentlyActive)
	assert.Equal(t, map[string]int{"password": 2, "google.com": 1}, stats.Providers)

	require.Len(t, stats.MonthlySignups, 12)
	assert.Equal(t, "2024-07", stats.MonthlySignups[0].Month)
	assert.Equal(t, 1, stats.MonthlySignups[0].Count)
	assert.Equal(t, "2025-06", stats.MonthlySignups[11].Month)
	assert.Equal(t, 2, stats.MonthlySignups[11].Count)
}

func TestComputeStats_VerificationRateRounding(t *testing.T) {
	stats := ComputeStats([]domain.Identity{
		{UID: "a", EmailVerified: true},
		{UID: "b"},
		{UID: "c"},
	}, time.Now())
	assert.Equal(t, 33.3, stats.VerificationRate)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.VerificationRate)
	assert.Len(t, stats.MonthlySignups, 12)
	assert.NotNil(t, stats.Providers)
}
