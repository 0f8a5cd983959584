package service

import (
	"math"
	"time"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

const (
	recentActivityWindow = 30 * 24 * time.Hour
	signupMonths         = 12
)

// ComputeStats aggregates provider records relative to now.
func ComputeStats(identities []domain.Identity, now time.Time) domain.UserStats {
	now = now.UTC()
	stats := domain.UserStats{
		Total:          len(identities),
		Providers:      map[string]int{},
		MonthlySignups: make([]domain.MonthlyCount, signupMonths),
	}

	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := current.AddDate(0, -(signupMonths - 1), 0)
	buckets := make(map[string]int, signupMonths)
	for i := 0; i < signupMonths; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		stats.MonthlySignups[i] = domain.MonthlyCount{Month: month}
		buckets[month] = i
	}

	for _, id := range identities {
		if id.Disabled {
			stats.Inactive++
		} else {
			stats.Active++
		}
		if id.IsAdmin() {
			stats.Admins++
		}
		if id.EmailVerified {
			stats.Verified++
		}
		if id.LastSignInAt != nil && now.Sub(*id.LastSignInAt) <= recentActivityWindow {
			stats.RecentlyActive++
		}
		for _, p := range id.Providers {
			stats.Providers[p]++
		}
		if id.CreatedAt != nil {
			if i, ok := buckets[id.CreatedAt.UTC().Format("2006-01")]; ok {
				stats.MonthlySignups[i].Count++
			}
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Verified) / float64(stats.Total) * 100
		stats.VerificationRate = math.Round(rate*10) / 10
	}
	return stats
}
