// Package metrics defines the Prometheus collectors of the auth gateway.
// All collectors register with the default registry on import and are served
// by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agency_auth"

// AuthDecisionsTotal counts guard outcomes.
// Label:
//   - outcome: "authenticated", "missing_token", "invalid_token", "forbidden", "bypass"
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of session gate decisions, by outcome.",
	},
	[]string{"outcome"},
)

// AdminOperationsTotal counts admin mutations and reads.
// Labels:
//   - operation: "add_user", "delete_user", "update_role", "list_users", "user_stats"
//   - result: "ok", "client_error", "error", "compensated"
var AdminOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_operations_total",
		Help:      "Total number of admin operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// DirectoryDrift is the last audited number of disagreements between the
// identity provider and the directory.
// Label:
//   - kind: "provider_only", "directory_only", "role_mismatch"
var DirectoryDrift = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "directory_drift",
		Help:      "Records that disagree between the identity provider and the directory.",
	},
	[]string{"kind"},
)

// HTTPRequestDuration measures request latency.
// Labels:
//   - method, route (gin full path), status
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// RateLimitedTotal counts requests rejected by the per-client limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

func RecordDecision(outcome string) {
	AuthDecisionsTotal.WithLabelValues(outcome).Inc()
}

func RecordAdminOperation(operation, result string) {
	AdminOperationsTotal.WithLabelValues(operation, result).Inc()
}

func SetDrift(providerOnly, directoryOnly, roleMismatch int) {
	DirectoryDrift.WithLabelValues("provider_only").Set(float64(providerOnly))
	DirectoryDrift.WithLabelValues("directory_only").Set(float64(directoryOnly))
	DirectoryDrift.WithLabelValues("role_mismatch").Set(float64(roleMismatch))
}
