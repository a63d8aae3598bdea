// Package metrics defines and registers all custom Prometheus metrics for the
// harvestlink auth layer. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is first imported; /metrics serves them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

const (
	namespace = "harvestlink"
	subsystem = "auth"
)

// ── Verification metrics ──────────────────────────────────────────────────────

// VerificationAttemptsTotal counts every verifier invocation.
// Labels:
//   - method: the verifier (e.g. "relational", "local")
//   - outcome: "ok" or the failure reason (e.g. "not_applicable", "revoked")
var VerificationAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "verification_attempts_total",
		Help:      "Total number of credential verification attempts per verifier.",
	},
	[]string{"method", "outcome"},
)

// VerificationDuration measures a single verifier call.
var VerificationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "verification_duration_seconds",
		Help:      "Duration of one verifier call.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ObserveVerification matches the resolver's observer signature.
func ObserveVerification(method domain.AuthMethod, outcome string, elapsed time.Duration) {
	VerificationAttemptsTotal.WithLabelValues(string(method), outcome).Inc()
	VerificationDuration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

// ── Login / signup metrics ────────────────────────────────────────────────────

// LoginsTotal counts sign-in attempts.
// Label:
//   - result: "success", "failure", "rate_limited" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins_total",
		Help:      "Total number of sign-in attempts by result.",
	},
	[]string{"result"},
)

// SignupsTotal counts account creation attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "signups_total",
		Help:      "Total number of signup attempts by result.",
	},
	[]string{"result"},
)

// SessionRejectionsTotal counts requests refused by the session middleware.
// Label:
//   - reason: "missing" (no credential) or "invalid"
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_rejections_total",
		Help:      "Total number of requests rejected for missing or invalid credentials.",
	},
	[]string{"reason"},
)

// ── Login event queue ─────────────────────────────────────────────────────────

// LoginEventsDroppedTotal counts events discarded because a worker was full.
var LoginEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "login_events_dropped_total",
		Help:      "Total number of login events dropped on a full queue.",
	},
)
