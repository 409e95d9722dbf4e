// Package metrics provides observability for BIMI validation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts validation outcomes and cache effectiveness. A nil
// *Metrics is a no-op, so instrumentation can stay unconditional.
type Metrics struct {
	// Validation outcomes by final status
	ValidationOutcome *prometheus.CounterVec

	// Cache lookups by namespace and hit/miss
	CacheLookups *prometheus.CounterVec

	// Policy lookup fallbacks to the organizational domain
	PolicyFallbacks prometheus.Counter

	// Overall validation latency
	ValidateLatency prometheus.Histogram
}

// New creates a Metrics instance with all validation metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		ValidationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bimi_validation_outcomes_total",
			Help: "Total validation outcomes by final status",
		}, []string{"status"}), // status: "none", "declined", "pass", "temperror", "permerror"

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bimi_cache_lookups_total",
			Help: "Total cache lookups by namespace and result",
		}, []string{"namespace", "result"}),

		PolicyFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bimi_policy_fallbacks_total",
			Help: "Total policy lookups retried at the organizational domain",
		}),

		ValidateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bimi_validate_duration_seconds",
			Help:    "Duration of full validation including DNS, download and VMC checks",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementOutcome records a finished validation by status.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.ValidationOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss in a namespace.
func (m *Metrics) IncrementCacheLookup(namespace string, hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(namespace, result).Inc()
	}
}

// IncrementPolicyFallback records a lookup retried at the eTLD+1.
func (m *Metrics) IncrementPolicyFallback() {
	if m != nil {
		m.PolicyFallbacks.Inc()
	}
}

// ObserveValidateLatency records the duration of a validation run.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}
