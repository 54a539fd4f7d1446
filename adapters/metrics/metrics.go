// Package metrics provides Prometheus metrics collection for Hearth.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for Hearth.
type Collector struct {
	// Chat intake metrics
	ChatRequests   *prometheus.CounterVec
	RateLimitHits  *prometheus.CounterVec
	EventWriteErrs prometheus.Counter

	// Completion upstream metrics
	CompletionDuration prometheus.Histogram
	CompletionErrors   *prometheus.CounterVec
	CompletionRetries  prometheus.Counter

	// Admin reporting metrics
	AdminQueries      *prometheus.CounterVec
	AdminQueryLatency *prometheus.HistogramVec
	AuthFailures      prometheus.Counter
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ChatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "chat_requests_total",
				Help:      "Total chat messages received, by outcome",
			},
			[]string{"outcome"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "rate_limit_hits_total",
				Help:      "Total chat requests rejected by rate limiting",
			},
			[]string{"tier"},
		),
		EventWriteErrs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "event_write_errors_total",
				Help:      "Usage event writes that failed and were swallowed",
			},
		),
		CompletionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hearth",
				Name:      "completion_duration_seconds",
				Help:      "Upstream completion request duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		CompletionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "completion_errors_total",
				Help:      "Total upstream completion failures",
			},
			[]string{"type"},
		),
		CompletionRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "completion_retries_total",
				Help:      "Completion requests that needed the fallback retry",
			},
		),
		AdminQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "admin_queries_total",
				Help:      "Admin reporting queries, by endpoint",
			},
			[]string{"endpoint"},
		),
		AdminQueryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hearth",
				Name:      "admin_query_duration_seconds",
				Help:      "Admin reporting query duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"endpoint"},
		),
		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hearth",
				Name:      "admin_auth_failures_total",
				Help:      "Total admin gate authorization failures",
			},
		),
	}
}
