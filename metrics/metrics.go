// Package metrics exposes Prometheus metrics for the inbound carrier sales
// pipeline: verifications, load searches, negotiation decisions, and recorded
// call outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus metric for the service.
type Manager struct {
	registry *prometheus.Registry

	verifications        *prometheus.CounterVec
	loadSearches         prometheus.Counter
	loadMatchesReturned  prometheus.Histogram
	negotiationDecisions *prometheus.CounterVec
	outcomesRecorded     *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Custom registry avoids the default Go runtime collectors.
var globalManager = NewManager() //nolint:gochecknoglobals // singleton metrics manager

// NewManager creates a manager with its own registry.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Manager{registry: registry}

	m.verifications = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightline",
			Name:      "carrier_verifications_total",
			Help:      "Total carrier verifications by result and source",
		},
		[]string{"result", "source"},
	)

	m.loadSearches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "freightline",
		Name:      "load_searches_total",
		Help:      "Total load search requests",
	})

	m.loadMatchesReturned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "freightline",
		Name:      "load_matches_returned",
		Help:      "Number of matches returned per search",
		Buckets:   []float64{0, 1, 2, 3, 5, 10},
	})

	m.negotiationDecisions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightline",
			Name:      "negotiation_decisions_total",
			Help:      "Total negotiation decisions by kind",
		},
		[]string{"decision"},
	)

	m.outcomesRecorded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightline",
			Name:      "call_outcomes_total",
			Help:      "Total recorded call outcomes by status",
		},
		[]string{"status"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightline",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "freightline",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	return m
}

// RecordVerification counts one carrier verification.
func RecordVerification(result, source string) {
	globalManager.verifications.WithLabelValues(result, source).Inc()
}

// RecordLoadSearch counts one load search and the matches it returned.
func RecordLoadSearch(matches int) {
	globalManager.loadSearches.Inc()
	globalManager.loadMatchesReturned.Observe(float64(matches))
}

// RecordNegotiationDecision counts one negotiation decision (accept, counter,
// escalate).
func RecordNegotiationDecision(decision string) {
	globalManager.negotiationDecisions.WithLabelValues(decision).Inc()
}

// RecordOutcome counts one recorded call outcome.
func RecordOutcome(status string) {
	globalManager.outcomesRecorded.WithLabelValues(status).Inc()
}

// RecordHTTPRequest counts one HTTP request and its duration in seconds.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// Handler serves the Prometheus exposition endpoint for the global registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(globalManager.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}
