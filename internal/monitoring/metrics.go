// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics for the extraction and
// delivery pipeline, plus a small HTTP server for /metrics and /healthz.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors. Each Metrics value
// carries its own registry so independent instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	extractionsTotal *prometheus.CounterVec
	extractionErrors *prometheus.CounterVec
	extractionTime   prometheus.Histogram
	fallbacksTotal   prometheus.Counter
	deliveriesTotal  *prometheus.CounterVec
	sessionTeardowns prometheus.Counter
	sessionReArms    prometheus.Counter
	staleDiscards    prometheus.Counter
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tellahook"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		extractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Completed extractions by method (api, dom, api+dom)",
			},
			[]string{"method"},
		),
		extractionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_errors_total",
				Help:      "Failed extractions by reason",
			},
			[]string{"reason"},
		),
		extractionTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "End-to-end extraction duration",
				Buckets:   prometheus.DefBuckets,
			},
		),
		fallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dom_fallbacks_total",
				Help:      "Extractions that fell back to DOM scraping",
			},
		),
		deliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_deliveries_total",
				Help:      "Webhook delivery outcomes by status (ok, or the failure category)",
			},
			[]string{"status"},
		),
		sessionTeardowns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_teardowns_total",
				Help:      "Lifecycle teardowns between page navigations",
			},
		),
		sessionReArms: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_rearms_total",
				Help:      "Lifecycle re-arms on qualifying pages",
			},
		),
		staleDiscards: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_results_discarded_total",
				Help:      "Extraction results discarded because the page changed",
			},
		),
	}
}

// ObserveExtraction records one completed extraction.
func (m *Metrics) ObserveExtraction(method string, duration time.Duration) {
	m.extractionsTotal.WithLabelValues(method).Inc()
	m.extractionTime.Observe(duration.Seconds())
}

// ObserveExtractionError records a failed extraction.
func (m *Metrics) ObserveExtractionError(reason string) {
	m.extractionErrors.WithLabelValues(reason).Inc()
}

// ObserveFallback records a DOM fallback.
func (m *Metrics) ObserveFallback() {
	m.fallbacksTotal.Inc()
}

// ObserveDelivery records one webhook delivery outcome. status is "ok" or
// the delivery error category.
func (m *Metrics) ObserveDelivery(status string) {
	m.deliveriesTotal.WithLabelValues(status).Inc()
}

// ObserveTeardown records a lifecycle teardown.
func (m *Metrics) ObserveTeardown() {
	m.sessionTeardowns.Inc()
}

// ObserveReArm records a lifecycle re-arm.
func (m *Metrics) ObserveReArm() {
	m.sessionReArms.Inc()
}

// ObserveStaleDiscard records a discarded stale result.
func (m *Metrics) ObserveStaleDiscard() {
	m.staleDiscards.Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
