package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	wizardEvents    *prometheus.CounterVec
	conflictChecks  *prometheus.CounterVec
	conflictRows    prometheus.Counter
	invoicesTotal   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	wizardEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_wizard_events_total",
		Help: "Enrollment wizard lifecycle events",
	}, []string{"event"})

	conflictChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_checks_total",
		Help: "Conflict-check passes by outcome",
	}, []string{"outcome"})

	conflictRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conflict_rows_flagged_total",
		Help: "Schedule rows flagged with a conflict warning",
	})

	invoicesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoices_submitted_total",
		Help: "Invoices submitted successfully",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		wizardEvents, conflictChecks, conflictRows, invoicesTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		wizardEvents:    wizardEvents,
		conflictChecks:  conflictChecks,
		conflictRows:    conflictRows,
		invoicesTotal:   invoicesTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordWizardEvent counts a wizard lifecycle event (started, confirmed,
// cancelled).
func (m *MetricsService) RecordWizardEvent(event string) {
	if m == nil {
		return
	}
	m.wizardEvents.WithLabelValues(event).Inc()
}

// RecordConflictCheck counts one conflict-check pass and the rows it flagged.
func (m *MetricsService) RecordConflictCheck(outcome string, flaggedRows int) {
	if m == nil {
		return
	}
	m.conflictChecks.WithLabelValues(outcome).Inc()
	if flaggedRows > 0 {
		m.conflictRows.Add(float64(flaggedRows))
	}
}

// RecordInvoiceSubmitted counts a successful invoice submission.
func (m *MetricsService) RecordInvoiceSubmitted() {
	if m == nil {
		return
	}
	m.invoicesTotal.Inc()
}
