// Package metrics holds the Prometheus collectors of the quote service
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	Calculations   *prometheus.CounterVec
	VersionOps     *prometheus.CounterVec
	SyncRuns       *prometheus.CounterVec
	SyncDiffs      prometheus.Histogram
	ArchiveErrors  prometheus.Counter
	RequestLatency *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "calculations_total",
			Help:      "Pricing calculations by outcome.",
		}, []string{"outcome"}),
		VersionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "version_operations_total",
			Help:      "Version store operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "itinerary_sync_total",
			Help:      "Itinerary sync runs by kind and final phase or status.",
		}, []string{"kind", "result"}),
		SyncDiffs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quote",
			Name:      "itinerary_sync_diffs",
			Help:      "Meal diffs found per sync preview.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quote",
			Name:      "version_archive_errors_total",
			Help:      "Version snapshots that failed to upload to object storage.",
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		m.Calculations,
		m.VersionOps,
		m.SyncRuns,
		m.SyncDiffs,
		m.ArchiveErrors,
		m.RequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels a result as "ok" or "error"
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// GinMiddleware observes request latency per matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestLatency.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
