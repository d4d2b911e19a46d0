package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Moderation metrics
	ModerationActionsTotal prometheus.CounterVec
	ModerationGuardRejects prometheus.CounterVec
	QueueQueryDuration     prometheus.HistogramVec
	QueueItemsReturned     prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			ModerationActionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_actions_total",
					Help: "Total number of successful moderation transitions",
				},
				[]string{"action", "item_type"},
			),
			ModerationGuardRejects: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_guard_rejects_total",
					Help: "Moderation calls rejected by a state guard",
				},
				[]string{"action", "item_type"},
			),
			QueueQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "moderation_queue_query_duration_seconds",
					Help:    "Moderation queue query latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"queue_type"},
			),
			QueueItemsReturned: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "moderation_queue_items_returned",
					Help:    "Number of items returned per queue query",
					Buckets: prometheus.ExponentialBuckets(1, 2, 10),
				},
				[]string{"queue_type"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"type"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed.
func Get() *Metrics {
	return Initialize()
}
