package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CapturesTotal       *prometheus.CounterVec
	CaptureDuration     *prometheus.HistogramVec
	CacheEventsTotal    *prometheus.CounterVec
	NodesPerCapture     prometheus.Histogram
	IndexedPerCapture   prometheus.Histogram
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captures_total",
			Help: "Total number of DOM capture attempts.",
		},
		[]string{"status", "error_code"}, // status: success, failure
	)

	CaptureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capture_duration_seconds",
			Help:    "Duration of DOM capture operations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"}, // source: agent, cache
	)

	CacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_cache_events_total",
			Help: "Capture cache hits, misses, bypasses and invalidations.",
		},
		[]string{"event"},
	)

	NodesPerCapture = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "capture_nodes",
			Help:    "Number of DOM nodes assembled per capture.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	IndexedPerCapture = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "capture_indexed_elements",
			Help:    "Number of actionable elements indexed per capture.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
}
