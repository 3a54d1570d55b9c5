// Package metrics provides Prometheus metrics for the padel analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// Storage collaborator
	storageRowsFetched  *prometheus.CounterVec
	storageRowsRejected *prometheus.CounterVec
	storagePages        *prometheus.CounterVec
	storageQueryLatency *prometheus.HistogramVec

	// Analytics core
	analyticsDuration *prometheus.HistogramVec
	graphNodes        prometheus.Gauge
	graphLinks        prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// DefaultLatencyBuckets are the histogram buckets, in milliseconds, used
// unless WithHistogramBuckets overrides them.
var DefaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only defaults

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager with opts on a fresh registry.
// Call it at startup, before handlers capture GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithPrometheusRegistry(registry))
	globalManager = NewManager(all...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "padel",
		subsystem:        "analytics",
		histogramBuckets: DefaultLatencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint, method and status",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "error_type"})

	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_rate_limited_total",
		Help:        "Requests rejected by the rate limiter",
		ConstLabels: m.constLabels,
	}, []string{"endpoint"})

	m.storageRowsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_rows_fetched_total",
		Help:        "Rows read from the storage backend by kind (player, edge, match)",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.storageRowsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_rows_rejected_total",
		Help:        "Rows rejected at the storage boundary because required fields were missing",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.storagePages = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_pages_total",
		Help:        "Paginated round-trips to the storage backend by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.storageQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_query_latency_milliseconds",
		Help:        "Storage query latency in milliseconds by operation",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.analyticsDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analytics_duration_milliseconds",
		Help:        "Time spent in the analytics core by operation",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.graphNodes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "graph_nodes",
		Help:        "Node count of the most recently built player graph",
		ConstLabels: m.constLabels,
	})

	m.graphLinks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "graph_links",
		Help:        "Link count of the most recently built player graph",
		ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordRowsFetched adds n decoded rows of the given kind.
func RecordRowsFetched(kind string, n int) {
	globalManager.storageRowsFetched.WithLabelValues(kind).Add(float64(n))
}

// RecordRowRejected counts one row dropped at the storage boundary.
func RecordRowRejected(kind string) {
	globalManager.storageRowsRejected.WithLabelValues(kind).Inc()
}

// RecordPageFetched counts one paginated round-trip.
func RecordPageFetched(kind string) {
	globalManager.storagePages.WithLabelValues(kind).Inc()
}

// RecordStorageQueryLatency records a storage query latency in milliseconds.
func RecordStorageQueryLatency(op string, latencyMs float64) {
	globalManager.storageQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordAnalyticsDuration records the time spent computing op in milliseconds.
func RecordAnalyticsDuration(op string, durationMs float64) {
	globalManager.analyticsDuration.WithLabelValues(op).Observe(durationMs)
}

// UpdateGraphSize sets the node and link gauges.
func UpdateGraphSize(nodes, links int) {
	globalManager.graphNodes.Set(float64(nodes))
	globalManager.graphLinks.Set(float64(links))
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
