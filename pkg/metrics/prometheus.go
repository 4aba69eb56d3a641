// Package metrics provides Prometheus metrics for the xcroster server and client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the roster server and client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Server HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Server auth and storage
	authLogins   *prometheus.CounterVec
	activeTokens prometheus.Gauge
	records      *prometheus.GaugeVec

	// Client API calls
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Client query cache
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheFetchErrors   *prometheus.CounterVec
	cacheSharedFetches *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec

	// Client session and routing
	sessionTransitions *prometheus.CounterVec
	routeRedirects     *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "xcroster",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests served by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"HTTP error responses by endpoint, method and error type",
		"endpoint", "method", "error_type")

	m.authLogins = m.counterVec("auth_logins_total",
		"Admin login attempts by outcome", "outcome")
	m.activeTokens = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_tokens",
		Help:      "Number of issued, unexpired and unrevoked session tokens",
	})
	m.records = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_total",
		Help:      "Stored rows by kind (athletes, meets, results)",
	}, []string{"kind"})

	m.apiRequests = m.counterVec("api_requests_total",
		"Outbound REST calls by operation and outcome", "operation", "outcome")
	m.apiRequestDuration = m.histogramVec("api_request_duration_milliseconds",
		"Outbound REST call latency in milliseconds", "operation")

	m.cacheHits = m.counterVec("cache_hits_total",
		"Query cache reads served from a fresh entry", "resource")
	m.cacheMisses = m.counterVec("cache_misses_total",
		"Query cache reads that required a network fetch", "resource")
	m.cacheFetchErrors = m.counterVec("cache_fetch_errors_total",
		"Query cache fetches that stored an error", "resource")
	m.cacheSharedFetches = m.counterVec("cache_shared_fetches_total",
		"Query cache reads that joined an in-flight fetch", "resource")
	m.cacheInvalidations = m.counterVec("cache_invalidations_total",
		"Query cache entries marked stale", "resource")

	m.sessionTransitions = m.counterVec("session_transitions_total",
		"Session state machine transitions", "from", "to")
	m.routeRedirects = m.counterVec("route_redirects_total",
		"Fragment redirects applied by the route controller", "from", "to")
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records a served HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error response with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordLogin records an admin login attempt outcome ("success", "invalid", "error").
func RecordLogin(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.authLogins.WithLabelValues(outcome).Inc()
}

// UpdateActiveTokens sets the number of live session tokens.
func UpdateActiveTokens(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.activeTokens.Set(float64(count))
}

// UpdateRecords sets the stored row count for kind.
func UpdateRecords(kind string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.records.WithLabelValues(kind).Set(float64(count))
}

// RecordAPIRequest records an outbound REST call.
func RecordAPIRequest(operation, outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.apiRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.apiRequestDuration.WithLabelValues(operation).Observe(durationMs)
}

// RecordCacheHit counts a fresh cache read.
func RecordCacheHit(resource string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss counts a cache read that triggered a fetch.
func RecordCacheMiss(resource string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.WithLabelValues(resource).Inc()
}

// RecordCacheFetchError counts a failed fetch.
func RecordCacheFetchError(resource string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheFetchErrors.WithLabelValues(resource).Inc()
}

// RecordCacheSharedFetch counts a read that joined an in-flight request.
func RecordCacheSharedFetch(resource string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheSharedFetches.WithLabelValues(resource).Inc()
}

// RecordCacheInvalidation counts an entry marked stale.
func RecordCacheInvalidation(resource string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheInvalidations.WithLabelValues(resource).Inc()
}

// RecordSessionTransition counts a session state change.
func RecordSessionTransition(from, to string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionTransitions.WithLabelValues(from, to).Inc()
}

// RecordRouteRedirect counts a fragment redirect.
func RecordRouteRedirect(from, to string) {
	if !globalManager.enabled {
		return
	}
	globalManager.routeRedirects.WithLabelValues(from, to).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
