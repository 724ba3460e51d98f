// Package metrics provides Prometheus metrics for the bracketry service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Generation
	schedulesGenerated  *prometheus.CounterVec
	matchesGenerated    *prometheus.CounterVec
	generationLatency   *prometheus.HistogramVec
	generationWarnings  *prometheus.CounterVec
	insufficientResults *prometheus.CounterVec
	validationFailures  *prometheus.CounterVec
	generationShared    prometheus.Counter

	// Standings and brackets
	standingsComputed *prometheus.CounterVec
	standingsLatency  prometheus.Histogram
	bracketAdvances   prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storedEvents prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bracketry",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		constLabels:      map[string]string{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.schedulesGenerated = m.counterVec("schedules_generated_total", "Schedules generated and persisted, by format", "format")
	m.matchesGenerated = m.counterVec("matches_generated_total", "Match stubs produced, by format", "format")
	m.generationLatency = m.histogramVec("generation_latency_milliseconds", "Time spent generating and validating a schedule", "format")
	m.generationWarnings = m.counterVec("generation_warnings_total", "Non-fatal generator warnings, by format and code", "format", "code")
	m.insufficientResults = m.counterVec("insufficient_results_total", "Generation calls with too few participants", "format")
	m.validationFailures = m.counterVec("validation_failures_total", "Generator output rejected by the validation gate", "format")
	m.generationShared = m.counter("generation_shared_total", "Concurrent generation calls that reused an in-flight result")

	m.standingsComputed = m.counterVec("standings_computed_total", "Standings tables computed, by format", "format")
	m.standingsLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "standings_latency_milliseconds",
		Help:        "Time spent loading results and computing standings",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.bracketAdvances = m.counter("bracket_advances_total", "Winners advanced through elimination brackets")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Match store latency, by operation", "operation")
	m.storeErrors = m.counterVec("store_errors_total", "Match store failures, by operation", "operation")
	m.storedEvents = promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stored_events",
		Help:        "Events with at least one stored match",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", "component", "error_type")
}

// RecordSchedule records a persisted schedule and its match count.
func (m *Manager) RecordSchedule(format string, matches int, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.schedulesGenerated.WithLabelValues(format).Inc()
	m.matchesGenerated.WithLabelValues(format).Add(float64(matches))
	m.generationLatency.WithLabelValues(format).Observe(latencyMs)
}

// RecordWarning records a generator warning.
func (m *Manager) RecordWarning(format, code string) {
	if m.enabled {
		m.generationWarnings.WithLabelValues(format, code).Inc()
	}
}

// RecordInsufficient records a generation call with too few participants.
func (m *Manager) RecordInsufficient(format string) {
	if m.enabled {
		m.insufficientResults.WithLabelValues(format).Inc()
	}
}

// RecordValidationFailure records output rejected by the validation gate.
func (m *Manager) RecordValidationFailure(format string) {
	if m.enabled {
		m.validationFailures.WithLabelValues(format).Inc()
	}
}

// RecordGenerationShared records a caller that joined an in-flight generation.
func (m *Manager) RecordGenerationShared() {
	if m.enabled {
		m.generationShared.Inc()
	}
}

// RecordStandings records a standings computation.
func (m *Manager) RecordStandings(format string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.standingsComputed.WithLabelValues(format).Inc()
	m.standingsLatency.Observe(latencyMs)
}

// RecordBracketAdvance records winners pushed through a bracket.
func (m *Manager) RecordBracketAdvance(n int) {
	if m.enabled {
		m.bracketAdvances.Add(float64(n))
	}
}

// RecordStoreOperation records a store call and, when err is set, its failure.
func (m *Manager) RecordStoreOperation(operation string, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	if err != nil {
		m.storeErrors.WithLabelValues(operation).Inc()
	}
}

// UpdateStoredEvents sets the number of events held by the store.
func (m *Manager) UpdateStoredEvents(n int) {
	if m.enabled {
		m.storedEvents.Set(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError records an error by type, severity and, when set, endpoint.
func (m *Manager) RecordError(component, endpoint, method, errorType, severity string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	if endpoint != "" {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// Package-level helpers recording on the global manager.

// RecordSchedule records a persisted schedule on the global manager.
func RecordSchedule(format string, matches int, latencyMs float64) {
	globalManager.RecordSchedule(format, matches, latencyMs)
}

// RecordWarning records a generator warning.
func RecordWarning(format, code string) { globalManager.RecordWarning(format, code) }

// RecordInsufficient records a generation call with too few participants.
func RecordInsufficient(format string) { globalManager.RecordInsufficient(format) }

// RecordValidationFailure records output rejected by the validation gate.
func RecordValidationFailure(format string) { globalManager.RecordValidationFailure(format) }

// RecordGenerationShared records a caller that joined an in-flight generation.
func RecordGenerationShared() { globalManager.RecordGenerationShared() }

// RecordStandings records a standings computation.
func RecordStandings(format string, latencyMs float64) {
	globalManager.RecordStandings(format, latencyMs)
}

// RecordBracketAdvance records winners pushed through a bracket.
func RecordBracketAdvance(n int) { globalManager.RecordBracketAdvance(n) }

// RecordStoreOperation records a store call.
func RecordStoreOperation(operation string, latencyMs float64, err error) {
	globalManager.RecordStoreOperation(operation, latencyMs, err)
}

// UpdateStoredEvents sets the number of events held by the store.
func UpdateStoredEvents(n int) { globalManager.UpdateStoredEvents(n) }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordError records an error on the global manager.
func RecordError(component, endpoint, method, errorType, severity string, latencyMs float64) {
	globalManager.RecordError(component, endpoint, method, errorType, severity, latencyMs)
}

// GetRegistry returns the registry the global manager records on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SetEnabled toggles recording on the global manager. Call it before the
// service starts recording.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}
