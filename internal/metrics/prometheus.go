package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the flights tracker
type PrometheusMetrics struct {
	// Alert processing metrics
	AlertsProcessedTotal    *prometheus.CounterVec
	AlertProcessingDuration prometheus.Histogram
	RunsTotal               *prometheus.CounterVec
	RunDuration             prometheus.Histogram

	// Flight search metrics
	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	FlightsReturned     prometheus.Histogram

	// Content generation metrics
	BlueprintOutcomesTotal *prometheus.CounterVec

	// Notification metrics
	NotificationsSentTotal    *prometheus.CounterVec
	NotificationFailuresTotal *prometheus.CounterVec
	NotificationDuration      *prometheus.HistogramVec

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Alert processing metrics
		AlertsProcessedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_alerts_processed_total",
				Help: "Total number of alerts processed",
			},
			[]string{"type", "outcome"},
		),

		AlertProcessingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flights_alert_processing_duration_seconds",
				Help:    "Time spent processing individual alerts",
				Buckets: prometheus.DefBuckets,
			},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_runs_total",
				Help: "Total number of notification runs",
			},
			[]string{"trigger", "status"},
		),

		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flights_run_duration_seconds",
				Help:    "Duration of full notification runs",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		// Flight search metrics
		SearchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_search_requests_total",
				Help: "Total number of flight search requests",
			},
			[]string{"status"},
		),

		SearchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flights_search_duration_seconds",
				Help:    "Duration of flight search requests",
				Buckets: prometheus.DefBuckets,
			},
		),

		FlightsReturned: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flights_search_results",
				Help:    "Number of flight options returned per search",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),

		// Content generation metrics
		BlueprintOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_blueprint_outcomes_total",
				Help: "Outcomes of email blueprint generation attempts",
			},
			[]string{"outcome"},
		),

		// Notification metrics
		NotificationsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_notifications_sent_total",
				Help: "Total number of notifications sent",
			},
			[]string{"kind"},
		),

		NotificationFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_notification_failures_total",
				Help: "Total number of failed notifications",
			},
			[]string{"kind", "error"},
		),

		NotificationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flights_notification_duration_seconds",
				Help:    "Duration of notification delivery",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		// Storage metrics
		DatabaseOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_database_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "table", "status"},
		),

		DatabaseOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flights_database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flights_http_requests_total",
				Help: "Total number of HTTP requests received",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flights_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Application health metrics
		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flights_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flights_component_health",
				Help: "Health status of application components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flights_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flights_goroutines",
				Help: "Number of running goroutines",
			},
		),
	}
}

// RecordAlertProcessed records a processed alert
func (m *PrometheusMetrics) RecordAlertProcessed(alertType, outcome string, duration time.Duration) {
	m.AlertsProcessedTotal.WithLabelValues(alertType, outcome).Inc()
	m.AlertProcessingDuration.Observe(duration.Seconds())
}

// RecordRun records a completed notification run
func (m *PrometheusMetrics) RecordRun(trigger, status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(trigger, status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// RecordSearch records a flight search request
func (m *PrometheusMetrics) RecordSearch(status string, resultCount int, duration time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	m.FlightsReturned.Observe(float64(resultCount))
}

// RecordBlueprintOutcome records a blueprint generation outcome
func (m *PrometheusMetrics) RecordBlueprintOutcome(outcome string) {
	m.BlueprintOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordNotificationSent records a sent notification
func (m *PrometheusMetrics) RecordNotificationSent(kind string, duration time.Duration) {
	m.NotificationsSentTotal.WithLabelValues(kind).Inc()
	m.NotificationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordNotificationFailure records a failed notification
func (m *PrometheusMetrics) RecordNotificationFailure(kind, errorType string) {
	m.NotificationFailuresTotal.WithLabelValues(kind, errorType).Inc()
}

// RecordDatabaseOperation records a database operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, table, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
