package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Remote call metrics
	RemoteCallsTotal    *prometheus.CounterVec
	RemoteCallDuration  *prometheus.HistogramVec
	RemoteCallRetries   *prometheus.HistogramVec
	FallbacksTotal      *prometheus.CounterVec

	// Business metrics
	ConversationsTotal  *prometheus.CounterVec
	AssessmentsTotal    *prometheus.CounterVec
	EmailsSentTotal     *prometheus.CounterVec
	DocumentsProcessed  *prometheus.CounterVec

	// System metrics
	QueueSize        *prometheus.GaugeVec
	DependencyStates *prometheus.GaugeVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Subsystem string `json:"subsystem"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "easyonboard",
		Subsystem: "",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Metrics{}
	}

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
			[]string{"method", "path"},
		),

		// Remote call metrics
		RemoteCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "remote_calls_total",
				Help:      "Total number of guarded remote calls",
			},
			[]string{"dependency", "operation", "outcome"},
		),
		RemoteCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "remote_call_duration_seconds",
				Help:      "Guarded remote call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 180},
			},
			[]string{"dependency", "operation"},
		),
		RemoteCallRetries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "remote_call_attempts",
				Help:      "Number of attempts made per guarded remote call",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
			[]string{"dependency", "operation"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of degraded responses served from fallbacks",
			},
			[]string{"dependency", "operation"},
		),

		// Business metrics
		ConversationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "conversations_total",
				Help:      "Total number of assistant conversations",
			},
			[]string{"agent_type", "status"},
		),
		AssessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "assessments_total",
				Help:      "Total number of assessments submitted",
			},
			[]string{"assessment_type", "result"},
		),
		EmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "emails_sent_total",
				Help:      "Total number of notification emails sent",
			},
			[]string{"template", "status"},
		),
		DocumentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "documents_processed_total",
				Help:      "Total number of documents processed for the knowledge base",
			},
			[]string{"status"},
		),

		// System metrics
		QueueSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "queue_size",
				Help:      "Number of items in queue",
			},
			[]string{"queue", "priority"},
		),
		DependencyStates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "dependency_state",
				Help:      "Current state of each remote dependency (1 for the active state)",
			},
			[]string{"dependency", "state"},
		),

		// Error metrics
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "errors_total",
				Help:      "Total number of errors",
			},
			[]string{"component", "error_type"},
		),
		PanicsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "panics_total",
				Help:      "Total number of panics",
			},
			[]string{"component"},
		),
	}

	// Register all metrics
	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RemoteCallsTotal,
		m.RemoteCallDuration,
		m.RemoteCallRetries,
		m.FallbacksTotal,
		m.ConversationsTotal,
		m.AssessmentsTotal,
		m.EmailsSentTotal,
		m.DocumentsProcessed,
		m.QueueSize,
		m.DependencyStates,
		m.ErrorsTotal,
		m.PanicsTotal,
	)

	return m
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m.HTTPRequestsTotal == nil {
		return
	}

	statusStr := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
}

// ObserveRemoteCall records the outcome of a guarded remote call. It
// satisfies the resilience observer so guards feed metrics directly.
func (m *Metrics) ObserveRemoteCall(dependency, operation string, result resilience.CallResult, elapsed time.Duration) {
	if m.RemoteCallsTotal == nil {
		return
	}

	outcome := "success"
	switch {
	case result.Fallback:
		outcome = "fallback"
	case !result.Succeeded:
		outcome = "failure"
	}

	m.RemoteCallsTotal.WithLabelValues(dependency, operation, outcome).Inc()
	m.RemoteCallDuration.WithLabelValues(dependency, operation).Observe(elapsed.Seconds())
	m.RemoteCallRetries.WithLabelValues(dependency, operation).Observe(float64(result.Attempts))

	if result.Fallback {
		m.FallbacksTotal.WithLabelValues(dependency, operation).Inc()
	}
	if !result.Succeeded {
		m.ErrorsTotal.WithLabelValues(dependency, string(result.ErrorKind)).Inc()
	}
}

// RecordConversation records assistant conversation metrics
func (m *Metrics) RecordConversation(agentType, status string) {
	if m.ConversationsTotal == nil {
		return
	}

	m.ConversationsTotal.WithLabelValues(agentType, status).Inc()
}

// RecordAssessment records assessment submission metrics
func (m *Metrics) RecordAssessment(assessmentType, result string) {
	if m.AssessmentsTotal == nil {
		return
	}

	m.AssessmentsTotal.WithLabelValues(assessmentType, result).Inc()
}

// RecordEmailSent records notification email metrics
func (m *Metrics) RecordEmailSent(template, status string) {
	if m.EmailsSentTotal == nil {
		return
	}

	m.EmailsSentTotal.WithLabelValues(template, status).Inc()
}

// RecordDocumentProcessed records knowledge base ingestion metrics
func (m *Metrics) RecordDocumentProcessed(status string) {
	if m.DocumentsProcessed == nil {
		return
	}

	m.DocumentsProcessed.WithLabelValues(status).Inc()
}

// UpdateQueueSize updates queue size metrics
func (m *Metrics) UpdateQueueSize(queue, priority string, size int64) {
	if m.QueueSize == nil {
		return
	}

	m.QueueSize.WithLabelValues(queue, priority).Set(float64(size))
}

// UpdateDependencyState updates the per-dependency state gauge
func (m *Metrics) UpdateDependencyState(dependency string, state resilience.State) {
	if m.DependencyStates == nil {
		return
	}

	for _, s := range []resilience.State{resilience.StateAvailable, resilience.StateDisabled, resilience.StateUnreachable} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		m.DependencyStates.WithLabelValues(dependency, s.String()).Set(value)
	}
}

// RecordError records error metrics
func (m *Metrics) RecordError(component, errorType string) {
	if m.ErrorsTotal == nil {
		return
	}

	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordPanic records panic metrics
func (m *Metrics) RecordPanic(component string) {
	if m.PanicsTotal == nil {
		return
	}

	m.PanicsTotal.WithLabelValues(component).Inc()
}

// PrometheusMiddleware creates a middleware for Prometheus metrics collection
func (m *Metrics) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.HTTPRequestsInFlight != nil {
			m.HTTPRequestsInFlight.WithLabelValues(c.Request.Method, c.FullPath()).Inc()
			defer m.HTTPRequestsInFlight.WithLabelValues(c.Request.Method, c.FullPath()).Dec()
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), duration)
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
