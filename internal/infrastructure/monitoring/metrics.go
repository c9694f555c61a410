package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
)

// Metrics holds all Prometheus metrics for the retry and breaker lifecycle
type Metrics struct {
	// Retry metrics
	AttemptsTotal   *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec

	// Circuit metrics
	CircuitState       *prometheus.GaugeVec
	CircuitTransitions *prometheus.CounterVec
	CircuitRejections  *prometheus.CounterVec

	// Admin HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the metric set on its own registry so independent instances
// never collide
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Retry attempts by operation and outcome",
		}, []string{"operation", "outcome"}),

		AttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retry_attempt_duration_seconds",
			Help:    "Attempt duration by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		CircuitState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_state",
			Help: "Circuit state by operation (0=closed, 1=half-open, 2=open)",
		}, []string{"operation"}),

		CircuitTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_transitions_total",
			Help: "Circuit state transitions by operation",
		}, []string{"operation", "from", "to"}),

		CircuitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_rejections_total",
			Help: "Calls rejected without invocation because the circuit was open",
		}, []string{"operation"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Admin HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Admin HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		registry: registry,
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAttempt implements resilience.MetricsRecorder
func (m *Metrics) RecordAttempt(operation, outcome string, duration time.Duration) {
	m.AttemptsTotal.WithLabelValues(operation, outcome).Inc()
	m.AttemptDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRejection implements resilience.MetricsRecorder
func (m *Metrics) RecordRejection(operation string) {
	m.CircuitRejections.WithLabelValues(operation).Inc()
}

// RecordStateChange implements resilience.MetricsRecorder
func (m *Metrics) RecordStateChange(operation string, from, to resilience.State) {
	m.CircuitTransitions.WithLabelValues(operation, from.String(), to.String()).Inc()
	m.CircuitState.WithLabelValues(operation).Set(stateValue(to))
}

// RecordHTTPRequest records an admin surface request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func stateValue(state resilience.State) float64 {
	switch state {
	case resilience.StateHalfOpen:
		return 1
	case resilience.StateOpen:
		return 2
	default:
		return 0
	}
}
