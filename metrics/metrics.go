package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootstrap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bootstrap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Runner lifecycle
	runnerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bootstrap_runner_state",
			Help: "Runner lifecycle state (0 starting, 1 serving, 2 stopped)",
		},
	)

	startupDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bootstrap_startup_duration_seconds",
			Help: "Time from process start until the listener was serving",
		},
	)

	// Backing services
	dependencyUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bootstrap_dependency_up",
			Help: "Whether the last probe of a backing service succeeded",
		},
		[]string{"dependency"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootstrap_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// PrometheusMiddleware creates a Fiber middleware for Prometheus metrics
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		method := c.Method()
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// SetRunnerState records the runner lifecycle state as a number.
func SetRunnerState(state int) {
	runnerState.Set(float64(state))
}

// RecordStartup records how long startup took.
func RecordStartup(d time.Duration) {
	startupDuration.Set(d.Seconds())
}

// SetDependencyUp records the latest probe result for a backing service.
func SetDependencyUp(name string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	dependencyUp.WithLabelValues(name).Set(v)
}

// IncrementError increments error counter
func IncrementError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
