// Package metrics exposes Prometheus collectors for command executions and
// the HTTP endpoint that serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for ExecutionsTotal.
const (
	OutcomeCompleted  = "completed"
	OutcomeTimeout    = "timeout"
	OutcomeSpawnError = "spawn_error"
	OutcomeWaitError  = "wait_error"
)

var (
	startTime = time.Now()

	// ExecutionsTotal counts executions by mode (wait/detach) and outcome.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remexec",
		Subsystem: "executor",
		Name:      "executions_total",
		Help:      "Total command executions by mode and outcome",
	}, []string{"mode", "outcome"})

	// ExecutionDuration tracks how long Execute took, spawn to result.
	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remexec",
		Subsystem: "executor",
		Name:      "execution_duration_seconds",
		Help:      "Command execution duration in seconds",
		Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"mode", "outcome"})

	// ActiveExecutions is the number of bounded-wait executions in flight.
	ActiveExecutions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remexec",
		Subsystem: "executor",
		Name:      "active_executions",
		Help:      "Bounded-wait executions currently waiting on a child process",
	})

	// DetachedRunning is the number of fire-and-forget children not yet reaped.
	DetachedRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remexec",
		Subsystem: "executor",
		Name:      "detached_running",
		Help:      "Fire-and-forget child processes that have not exited yet",
	})

	// KilledTotal counts process groups killed because their deadline elapsed.
	KilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remexec",
		Subsystem: "executor",
		Name:      "killed_total",
		Help:      "Process groups killed on timeout",
	})

	// HTTPRequestsTotal counts HTTP requests by method, endpoint and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remexec",
		Subsystem: "server",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remexec",
		Subsystem: "server",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	// ActiveRequests is the number of HTTP requests being served.
	ActiveRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "remexec",
		Subsystem: "server",
		Name:      "active_requests",
		Help:      "Currently active HTTP requests",
	}, []string{"endpoint"})

	// UptimeSeconds is refreshed on every scrape.
	UptimeSeconds = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "remexec",
		Subsystem: "server",
		Name:      "uptime_seconds",
		Help:      "Seconds since the process started",
	}, func() float64 { return time.Since(startTime).Seconds() })
)

// RecordExecution updates the execution counters for one finished Execute call.
func RecordExecution(mode, outcome string, d time.Duration) {
	ExecutionsTotal.WithLabelValues(mode, outcome).Inc()
	ExecutionDuration.WithLabelValues(mode, outcome).Observe(d.Seconds())
}

// Handler returns the Prometheus exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
