package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Deck-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 90},
		},
		[]string{"method", "endpoint"},
	)

	// Background jobs counter
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "jobs_total",
			Help:      "Total deck jobs by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	// Job duration histogram
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "job_duration_seconds",
			Help:      "Deck job duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	// Stale jobs failed by the janitor
	StaleJobsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "stale_jobs_total",
			Help:      "Running jobs failed because their worker stopped reporting",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordJob records a finished deck job
func RecordJob(mode, status string, durationSec float64) {
	JobsTotal.WithLabelValues(mode, status).Inc()
	JobDuration.WithLabelValues(mode).Observe(durationSec)
}

// RecordStaleJobs records jobs failed by the janitor
func RecordStaleJobs(n int64) {
	if n > 0 {
		StaleJobsTotal.Add(float64(n))
	}
}
