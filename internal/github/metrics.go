package github

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for GitHub API traffic.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // by method and status ("error" for transport failures)
	RequestDuration *prometheus.HistogramVec // by method
}

// NewMetrics creates and registers the client metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hac_github_requests_total",
		Help: "Total number of GitHub API requests",
	}, []string{"method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hac_github_request_duration_seconds",
		Help:    "GitHub API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	reg.MustRegister(requests, duration)

	return &Metrics{
		RequestsTotal:   requests,
		RequestDuration: duration,
	}
}

func (m *Metrics) observe(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
