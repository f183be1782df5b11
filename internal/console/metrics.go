package console

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the console HTTP metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // by route and status
	RequestDuration *prometheus.HistogramVec // by route
}

// NewMetrics creates and registers the console metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hac_console_http_requests_total",
			Help: "Total number of console HTTP requests",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hac_console_http_request_duration_seconds",
			Help:    "Console HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}
