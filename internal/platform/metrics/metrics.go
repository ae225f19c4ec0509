// Package metrics holds the transport-level Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds request counters and latency by route.
type HTTP struct {
	Requests        *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
}

// NewHTTP creates and registers the HTTP collectors with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crp_http_requests_total",
			Help: "HTTP requests, labeled by method, route and status",
		}, []string{"method", "route", "status"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crp_http_request_duration_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveRequest records one completed request.
func (m *HTTP) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.EndpointLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}
