package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the catalog API's Prometheus metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all catalog metrics.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resmatch_catalog_requests_total",
			Help: "Total catalog API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resmatch_catalog_request_duration_seconds",
			Help:    "Catalog API request duration by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
