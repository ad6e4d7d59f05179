package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus metrics.
type Metrics struct {
	RunsTotal    prometheus.Counter
	RunFailures  *prometheus.CounterVec
	RowsLoaded   *prometheus.GaugeVec
	RunDuration  prometheus.Histogram
	StrategyUsed *prometheus.CounterVec
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resmatch_pipeline_runs_total",
			Help: "Total number of completed pipeline runs",
		}),
		RunFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resmatch_pipeline_run_failures_total",
			Help: "Total number of failed pipeline runs by stage",
		}, []string{"stage"}),
		RowsLoaded: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "resmatch_pipeline_rows_loaded",
			Help: "Rows loaded per table in the most recent successful run",
		}, []string{"table"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "resmatch_pipeline_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		StrategyUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resmatch_pipeline_id_strategy_used_total",
			Help: "Which id extraction strategy was accepted, per run",
		}, []string{"strategy"}),
	}
}
