// Package metrics exposes Prometheus metrics for simulation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

const (
	metricPrefix = "hydrosim_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics bundles run metrics.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	RunPeriods  prometheus.Histogram
	IndexValue  *prometheus.GaugeVec
}

// New constructs the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total simulation runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Simulation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RunPeriods: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_periods",
			Help:    "Number of periods per simulation run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		IndexValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "index_value",
				Help: "Latest performance index value by scenario",
			},
			[]string{"scenario", "index"},
		),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunPeriods,
		m.IndexValue,
	)
	return m
}

// ObserveRun records the outcome of one run. A nil receiver is a no-op.
func (m *Metrics) ObserveRun(scenario string, periods int, duration time.Duration, idx *hydro.Indices, err error) {
	if m == nil {
		return
	}

	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.RunPeriods.Observe(float64(periods))

	if err != nil || idx == nil || scenario == "" {
		return
	}
	m.IndexValue.WithLabelValues(scenario, "pbias").Set(idx.PBIAS)
	m.IndexValue.WithLabelValues(scenario, "nse").Set(idx.NSE)
	m.IndexValue.WithLabelValues(scenario, "r2").Set(idx.R2)
	m.IndexValue.WithLabelValues(scenario, "rmse").Set(idx.RMSE)
}
