package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics tracks maintenance job runs and the last ledger scan.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	drift       prometheus.Gauge
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maintenance_job_duration_seconds",
			Help:    "Wall time of maintenance job runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_job_runs_total",
			Help: "Maintenance job runs, by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maintenance_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"job"}),
		drift: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_ledger_drift_products",
			Help: "Products whose stock column disagreed with the ledger on the last reconciliation.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.drift)
	return m
}

// ObserveRun records one finished job run.
func (m *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if err != nil {
		m.runs.WithLabelValues(job, "failure").Inc()
		return
	}
	m.runs.WithLabelValues(job, "success").Inc()
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// SetDriftedProducts publishes the result of the latest ledger scan.
func (m *CronJobMetrics) SetDriftedProducts(count int) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.Set(float64(count))
}
