package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Metrics ---

// Metrics holds all the Prometheus metrics for the scheduler.
type Metrics struct {
	runDuration  *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	retriesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics for the scheduler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keeper_job_duration_seconds",
			Help:    "Time taken by a single attempt of a job body.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keeper_job_runs_total",
			Help: "Total job body attempts, labeled by job and result.",
		}, []string{"job", "result"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keeper_job_retries_total",
			Help: "Total retries scheduled after a failed attempt.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runDuration, m.runsTotal, m.retriesTotal)
	return m
}

func (m *Metrics) observeRun(job string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runDuration.WithLabelValues(job).Observe(d.Seconds())
	m.runsTotal.WithLabelValues(job, result).Inc()
}

func (m *Metrics) observeRetry(job string) {
	m.retriesTotal.WithLabelValues(job).Inc()
}
