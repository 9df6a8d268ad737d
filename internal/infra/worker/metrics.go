package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"commutecast/internal/pkg/config"
)

// WorkerMetrics covers the cron loop itself. Batch and episode outcomes are
// recorded by the batch runner; these count ticks and what became of them.
//
// Embedded from ConfigMetrics:
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total{field}
//   - worker_config_fallbacks_total{field}
//   - worker_config_fallback_active
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronTicksTotal counts ticks by outcome: ran, skipped_duplicate, dropped, failed.
	CronTicksTotal *prometheus.CounterVec

	// CronTickDurationSeconds is the wall time of a tick that ran a batch.
	CronTickDurationSeconds prometheus.Histogram

	// CronLastTickTimestamp is set on every tick that ran, regardless of outcome.
	CronLastTickTimestamp prometheus.Gauge

	// ResendTotal counts episodes handled by -resend-unsent by outcome.
	ResendTotal *prometheus.CounterVec
}

var (
	workerMetricsOnce     sync.Once
	workerMetricsInstance *WorkerMetrics
)

// NewWorkerMetrics returns the process-wide worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetricsInstance = &WorkerMetrics{
			ConfigMetrics: config.NewConfigMetrics("worker"),

			CronTicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "worker_cron_ticks_total",
				Help: "Cron ticks by outcome (ran, skipped_duplicate, dropped, failed)",
			}, []string{"outcome"}),

			CronTickDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "worker_cron_tick_duration_seconds",
				Help:    "Duration of cron ticks that ran a batch",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 300, 900},
			}),

			CronLastTickTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "worker_cron_last_tick_timestamp",
				Help: "Unix timestamp of the last cron tick that ran a batch",
			}),

			ResendTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "worker_resend_episodes_total",
				Help: "Unsent episodes handled by the resend command by outcome",
			}, []string{"outcome"}),
		}
	})
	return workerMetricsInstance
}

// RecordTick counts one tick with its outcome. Ticks that ran also update
// the duration histogram and last-tick timestamp.
func (m *WorkerMetrics) RecordTick(outcome string, seconds float64) {
	m.CronTicksTotal.WithLabelValues(outcome).Inc()
	if outcome == TickSkippedDuplicate {
		return
	}
	m.CronTickDurationSeconds.Observe(seconds)
	m.CronLastTickTimestamp.SetToCurrentTime()
}

// RecordResend adds the outcome counts of one resend pass.
func (m *WorkerMetrics) RecordResend(sent, failed, skipped int) {
	m.ResendTotal.WithLabelValues("sent").Add(float64(sent))
	m.ResendTotal.WithLabelValues("failed").Add(float64(failed))
	m.ResendTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// Tick outcomes.
const (
	TickRan              = "ran"
	TickSkippedDuplicate = "skipped_duplicate"
	TickDropped          = "dropped"
	TickFailed           = "failed"
)
