package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScriptMetricsRecorder records summarizer outcomes.
// Tests substitute a fake to assert on calls.
type ScriptMetricsRecorder interface {
	// RecordWords records the word count of a generated script.
	RecordWords(backend string, words int)

	// RecordDuration records the time taken by one API call.
	RecordDuration(backend string, duration time.Duration)

	// RecordFailure counts a failed call by reason ("api", "empty_response", "circuit_open").
	RecordFailure(backend, reason string)
}

// PrometheusScriptMetrics implements ScriptMetricsRecorder using Prometheus metrics.
type PrometheusScriptMetrics struct {
	words    *prometheus.HistogramVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

var (
	prometheusMetricsInstance *PrometheusScriptMetrics
	prometheusMetricsOnce     sync.Once
)

// NewPrometheusScriptMetrics returns the process-wide recorder.
// The singleton avoids duplicate registration when several backends are built.
func NewPrometheusScriptMetrics() *PrometheusScriptMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusScriptMetrics{
			words: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "episode_script_words",
				Help:    "Distribution of generated script lengths in words",
				Buckets: []float64{100, 200, 300, 400, 600, 800, 1200, 2000},
			}, []string{"backend"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "episode_script_duration_seconds",
				Help:    "Time taken to generate a script via the LLM API",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"backend"}),
			failures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "episode_script_failures_total",
				Help: "Total number of failed script generations by reason",
			}, []string{"backend", "reason"}),
		}
	})
	return prometheusMetricsInstance
}

// RecordWords implements ScriptMetricsRecorder.
func (p *PrometheusScriptMetrics) RecordWords(backend string, words int) {
	p.words.WithLabelValues(backend).Observe(float64(words))
}

// RecordDuration implements ScriptMetricsRecorder.
func (p *PrometheusScriptMetrics) RecordDuration(backend string, duration time.Duration) {
	p.duration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordFailure implements ScriptMetricsRecorder.
func (p *PrometheusScriptMetrics) RecordFailure(backend, reason string) {
	p.failures.WithLabelValues(backend, reason).Inc()
}
