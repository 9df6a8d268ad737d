// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Episode metrics track the per-subscriber pipeline
var (
	// EpisodesGeneratedTotal counts episodes that were persisted and delivered
	EpisodesGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "episodes_generated_total",
			Help: "Total number of episodes generated and delivered",
		},
	)

	// EpisodeStageFailuresTotal counts pipeline failures by the stage that failed
	EpisodeStageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "episode_stage_failures_total",
			Help: "Total number of episode pipeline failures by stage",
		},
		[]string{"stage"},
	)

	// EpisodeStageDuration measures how long each pipeline stage took
	EpisodeStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "episode_stage_duration_seconds",
			Help:    "Duration of one episode pipeline stage in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
)

// News provider metrics track the fallback chain
var (
	// ProviderOutcomesTotal counts provider attempts by outcome kind (success, empty, unavailable)
	ProviderOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_provider_outcomes_total",
			Help: "Total number of news provider attempts by outcome",
		},
		[]string{"provider", "kind"},
	)

	// ProviderDuration measures one provider attempt
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "news_provider_duration_seconds",
			Help:    "Duration of one news provider attempt in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
)

// Content enrichment metrics
var (
	// ContentFetchAttemptsTotal counts content fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// ContentFetchSize measures fetched content size in bytes
	ContentFetchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_size_bytes",
			Help:    "Fetched article content size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 4, 9), // up to ~6.5MB
		},
	)
)

// Batch metrics track one run over all due subscribers
var (
	// BatchRunsTotal counts batch runs by status (success, failure)
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total number of episode batch runs by status",
		},
		[]string{"status"},
	)

	// BatchDuration measures one batch run
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Duration of one episode batch run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	// BatchLastSuccessTimestamp holds the Unix time of the last batch that loaded subscribers
	BatchLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_last_success_timestamp",
			Help: "Unix timestamp of the last successful batch run",
		},
	)

	// BatchSubscriberResultsTotal counts per-subscriber results by status
	BatchSubscriberResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_subscriber_results_total",
			Help: "Total number of subscriber pipeline results by status",
		},
		[]string{"status"}, // status: succeeded, failed, skipped
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
