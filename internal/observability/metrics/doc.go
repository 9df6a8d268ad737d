// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the application metrics:
//   - HTTP request metrics (duration, count, size)
//   - Episode pipeline metrics (generated episodes, stage failures and durations)
//   - News provider outcomes for the fallback chain
//   - Content enrichment and batch run metrics
//
// All metrics are registered with the Prometheus default registry through promauto
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "commutecast/internal/observability/metrics"
//
//	agg := news.NewAggregator(chain, news.WithOutcomeRecorder(metrics.ProviderOutcomes{}))
//
//	start := time.Now()
//	// ... run the summarization stage ...
//	metrics.RecordStageDuration("summarization", time.Since(start))
package metrics
