// Package observability groups the logging, metrics, SLO and tracing infrastructure.
//
// Subpackages:
//   - logging: slog constructors and context propagation (request and run IDs)
//   - metrics: Prometheus metrics registry and recorders
//   - slo: episode delivery objectives derived from batch results
//   - tracing: OpenTelemetry tracer and HTTP middleware
//
// Example usage:
//
//	import (
//	    "commutecast/internal/observability/logging"
//	    "commutecast/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordEpisodeGenerated()
//	}
package observability
