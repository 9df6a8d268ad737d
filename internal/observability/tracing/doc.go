// Package tracing provides OpenTelemetry tracing integration.
//
// Only the otel API is used here. Spans go to whatever TracerProvider the
// deployment installs globally; without one they are no-ops.
//
// Traced operations:
//   - Incoming HTTP requests (Middleware), with W3C trace context extraction
//   - The batch run and each subscriber pipeline
//   - Every pipeline stage (aggregation, summarization, synthesis, persist, delivery)
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "episode.summarization",
//	    attribute.String("subscriber_id", sub.ID))
//	defer span.End()
package tracing
