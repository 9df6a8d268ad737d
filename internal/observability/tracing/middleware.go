package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"commutecast/internal/handler/http/requestid"
)

type statusCapture struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusCapture) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusCapture) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Middleware starts a server span per request from the incoming W3C trace
// context and returns the trace ID in X-Trace-Id.
//
// Once the mux has matched, the span is renamed to the route pattern, so
// "GET /items/{id}" is one span name rather than one per id. 5xx responses
// mark the span as an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := GetTracer().Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		sc := &statusCapture{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(sc, r)

		if r.Pattern != "" {
			span.SetName(r.Pattern)
		}
		attrs := []attribute.KeyValue{
			attribute.Int("http.status_code", sc.status),
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		}
		if id := requestid.FromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}
		span.SetAttributes(attrs...)

		if sc.status >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
			span.SetStatus(codes.Error, http.StatusText(sc.status))
		}
	})
}
