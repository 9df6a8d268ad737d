package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"commutecast/internal/handler/http/requestid"
)

// installRecorder swaps in an in-memory provider for the duration of the test.
func installRecorder(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return exporter, tp
}

func serve(t *testing.T, tp *sdktrace.TracerProvider, status int, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	_ = tp.ForceFlush(context.Background())
	return rr
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := installRecorder(t)

	rr := serve(t, tp, http.StatusOK, httptest.NewRequest(http.MethodPost, "/api/cron/generate-episodes", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "POST /api/cron/generate-episodes" {
		t.Errorf("span name = %q", span.Name)
	}

	attrs := attrMap(span.Attributes)
	if got := attrs["http.method"].AsString(); got != "POST" {
		t.Errorf("http.method = %q, want POST", got)
	}
	if got := attrs["http.path"].AsString(); got != "/api/cron/generate-episodes" {
		t.Errorf("http.path = %q", got)
	}
	if got := attrs["http.status_code"].AsInt64(); got != 200 {
		t.Errorf("http.status_code = %d, want 200", got)
	}

	traceID := rr.Header().Get("X-Trace-Id")
	if len(traceID) != 32 {
		t.Errorf("X-Trace-Id = %q, want 32 hex characters", traceID)
	}
	if traceID != span.SpanContext.TraceID().String() {
		t.Error("X-Trace-Id does not match the recorded span")
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := installRecorder(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator()) })

	req := httptest.NewRequest(http.MethodGet, "/api/cron/generate-episodes", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(t, tp, http.StatusOK, req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s, want the propagated one", got)
	}
}

func TestMiddleware_ErrorMarking(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{name: "5xx marks error", status: http.StatusInternalServerError, wantError: true},
		{name: "401 is not an error", status: http.StatusUnauthorized, wantError: false},
		{name: "404 is not an error", status: http.StatusNotFound, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, tp := installRecorder(t)
			serve(t, tp, tt.status, httptest.NewRequest(http.MethodGet, "/x", nil))

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			_, hasError := attrMap(spans[0].Attributes)["error"]
			if hasError != tt.wantError {
				t.Errorf("error attribute present = %v, want %v", hasError, tt.wantError)
			}
			if tt.wantError && spans[0].Status.Code != codes.Error {
				t.Errorf("span status = %v, want Error", spans[0].Status.Code)
			}
		})
	}
}

func TestStartSpan(t *testing.T) {
	exporter, tp := installRecorder(t)

	_, span := StartSpan(context.Background(), "episode.persist", attribute.String("subscriber_id", "sub-1"))
	span.End()
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].InstrumentationScope.Name != TracerName {
		t.Errorf("scope = %q, want %q", spans[0].InstrumentationScope.Name, TracerName)
	}
	if got := attrMap(spans[0].Attributes)["subscriber_id"].AsString(); got != "sub-1" {
		t.Errorf("subscriber_id = %q", got)
	}
}

func TestMiddleware_NamesSpanByRoutePattern(t *testing.T) {
	exporter, tp := installRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /episodes/{id}", func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/episodes/ep-42", nil)
	req = req.WithContext(requestid.WithRequestID(req.Context(), "req-7"))

	Middleware(mux).ServeHTTP(httptest.NewRecorder(), req)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "GET /episodes/{id}" {
		t.Errorf("span name = %q, want the route pattern", spans[0].Name)
	}
	attrs := attrMap(spans[0].Attributes)
	if got := attrs["request_id"].AsString(); got != "req-7" {
		t.Errorf("request_id = %q, want req-7", got)
	}
	if got := attrs["http.path"].AsString(); got != "/episodes/ep-42" {
		t.Errorf("http.path = %q", got)
	}
}

func TestStatusCapture_KeepsFirstStatus(t *testing.T) {
	sc := &statusCapture{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	sc.WriteHeader(http.StatusCreated)
	sc.WriteHeader(http.StatusInternalServerError)
	if sc.status != http.StatusCreated {
		t.Errorf("status = %d, want 201", sc.status)
	}
}
