package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"commutecast/internal/observability/metrics"
)

// knownRoutes are recorded under their own path label. Everything else is
// folded into "other" so scanners cannot inflate label cardinality.
var knownRoutes = map[string]struct{}{
	"/health":                     {},
	"/ready":                      {},
	"/live":                       {},
	"/metrics":                    {},
	"/api/cron/generate-episodes": {},
}

func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

// MetricsMiddleware records request count, latency and response size.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(
			r.Method,
			routeLabel(r.URL.Path),
			strconv.Itoa(rec.status),
			time.Since(start),
			rec.bytes,
		)
	})
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
