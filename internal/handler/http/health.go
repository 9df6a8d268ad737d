// Package http holds the HTTP surface of the service: the episode trigger
// routes, probes, Prometheus scraping and the middleware chain around them.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"commutecast/internal/handler/http/respond"
	"commutecast/internal/usecase/delivery"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ChannelHealth reports the delivery channel state. *delivery.Service implements it.
type ChannelHealth interface {
	Health() delivery.ChannelHealthStatus
}

// HealthHandler checks the database and the delivery channel.
// A down database is unhealthy; an open delivery breaker only degrades.
type HealthHandler struct {
	DB       *sql.DB
	Delivery ChannelHealth
	Version  string
	Now      func() time.Time
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"database": h.checkDatabase(ctx),
	}
	if h.Delivery != nil {
		checks["delivery"] = h.checkDelivery()
	}

	status := "healthy"
	code := http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case "unhealthy":
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		case "degraded":
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "health: database ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: "unhealthy", Message: "database unreachable"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80 {
			return CheckStatus{Status: "degraded", Message: "connection pool utilization above 80%", Details: details}
		}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func (h *HealthHandler) checkDelivery() CheckStatus {
	st := h.Delivery.Health()
	details := map[string]any{
		"channel":              st.Name,
		"enabled":              st.Enabled,
		"circuit_breaker_open": st.CircuitBreakerOpen,
	}
	switch {
	case !st.Enabled:
		return CheckStatus{Status: "degraded", Message: "delivery channel disabled", Details: details}
	case st.CircuitBreakerOpen:
		return CheckStatus{Status: "degraded", Message: "delivery circuit breaker open", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler answers the readiness probe: 200 once the database answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	writeText(w, "ready")
}

// LiveHandler answers the liveness probe.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "alive")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Debug("probe: failed to write response", slog.Any("error", err))
	}
}
