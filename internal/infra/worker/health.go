package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"commutecast/internal/usecase/delivery"
)

// ChannelHealth reports the delivery channel state. *delivery.Service implements it.
type ChannelHealth interface {
	Health() delivery.ChannelHealthStatus
}

// HealthServer serves the worker probes:
//   - GET /health: liveness, always 200
//   - GET /health/ready: 200 once the scheduler is running, 503 before
//
// Both include the delivery channel state when one is attached. An open
// delivery breaker does not fail readiness; unsent episodes are resent later.
type HealthServer struct {
	addr     string
	logger   *slog.Logger
	isReady  *atomic.Bool
	delivery ChannelHealth
	server   *http.Server
}

type healthResponse struct {
	Status   string                        `json:"status"`
	Delivery *delivery.ChannelHealthStatus `json:"delivery,omitempty"`
}

// NewHealthServer creates a server listening on addr. It starts not ready.
// delivery may be nil.
func NewHealthServer(addr string, logger *slog.Logger, delivery ChannelHealth) *HealthServer {
	return &HealthServer{
		addr:     addr,
		logger:   logger,
		isReady:  &atomic.Bool{},
		delivery: delivery,
	}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is cancelled, then shuts down within 5 seconds.
// It returns http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		if err != http.ErrServerClosed {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, "ok")
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	status := "ok"
	if h.delivery != nil && h.delivery.Health().CircuitBreakerOpen {
		status = "degraded"
	}
	h.write(w, http.StatusOK, status)
}

func (h *HealthServer) write(w http.ResponseWriter, code int, status string) {
	resp := healthResponse{Status: status}
	if h.delivery != nil {
		st := h.delivery.Health()
		resp.Delivery = &st
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
