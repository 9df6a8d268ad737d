package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"commutecast/internal/usecase/delivery"
)

// startMetricsServer serves Prometheus metrics until ctx is cancelled.
//
// Endpoints:
//   - GET /metrics
//   - GET /health/channels: delivery channel state, 503 while its breaker is open
//
// Environment variables:
//   - METRICS_PORT (default 9090)
func startMetricsServer(ctx context.Context, logger *slog.Logger, svc *delivery.Service) *http.Server {
	port := getMetricsPort()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health/channels", channelHealthHandler(svc))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// getMetricsPort defaults to 9090 if METRICS_PORT is unset or invalid.
func getMetricsPort() int {
	port, err := strconv.Atoi(os.Getenv("METRICS_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}
	return port
}

func channelHealthHandler(svc *delivery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "delivery service not initialized"})
			return
		}

		status := svc.Health()
		code := http.StatusOK
		if status.Enabled && status.CircuitBreakerOpen {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
