package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commutecast/internal/app"
	hhttp "commutecast/internal/handler/http"
	"commutecast/internal/handler/http/requestid"
	"commutecast/internal/handler/http/trigger"
	"commutecast/internal/observability/logging"
	"commutecast/internal/observability/tracing"
	envconfig "commutecast/pkg/config"
)

func main() {
	logger := initLogger()
	secret := requireCronSecret(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize episode pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := envconfig.GetEnvString("VERSION", "dev")
	handler := applyMiddleware(logger, setupRoutes(logger, a, secret, version))

	runServer(ctx, logger, handler, version)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// requireCronSecret refuses to start without a trigger secret. An empty
// secret would reject every call anyway.
func requireCronSecret(logger *slog.Logger) string {
	secret, err := envconfig.RequireEnv("CRON_SECRET")
	if err != nil {
		logger.Error("trigger secret missing", slog.Any("error", err))
		os.Exit(1)
	}
	if len(secret) < 16 {
		logger.Warn("CRON_SECRET is shorter than 16 characters")
	}
	return secret
}

func setupRoutes(logger *slog.Logger, a *app.App, secret, version string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{DB: a.DB, Delivery: a.Delivery, Version: version})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: a.DB})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	trigger.Register(mux, a.Runner, secret, time.Now, logger)
	return mux
}

// applyMiddleware wraps the routes, outermost first:
// request ID, tracing, recover, logging, input validation, metrics.
func applyMiddleware(logger *slog.Logger, h http.Handler) http.Handler {
	h = hhttp.MetricsMiddleware(h)
	h = hhttp.InputValidation()(h)
	h = hhttp.Logging(logger)(h)
	h = hhttp.Recover(logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	return h
}

func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler, version string) {
	addr := envconfig.GetEnvString("HTTP_ADDR", ":8080")
	// a batch can run for minutes; the scheduler's own timeout bounds the call
	writeTimeout := envconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Minute)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
		return
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
