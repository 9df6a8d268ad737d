package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"commutecast/internal/app"
	"commutecast/internal/handler/http/respond"
	workerPkg "commutecast/internal/infra/worker"
	"commutecast/internal/observability/logging"
)

func main() {
	resendUnsent := flag.Bool("resend-unsent", false, "deliver episodes whose earlier delivery failed, then exit")
	flag.Parse()

	logger := initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("resend_limit", workerConfig.ResendLimit),
		slog.Int("health_port", workerConfig.HealthPort))

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

	if *resendUnsent {
		if err := runResend(ctx, logger, a, workerConfig, workerMetrics); err != nil {
			logger.Error("resend failed", slog.String("error", respond.SanitizeError(err)))
			os.Exit(1)
		}
		return
	}

	startMetricsServer(ctx, logger, a.Delivery)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger, a.Delivery)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := workerPkg.NewBatchJob(a.Runner, workerConfig.RunTimeout, workerMetrics, logger, nil,
		workerPkg.WithMaxConcurrentBatches(workerConfig.MaxConcurrentBatches))
	startCronWorker(ctx, logger, job, workerConfig, healthServer)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// startCronWorker runs the batch job on the configured schedule until ctx is
// cancelled, then waits for an in-flight batch to finish.
func startCronWorker(ctx context.Context, logger *slog.Logger, job *workerPkg.BatchJob, cfg *workerPkg.WorkerConfig, healthServer *workerPkg.HealthServer) {
	c, err := workerPkg.NewScheduler(cfg, job, logger)
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker stopping, waiting for running batches")
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// runResend retries delivery of stored episodes that were never marked sent.
func runResend(ctx context.Context, logger *slog.Logger, a *app.App, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	summary, err := a.Delivery.ResendUnsent(ctx, cfg.ResendLimit, a.Config.Timeouts.Deliver)
	metrics.RecordResend(summary.Sent, summary.Failed, summary.Skipped)
	if err != nil {
		return err
	}

	logger.Info("resend completed",
		slog.Int("attempted", summary.Attempted),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))
	return nil
}
