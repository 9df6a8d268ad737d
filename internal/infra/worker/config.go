package worker

import (
	"fmt"
	"log/slog"
	"time"

	"commutecast/internal/pkg/config"
)

// WorkerConfig controls the cron loop that drives the episode batch.
//
// The batch decides per subscriber whether a delivery is due, so the default
// schedule ticks every minute and the tick itself is cheap when nobody is due.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression. Default: "* * * * *"
	CronSchedule string

	// Timezone is the IANA zone the cron schedule is evaluated in. It does not
	// affect delivery-time matching, which uses the pipeline TIMEZONE.
	// Default: "UTC"
	Timezone string

	// RunTimeout bounds one batch run. Range 1m-2h. Default: 15m
	RunTimeout time.Duration

	// ResendLimit caps the unsent episodes retried by -resend-unsent. Range 1-1000. Default: 100
	ResendLimit int

	// HealthPort serves /health and /health/ready. Range 1024-65535. Default: 9091
	HealthPort int

	// MaxConcurrentBatches bounds the batches for distinct minutes that may run
	// at once when a slow batch outlives its minute. Range 1-10. Default: 3
	MaxConcurrentBatches int
}

// DefaultConfig returns production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:         "* * * * *",
		Timezone:             "UTC",
		RunTimeout:           15 * time.Minute,
		ResendLimit:          100,
		HealthPort:           9091,
		MaxConcurrentBatches: DefaultMaxConcurrentBatches,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 2*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.ResendLimit, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("resend limit: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrentBatches, 1, 10); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent batches: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the worker settings, falling back to the default
// for any invalid value. It never fails; every fallback is logged and counted.
//
// Environment variables:
//   - CRON_SCHEDULE (default "* * * * *")
//   - WORKER_TIMEZONE (default "UTC")
//   - WORKER_RUN_TIMEOUT (default 15m)
//   - RESEND_LIMIT (default 100)
//   - WORKER_HEALTH_PORT (default 9091)
//   - WORKER_MAX_CONCURRENT_BATCHES (default 3)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallback := false

	observe := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if metrics.Observe(field, result) {
			fallback = true
			for _, w := range result.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", w))
			}
		}
		return result
	}

	cfg.CronSchedule = observe("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)).Value.(string)

	cfg.Timezone = observe("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).Value.(string)

	cfg.RunTimeout = observe("run_timeout",
		config.LoadEnvDuration("WORKER_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 2*time.Hour)
		})).Value.(time.Duration)

	cfg.ResendLimit = observe("resend_limit",
		config.LoadEnvInt("RESEND_LIMIT", cfg.ResendLimit, func(v int) error {
			return config.ValidateIntRange(v, 1, 1000)
		})).Value.(int)

	cfg.HealthPort = observe("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)

	cfg.MaxConcurrentBatches = observe("max_concurrent_batches",
		config.LoadEnvInt("WORKER_MAX_CONCURRENT_BATCHES", cfg.MaxConcurrentBatches, func(v int) error {
			return config.ValidateIntRange(v, 1, 10)
		})).Value.(int)

	metrics.SetFallbackActive(fallback)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
