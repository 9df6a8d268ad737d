package worker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"commutecast/internal/handler/http/respond"
	"commutecast/internal/usecase/batch"
)

// BatchRunner is satisfied by *batch.Runner.
type BatchRunner interface {
	RunBatch(ctx context.Context, now time.Time) (batch.Summary, error)
}

// DefaultMaxConcurrentBatches bounds the batches for distinct minutes running at once.
const DefaultMaxConcurrentBatches = 3

// BatchJob is the cron job that runs one batch per tick.
//
// Each tick captures its minute first. Batches for different minutes run side
// by side up to the slot limit; a tick that finds every slot busy waits for one
// within the run timeout rather than dropping its minute's subscribers. A second
// tick for a minute that is still running is skipped, so a subscriber is never
// processed twice for the same minute.
type BatchJob struct {
	runner  BatchRunner
	timeout time.Duration
	metrics *WorkerMetrics
	logger  *slog.Logger
	now     func() time.Time

	slots    *semaphore.Weighted
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// JobOption configures a BatchJob.
type JobOption func(*BatchJob)

// WithMaxConcurrentBatches overrides DefaultMaxConcurrentBatches. Values below 1 are ignored.
func WithMaxConcurrentBatches(n int) JobOption {
	return func(j *BatchJob) {
		if n >= 1 {
			j.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewBatchJob creates a BatchJob. now defaults to time.Now.
func NewBatchJob(runner BatchRunner, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger, now func() time.Time, opts ...JobOption) *BatchJob {
	if now == nil {
		now = time.Now
	}
	j := &BatchJob{
		runner:   runner,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		now:      now,
		slots:    semaphore.NewWeighted(DefaultMaxConcurrentBatches),
		inFlight: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run implements cron.Job.
func (j *BatchJob) Run() {
	j.RunOnce(context.Background())
}

// RunOnce runs a batch for the current minute and reports the tick outcome.
func (j *BatchJob) RunOnce(ctx context.Context) (outcome string) {
	now := j.now()
	minute := now.Truncate(time.Minute)
	if !j.claim(minute) {
		j.logger.Warn("batch for this minute still running, tick skipped",
			slog.Time("minute", minute))
		j.metrics.RecordTick(TickSkippedDuplicate, 0)
		return TickSkippedDuplicate
	}
	defer j.unclaim(minute)

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			j.logger.Error("batch panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			outcome = TickFailed
		}
		j.metrics.RecordTick(outcome, time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if !j.slots.TryAcquire(1) {
		j.logger.Warn("earlier batches still running, waiting for a slot",
			slog.Time("minute", minute))
		if err := j.slots.Acquire(ctx, 1); err != nil {
			j.logger.Error("no batch slot freed before the run timeout, minute not processed",
				slog.Time("minute", minute),
				slog.Any("error", err))
			return TickDropped
		}
	}
	defer j.slots.Release(1)

	summary, err := j.runner.RunBatch(ctx, now)
	if err != nil {
		j.logger.Error("batch failed", slog.String("error", respond.SanitizeError(err)))
		return TickFailed
	}

	if summary.Processed > 0 {
		j.logger.Info("batch tick completed",
			slog.String("run_id", summary.RunID),
			slog.Time("minute", minute),
			slog.Int("processed", summary.Processed),
			slog.Int("succeeded", summary.Succeeded),
			slog.Int("failed", summary.Failed),
			slog.Int("skipped", summary.Skipped),
			slog.Duration("duration", summary.Duration))
	}
	return TickRan
}

func (j *BatchJob) claim(minute time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, busy := j.inFlight[minute.Unix()]; busy {
		return false
	}
	j.inFlight[minute.Unix()] = struct{}{}
	return true
}

func (j *BatchJob) unclaim(minute time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.inFlight, minute.Unix())
}

// NewScheduler registers job on a cron evaluated in cfg.Timezone.
// An unknown timezone falls back to UTC.
func NewScheduler(cfg *WorkerConfig, job cron.Job, logger *slog.Logger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddJob(cfg.CronSchedule, job); err != nil {
		return nil, err
	}
	return c, nil
}
