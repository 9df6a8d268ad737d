// Package batch runs the episode pipeline for every subscriber due at one instant.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"commutecast/internal/domain/entity"
	"commutecast/internal/observability/logging"
	"commutecast/internal/observability/metrics"
	"commutecast/internal/observability/slo"
	"commutecast/internal/observability/tracing"
	"commutecast/internal/repository"
	"commutecast/internal/resilience/retry"
	"commutecast/internal/usecase/episode"
	"commutecast/internal/usecase/schedule"
)

// DefaultMaxConcurrent bounds the pipelines running at once.
const DefaultMaxConcurrent = 5

// PipelineRunner runs one subscriber. *episode.Pipeline satisfies it.
type PipelineRunner interface {
	Run(ctx context.Context, sub entity.Subscriber) episode.Result
}

// SubscriberResult is the per-subscriber line of a Summary.
type SubscriberResult struct {
	SubscriberID string
	Status       episode.Status
	Stage        episode.Stage
	Err          error
	Reason       string
	EpisodeID    string
	Duration     time.Duration
}

// Error returns the cause text, or "".
func (r SubscriberResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary describes one batch run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	// Processed is the number of due subscribers that were run.
	Processed int
	Succeeded int
	Failed    int
	// Skipped counts every skipped result, including NotDue.
	Skipped int
	NotDue  int
	// Results holds one entry per active subscriber, in load order, followed
	// by a StageLoad failure for each subscriber whose row could not be decoded.
	Results []SubscriberResult
}

// Runner loads subscribers, applies the delivery-time gate and fans out pipelines.
type Runner struct {
	subscribers   repository.SubscriberRepository
	pipeline      PipelineRunner
	gate          schedule.Gate
	maxConcurrent int
	listRetry     retry.Config
	logger        *slog.Logger
	newRunID      func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxConcurrent overrides DefaultMaxConcurrent. Values below 1 are ignored.
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.maxConcurrent = n
		}
	}
}

// WithListRetry overrides the retry policy for loading subscribers.
func WithListRetry(cfg retry.Config) Option {
	return func(r *Runner) { r.listRetry = cfg }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRunIDGenerator overrides the run ID generator.
func WithRunIDGenerator(f func() string) Option {
	return func(r *Runner) { r.newRunID = f }
}

// NewRunner creates a Runner.
func NewRunner(subscribers repository.SubscriberRepository, pipeline PipelineRunner, gate schedule.Gate, opts ...Option) *Runner {
	r := &Runner{
		subscribers:   subscribers,
		pipeline:      pipeline,
		gate:          gate,
		maxConcurrent: DefaultMaxConcurrent,
		listRetry:     retry.DBConfig(),
		logger:        slog.Default(),
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunBatch generates episodes for every subscriber due at now. Active subscribers
// that are not due get a skipped result with reason SkipNotDue.
//
// The only error is ErrSubscriberListUnavailable. Individual subscriber failures are
// reported in the Summary and never abort the batch.
func (r *Runner) RunBatch(ctx context.Context, now time.Time) (Summary, error) {
	runID := r.newRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "batch.run", attribute.String("run_id", runID))
	defer span.End()

	logger := logging.WithRunID(ctx, r.logger)
	start := time.Now()

	var (
		subs    []*entity.Subscriber
		rowErrs []*repository.RowError
	)
	err := retry.WithBackoff(ctx, r.listRetry, func() error {
		var err error
		subs, err = r.subscribers.ListActive(ctx)
		if errors.Is(err, repository.ErrUndecodableRows) {
			rowErrs = repository.RowErrors(err)
			return nil
		}
		return err
	})
	if err != nil {
		metrics.RecordBatchRun("failure", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscriber list unavailable")
		logger.ErrorContext(ctx, "failed to load subscribers", slog.Any("error", err))
		return Summary{}, fmt.Errorf("%w: %w", ErrSubscriberListUnavailable, err)
	}

	subs = slices.DeleteFunc(slices.Clone(subs), func(s *entity.Subscriber) bool { return s == nil })
	results := make([]episode.Result, len(subs), len(subs)+len(rowErrs))
	due := 0
	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for i, sub := range subs {
		if !r.gate.IsDue(now, sub.DeliveryTime) {
			results[i] = episode.Skipped(sub.ID, episode.SkipNotDue)
			continue
		}
		due++
		g.Go(func() error {
			results[i] = r.runOne(ctx, *sub, logger)
			return nil
		})
	}
	logger.InfoContext(ctx, "batch started",
		slog.Time("now", now),
		slog.Int("active", len(subs)),
		slog.Int("due", due),
		slog.Int("undecodable", len(rowErrs)),
		slog.Int("max_concurrent", r.maxConcurrent))
	_ = g.Wait()

	for _, re := range rowErrs {
		logger.WarnContext(ctx, "subscriber preferences undecodable",
			slog.String("subscriber_id", re.SubscriberID),
			slog.Any("error", re.Err))
		metrics.RecordStageFailure(string(episode.StageLoad))
		results = append(results, episode.Failed(re.SubscriberID, episode.StageLoad, re))
	}

	summary := Summary{
		RunID:     runID,
		StartedAt: now,
		Processed: due,
		Results:   make([]SubscriberResult, len(results)),
	}
	for i, res := range results {
		switch res.Status {
		case episode.StatusSucceeded:
			summary.Succeeded++
		case episode.StatusSkipped:
			summary.Skipped++
			if res.Reason == episode.SkipNotDue {
				summary.NotDue++
			}
		default:
			summary.Failed++
		}
		summary.Results[i] = SubscriberResult{
			SubscriberID: res.SubscriberID,
			Status:       res.Status,
			Stage:        res.Stage,
			Err:          res.Err,
			Reason:       res.Reason,
			EpisodeID:    res.EpisodeID(),
			Duration:     res.Duration,
		}
	}
	summary.Duration = time.Since(start)

	metrics.RecordBatchRun("success", summary.Duration)
	metrics.RecordBatchResults(summary.Succeeded, summary.Failed, summary.Skipped-summary.NotDue)
	if !slo.ObserveBatch(summary.Processed, summary.Succeeded, summary.Duration) {
		logger.WarnContext(ctx, "batch missed its service level objective",
			slog.Int("processed", summary.Processed),
			slog.Int("succeeded", summary.Succeeded),
			slog.Duration("duration", summary.Duration))
	}

	span.SetAttributes(
		attribute.Int("processed", summary.Processed),
		attribute.Int("succeeded", summary.Succeeded),
		attribute.Int("failed", summary.Failed))
	logger.InfoContext(ctx, "batch complete",
		slog.Int("processed", summary.Processed),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("not_due", summary.NotDue),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}

// runOne shields the batch from a panicking pipeline.
func (r *Runner) runOne(ctx context.Context, sub entity.Subscriber, logger *slog.Logger) (res episode.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "pipeline panic recovered",
				slog.String("subscriber_id", sub.ID),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			metrics.RecordStageFailure(string(episode.StageUnknown))
			res = episode.Failed(sub.ID, episode.StageUnknown, fmt.Errorf("%w: %v", ErrPipelinePanic, rec))
		}
	}()
	return r.pipeline.Run(ctx, sub)
}
