// Package episode turns one subscriber's topics into a delivered audio episode.
//
// A run is a straight line of stages: aggregation, summarization, synthesis,
// persist and delivery. The first failing stage ends the run. Nothing is retried
// in-process; an undelivered episode is left with sent_at unset for the resend
// command, and everything else is regenerated on the subscriber's next slot.
package episode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"commutecast/internal/domain/entity"
	"commutecast/internal/observability/logging"
	"commutecast/internal/observability/metrics"
	"commutecast/internal/observability/tracing"
	"commutecast/internal/repository"
	"commutecast/internal/usecase/news"
)

// DefaultMaxArticles caps the items handed to the summarizer.
const DefaultMaxArticles = 5

// StageTimeouts bounds each stage call. A zero value leaves the stage bounded only
// by the parent context. Aggregation has no overall bound by default because every
// provider call is already bounded by the aggregator.
type StageTimeouts struct {
	Aggregate  time.Duration
	Summarize  time.Duration
	Synthesize time.Duration
	Persist    time.Duration
	Deliver    time.Duration
}

// DefaultStageTimeouts returns the production stage timeouts.
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Summarize:  60 * time.Second,
		Synthesize: 60 * time.Second,
		Persist:    10 * time.Second,
		Deliver:    30 * time.Second,
	}
}

// Pipeline runs the episode stages for one subscriber at a time.
// It is safe for concurrent use; the batch runner shares one instance.
type Pipeline struct {
	news        NewsAggregator
	summarizer  Summarizer
	synthesizer Synthesizer
	episodes    repository.EpisodeRepository
	deliverer   Deliverer

	enricher          ContentEnricher
	enrichThreshold   int
	enrichParallelism int

	maxArticles int
	timeouts    StageTimeouts
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEnricher fetches full article bodies shorter than threshold characters,
// at most parallelism at a time, before summarizing.
func WithEnricher(e ContentEnricher, threshold, parallelism int) Option {
	return func(p *Pipeline) {
		p.enricher = e
		p.enrichThreshold = threshold
		if parallelism < 1 {
			parallelism = 1
		}
		p.enrichParallelism = parallelism
	}
}

// WithMaxArticles overrides DefaultMaxArticles. Non-positive values are ignored.
func WithMaxArticles(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxArticles = n
		}
	}
}

// WithStageTimeouts overrides DefaultStageTimeouts.
func WithStageTimeouts(t StageTimeouts) Option {
	return func(p *Pipeline) { p.timeouts = t }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides time.Now for episode timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides the episode ID generator.
func WithIDGenerator(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// NewPipeline wires the stage collaborators.
func NewPipeline(
	agg NewsAggregator,
	summarizer Summarizer,
	synthesizer Synthesizer,
	episodes repository.EpisodeRepository,
	deliverer Deliverer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		news:        agg,
		summarizer:  summarizer,
		synthesizer: synthesizer,
		episodes:    episodes,
		deliverer:   deliverer,
		maxArticles: DefaultMaxArticles,
		timeouts:    DefaultStageTimeouts(),
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run generates, persists and delivers one episode for sub. It never panics on
// collaborator errors and never returns a nil-status result.
func (p *Pipeline) Run(ctx context.Context, sub entity.Subscriber) Result {
	start := p.now()
	ctx, span := tracing.StartSpan(ctx, "episode.run",
		attribute.String("subscriber_id", sub.ID),
		attribute.String("run_id", logging.RunIDFromContext(ctx)))
	defer span.End()

	logger := logging.ForSubscriber(ctx, p.logger, sub.ID)

	res := p.run(ctx, sub, logger)
	res.SubscriberID = sub.ID
	res.Duration = p.now().Sub(start)

	span.SetAttributes(attribute.String("status", string(res.Status)))
	switch res.Status {
	case StatusSucceeded:
		metrics.RecordEpisodeGenerated()
		logger.InfoContext(ctx, "episode delivered",
			slog.String("episode_id", res.EpisodeID()),
			slog.Int("article_count", res.Episode.ArticleCount),
			slog.Duration("duration", res.Duration))
	case StatusFailed:
		metrics.RecordStageFailure(string(res.Stage))
		span.SetStatus(codes.Error, string(res.Stage))
		logger.WarnContext(ctx, "episode pipeline failed",
			slog.String("stage", string(res.Stage)),
			slog.String("episode_id", res.EpisodeID()),
			slog.Any("error", res.Err))
	case StatusSkipped:
		logger.InfoContext(ctx, "subscriber has no topics, skipping")
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, sub entity.Subscriber, logger *slog.Logger) Result {
	if !sub.HasTopics() {
		return Skipped(sub.ID, SkipNoTopics)
	}
	topics := cleanTopics(sub.Topics)

	var agg news.Result
	err := p.stage(ctx, StageAggregation, p.timeouts.Aggregate, func(ctx context.Context) error {
		agg = p.news.FetchForTopics(ctx, topics)
		if agg.Exhausted() {
			return fmt.Errorf("%w: %d topics", news.ErrAggregationExhausted, len(topics))
		}
		return nil
	})
	if err != nil {
		return Failed(sub.ID, StageAggregation, err)
	}
	for _, rep := range agg.Topics {
		logger.DebugContext(ctx, "topic served",
			slog.String("topic", string(rep.Topic)),
			slog.String("provider", rep.Provider),
			slog.String("kind", rep.Kind.String()),
			slog.Int("count", rep.Count))
	}

	items := agg.Items
	if len(items) > p.maxArticles {
		items = items[:p.maxArticles]
	}
	if p.enricher != nil {
		items = p.enrich(ctx, items, logger)
	}

	req := ScriptRequest{
		Articles:       toArticleInputs(items),
		EpisodeMinutes: sub.EpisodeMinutes,
		Topics:         topics,
	}
	var script string
	err = p.stage(ctx, StageSummarization, p.timeouts.Summarize, func(ctx context.Context) error {
		s, err := p.summarizer.Summarize(ctx, req)
		if err != nil {
			return err
		}
		script = strings.TrimSpace(s)
		if script == "" {
			return fmt.Errorf("summarizer returned an empty script")
		}
		return nil
	})
	if err != nil {
		return Failed(sub.ID, StageSummarization, fmt.Errorf("%w: %w", ErrSummarizationFailed, err))
	}

	var audioURL string
	err = p.stage(ctx, StageSynthesis, p.timeouts.Synthesize, func(ctx context.Context) error {
		u, err := p.synthesizer.Synthesize(ctx, script, sub.Voice)
		if err != nil {
			return err
		}
		if u == "" {
			return fmt.Errorf("synthesizer returned no audio url")
		}
		audioURL = u
		return nil
	})
	if err != nil {
		return Failed(sub.ID, StageSynthesis, fmt.Errorf("%w: %w", ErrSynthesisFailed, err))
	}

	ep := &entity.Episode{
		ID:           p.newID(),
		SubscriberID: sub.ID,
		Script:       script,
		AudioURL:     audioURL,
		ArticleCount: len(items),
		CreatedAt:    p.now().UTC(),
	}
	err = p.stage(ctx, StagePersist, p.timeouts.Persist, func(ctx context.Context) error {
		id, err := p.episodes.Save(ctx, ep)
		if err != nil {
			return err
		}
		if id != "" {
			ep.ID = id
		}
		return nil
	})
	if err != nil {
		return Failed(sub.ID, StagePersist, fmt.Errorf("%w: %w", ErrPersistFailed, err))
	}

	err = p.stage(ctx, StageDelivery, p.timeouts.Deliver, func(ctx context.Context) error {
		return p.deliverer.Deliver(ctx, ep, sub.Email)
	})
	if err != nil {
		if !errors.Is(err, ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		res := Failed(sub.ID, StageDelivery, err)
		res.Episode = ep
		return res
	}

	return Succeeded(sub.ID, ep)
}

// stage runs fn under its own span and timeout and records its duration.
// A result that arrives after ctx is done is a failure even when fn returned nil.
func (p *Pipeline) stage(ctx context.Context, stage Stage, timeout time.Duration, fn func(context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "episode."+string(stage))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.RecordStageDuration(string(stage), time.Since(start))
	if err == nil && ctx.Err() != nil {
		// the collaborator ignored ctx and answered after the deadline
		err = fmt.Errorf("%s answered after its deadline: %w", stage, ctx.Err())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func cleanTopics(topics []entity.Topic) []entity.Topic {
	out := make([]entity.Topic, 0, len(topics))
	for _, t := range topics {
		if s := strings.TrimSpace(string(t)); s != "" {
			out = append(out, entity.Topic(s))
		}
	}
	return out
}

func toArticleInputs(items []entity.NewsItem) []ArticleInput {
	out := make([]ArticleInput, len(items))
	for i, it := range items {
		out[i] = ArticleInput{
			Title:   it.Title,
			Source:  it.SourceName,
			Content: it.Body(),
		}
	}
	return out
}
