package news

import (
	"context"
	"log/slog"
	"time"

	"commutecast/internal/domain/entity"
)

// TopicReport records how one topic was served.
type TopicReport struct {
	Topic    entity.Topic
	Provider string
	Kind     OutcomeKind
	Count    int // items contributed after deduplication
	Err      error
}

// Result is the merged, deduplicated output of one FetchForTopics call.
type Result struct {
	Items  []entity.NewsItem
	Topics []TopicReport
}

// Exhausted reports whether no topic yielded any item.
func (r Result) Exhausted() bool {
	return len(r.Items) == 0
}

// OutcomeRecorder receives every provider outcome. It is satisfied by the metrics package.
type OutcomeRecorder interface {
	RecordProviderOutcome(provider string, kind string, duration time.Duration)
}

// Aggregator drives an ordered provider chain per topic.
//
// Providers are attempted sequentially in priority order and the first non-empty
// result wins. A provider that fails is skipped, never retried within one call.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	recorder  OutcomeRecorder
	logger    *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithProviderTimeout bounds every individual provider call. A provider that
// implements CallTimeouter with a positive value uses its own timeout instead.
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// WithOutcomeRecorder reports provider outcomes to r.
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithLogger sets the logger used for per-topic diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator returns an aggregator over providers in priority order.
func NewAggregator(providers []Provider, opts ...Option) *Aggregator {
	a := &Aggregator{
		providers: append([]Provider(nil), providers...),
		timeout:   30 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the provider names in priority order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// FetchForTopics collects items for topics in order, keeping the first occurrence of
// each URL. Items from earlier topics therefore shadow duplicates from later ones.
// A topic no provider could serve contributes nothing and processing continues.
func (a *Aggregator) FetchForTopics(ctx context.Context, topics []entity.Topic) Result {
	seen := make(map[string]struct{})
	res := Result{
		Items:  make([]entity.NewsItem, 0, len(topics)*5),
		Topics: make([]TopicReport, 0, len(topics)),
	}

	for _, topic := range topics {
		if ctx.Err() != nil {
			res.Topics = append(res.Topics, TopicReport{Topic: topic, Kind: OutcomeUnavailable, Err: ctx.Err()})
			continue
		}

		chosen := a.fetchTopic(ctx, topic)

		added := 0
		for _, item := range chosen.Items {
			if item.URL == "" {
				continue
			}
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			res.Items = append(res.Items, item)
			added++
		}

		report := TopicReport{
			Topic:    topic,
			Provider: chosen.Provider,
			Kind:     chosen.Kind,
			Count:    added,
			Err:      chosen.Err,
		}
		res.Topics = append(res.Topics, report)

		if chosen.Kind != OutcomeSuccess {
			a.logger.WarnContext(ctx, "no provider produced news for topic",
				slog.String("topic", string(topic)),
				slog.String("last_provider", chosen.Provider),
				slog.String("outcome", chosen.Kind.String()),
				slog.Any("error", chosen.Err))
		}
	}

	return res
}

// fetchTopic walks the provider chain for one topic.
func (a *Aggregator) fetchTopic(ctx context.Context, topic entity.Topic) Outcome {
	i := 0
	return SelectFirst(func() (Outcome, bool) {
		if i >= len(a.providers) {
			return Outcome{}, false
		}
		p := a.providers[i]
		i++
		return a.probe(ctx, p, topic), true
	})
}

func (a *Aggregator) probe(ctx context.Context, p Provider, topic entity.Topic) Outcome {
	timeout := a.timeout
	if ct, ok := p.(CallTimeouter); ok && ct.CallTimeout() > 0 {
		timeout = ct.CallTimeout()
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	o := Probe(callCtx, p, topic)
	if a.recorder != nil {
		a.recorder.RecordProviderOutcome(p.Name(), o.Kind.String(), time.Since(start))
	}

	if o.Kind == OutcomeUnavailable {
		a.logger.InfoContext(ctx, "provider unavailable, falling back",
			slog.String("provider", p.Name()),
			slog.String("topic", string(topic)),
			slog.Any("error", o.Err))
	}
	return o
}
