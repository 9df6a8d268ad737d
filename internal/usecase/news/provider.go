package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commutecast/internal/domain/entity"
)

// Provider fetches candidate news items for one topic from one upstream source.
//
// Fetch returns an empty slice and a nil error when the query is valid but nothing matched.
// Every other failure must wrap ErrSourceUnavailable.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, topic entity.Topic) ([]entity.NewsItem, error)
}

// CallTimeouter is implemented by providers configured with their own call
// timeout. A positive value overrides the aggregator default.
type CallTimeouter interface {
	CallTimeout() time.Duration
}

// OutcomeKind tags the result of asking one provider about one topic.
type OutcomeKind int

const (
	// OutcomeEmpty means the provider answered but had nothing for the topic.
	OutcomeEmpty OutcomeKind = iota
	// OutcomeSuccess means the provider returned at least one item.
	OutcomeSuccess
	// OutcomeUnavailable means the provider failed.
	OutcomeUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "empty"
	}
}

// Outcome is the tagged result of one provider call.
type Outcome struct {
	Provider string
	Kind     OutcomeKind
	Items    []entity.NewsItem
	Err      error
}

// Probe calls p for topic and folds the result into an Outcome. It never fails.
// Errors that do not already wrap ErrSourceUnavailable are wrapped so callers can rely on errors.Is.
func Probe(ctx context.Context, p Provider, topic entity.Topic) Outcome {
	items, err := p.Fetch(ctx, topic)
	switch {
	case err != nil:
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%s: %w: %w", p.Name(), ErrSourceUnavailable, err)
		}
		return Outcome{Provider: p.Name(), Kind: OutcomeUnavailable, Err: err}
	case len(items) == 0:
		return Outcome{Provider: p.Name(), Kind: OutcomeEmpty}
	default:
		return Outcome{Provider: p.Name(), Kind: OutcomeSuccess, Items: items}
	}
}

// SelectFirst consumes outcomes lazily from next until one succeeds.
// next returns false when the chain is exhausted. If nothing succeeds the last
// outcome seen is returned, or an empty outcome when the chain was empty.
func SelectFirst(next func() (Outcome, bool)) Outcome {
	last := Outcome{Kind: OutcomeEmpty}
	for {
		o, ok := next()
		if !ok {
			return last
		}
		if o.Kind == OutcomeSuccess {
			return o
		}
		last = o
	}
}
