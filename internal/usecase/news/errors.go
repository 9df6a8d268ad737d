// Package news gathers news items for a subscriber's topics from an ordered chain of
// providers. The first provider with a non-empty result wins for a topic and the merged
// output is deduplicated by URL.
package news

import "errors"

// Sentinel errors for news aggregation.
var (
	// ErrSourceUnavailable indicates that a provider could not serve a topic: it was
	// unreachable, unauthorized, missing its credential, or returned a malformed payload.
	// The aggregator recovers from it by falling back to the next provider.
	ErrSourceUnavailable = errors.New("news source unavailable")

	// ErrAggregationExhausted indicates that no provider produced any item for any
	// requested topic.
	ErrAggregationExhausted = errors.New("no provider produced news for the requested topics")
)
