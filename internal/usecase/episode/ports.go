package episode

import (
	"context"

	"commutecast/internal/domain/entity"
	"commutecast/internal/usecase/news"
)

// ArticleInput is one story handed to the summarizer.
type ArticleInput struct {
	Title   string
	Source  string
	Content string
}

// ScriptRequest asks the summarizer for one episode script.
type ScriptRequest struct {
	Articles []ArticleInput
	// EpisodeMinutes is the desired spoken length. Zero lets the summarizer pick.
	EpisodeMinutes int
	Topics         []entity.Topic
}

// NewsAggregator collects and deduplicates news for a subscriber's topics.
type NewsAggregator interface {
	FetchForTopics(ctx context.Context, topics []entity.Topic) news.Result
}

// Summarizer turns articles into a spoken-style script.
type Summarizer interface {
	Summarize(ctx context.Context, req ScriptRequest) (string, error)
}

// Synthesizer turns a script into audio and returns a reference URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, script, voice string) (string, error)
}

// Deliverer sends a persisted episode to a subscriber and records the send.
type Deliverer interface {
	Deliver(ctx context.Context, ep *entity.Episode, contact string) error
}

// ContentEnricher fetches the full body of an article. Errors are not fatal.
type ContentEnricher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}
