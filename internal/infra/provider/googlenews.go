package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"commutecast/internal/domain/entity"
)

const (
	// DefaultGoogleNewsBaseURL is the Google News RSS search endpoint.
	DefaultGoogleNewsBaseURL = "https://news.google.com/rss/search"

	googleNewsName       = "googlenews"
	googleNewsSourceName = "Google News"

	maxFeedBody = 4 << 20
)

// GoogleNewsConfig configures the Google News RSS provider.
type GoogleNewsConfig struct {
	BaseURL string
	// Locale parameters appended to every query.
	HL   string
	GL   string
	CEID string
	// MaxItems caps the number of entries taken from the feed (0 = all).
	MaxItems  int
	UserAgent string
	Timeout   time.Duration
}

// DefaultGoogleNewsConfig returns the en-US locale.
func DefaultGoogleNewsConfig() GoogleNewsConfig {
	return GoogleNewsConfig{
		BaseURL:   DefaultGoogleNewsBaseURL,
		HL:        "en-US",
		GL:        "US",
		CEID:      "US:en",
		UserAgent: "CommuteCastBot",
		Timeout:   30 * time.Second,
	}
}

// GoogleNews searches the Google News RSS feed for a topic.
//
// It never returns an error: network and parse failures are logged and produce
// an empty result, which lets the aggregator treat it as the last resort.
type GoogleNews struct {
	cfg    GoogleNewsConfig
	client *http.Client
	now    func() time.Time
}

// NewGoogleNews creates the provider. Zero-valued fields in cfg take their defaults.
func NewGoogleNews(cfg GoogleNewsConfig, client *http.Client) *GoogleNews {
	def := DefaultGoogleNewsConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.HL == "" {
		cfg.HL = def.HL
	}
	if cfg.GL == "" {
		cfg.GL = def.GL
	}
	if cfg.CEID == "" {
		cfg.CEID = def.CEID
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &GoogleNews{cfg: cfg, client: client, now: time.Now}
}

// Name implements news.Provider.
func (p *GoogleNews) Name() string { return googleNewsName }

// CallTimeout implements news.CallTimeouter.
func (p *GoogleNews) CallTimeout() time.Duration { return p.cfg.Timeout }

// Fetch implements news.Provider.
func (p *GoogleNews) Fetch(ctx context.Context, topic entity.Topic) ([]entity.NewsItem, error) {
	items, err := p.doFetch(ctx, topic)
	if err != nil {
		slog.WarnContext(ctx, "google news fetch failed, returning no items",
			slog.String("provider", googleNewsName),
			slog.String("topic", string(topic)),
			slog.Any("error", err))
		return []entity.NewsItem{}, nil
	}
	return items, nil
}

// searchURL builds the feed URL for a topic.
func (p *GoogleNews) searchURL(topic entity.Topic) string {
	q := url.Values{}
	q.Set("q", string(topic))
	q.Set("hl", p.cfg.HL)
	q.Set("gl", p.cfg.GL)
	q.Set("ceid", p.cfg.CEID)
	return p.cfg.BaseURL + "?" + q.Encode()
}

func (p *GoogleNews) doFetch(ctx context.Context, topic entity.Topic) ([]entity.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.searchURL(topic), nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]entity.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || it.Link == "" {
			continue
		}

		source := googleNewsSourceName
		if it.Source != nil && strings.TrimSpace(it.Source.Title) != "" {
			source = strings.TrimSpace(it.Source.Title)
		}

		pubAt := p.now().UTC()
		if it.PubDateParsed != nil {
			pubAt = *it.PubDateParsed
		}

		items = append(items, entity.NewsItem{
			Title:       strings.TrimSpace(it.Title),
			Description: stripHTML(it.Description),
			URL:         it.Link,
			SourceName:  source,
			PublishedAt: pubAt,
			Content:     stripHTML(it.Content),
		})

		if p.cfg.MaxItems > 0 && len(items) >= p.cfg.MaxItems {
			break
		}
	}

	return items, nil
}
