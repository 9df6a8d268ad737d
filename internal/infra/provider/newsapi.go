// Package provider implements the news providers consulted by the aggregator:
// the NewsAPI "everything" endpoint and the Google News RSS search feed.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"commutecast/internal/domain/entity"
	"commutecast/internal/resilience/circuitbreaker"
	"commutecast/internal/usecase/news"
)

const (
	// DefaultNewsAPIBaseURL is the public NewsAPI endpoint.
	DefaultNewsAPIBaseURL = "https://newsapi.org"

	newsAPIName = "newsapi"

	// maxNewsAPIBody bounds the response body read into memory.
	maxNewsAPIBody = 2 << 20
)

// NewsAPIConfig configures the NewsAPI provider.
type NewsAPIConfig struct {
	// APIKey is sent in the X-Api-Key header. An empty key disables the provider.
	APIKey string

	// BaseURL overrides DefaultNewsAPIBaseURL (tests point this at httptest).
	BaseURL string

	// Language filters articles by ISO-639-1 code (default "en").
	Language string

	// PageSize is the number of articles requested per topic (default 5).
	PageSize int

	// RequestsPerSecond and Burst size the client-side token bucket.
	RequestsPerSecond float64
	Burst             int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// DefaultNewsAPIConfig returns the defaults used by the worker.
func DefaultNewsAPIConfig() NewsAPIConfig {
	return NewsAPIConfig{
		BaseURL:           DefaultNewsAPIBaseURL,
		Language:          "en",
		PageSize:          5,
		RequestsPerSecond: 1,
		Burst:             5,
		Timeout:           30 * time.Second,
	}
}

// NewsAPI fetches articles from the NewsAPI /v2/everything endpoint.
type NewsAPI struct {
	cfg            NewsAPIConfig
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewNewsAPI creates a NewsAPI provider. Zero-valued fields in cfg take their defaults.
func NewNewsAPI(cfg NewsAPIConfig, client *http.Client) *NewsAPI {
	def := DefaultNewsAPIConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &NewsAPI{
		cfg:            cfg,
		client:         client,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		circuitBreaker: circuitbreaker.New(circuitbreaker.NewsProviderConfig(newsAPIName)),
	}
}

// Name implements news.Provider.
func (p *NewsAPI) Name() string { return newsAPIName }

// CallTimeout implements news.CallTimeouter.
func (p *NewsAPI) CallTimeout() time.Duration { return p.cfg.Timeout }

// newsAPIResponse mirrors the subset of the NewsAPI payload we use.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Fetch implements news.Provider.
//
// Every failure, including a missing API key, a non-2xx status, a payload whose
// status is not "ok", and a decode error, wraps news.ErrSourceUnavailable.
func (p *NewsAPI) Fetch(ctx context.Context, topic entity.Topic) ([]entity.NewsItem, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("newsapi: api key not configured: %w", news.ErrSourceUnavailable)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("newsapi: rate limiter: %w: %w", news.ErrSourceUnavailable, err)
	}

	items, err := circuitbreaker.Do(p.circuitBreaker, func() ([]entity.NewsItem, error) {
		return p.doFetch(ctx, topic)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.WarnContext(ctx, "newsapi circuit breaker open, request rejected",
				slog.String("provider", newsAPIName),
				slog.String("state", p.circuitBreaker.State().String()))
		}
		if errors.Is(err, news.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("newsapi: %w: %w", news.ErrSourceUnavailable, err)
	}

	return items, nil
}

func (p *NewsAPI) doFetch(ctx context.Context, topic entity.Topic) ([]entity.NewsItem, error) {
	q := url.Values{}
	q.Set("q", string(topic))
	q.Set("language", p.cfg.Language)
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", strconv.Itoa(p.cfg.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNewsAPIBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var payload newsAPIResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("newsapi: status %d: %s: %w", resp.StatusCode, msg, news.ErrSourceUnavailable)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w: %w", news.ErrSourceUnavailable, decodeErr)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q (%s): %w", payload.Status, payload.Message, news.ErrSourceUnavailable)
	}

	items := make([]entity.NewsItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = time.Now().UTC()
		}
		items = append(items, entity.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: publishedAt,
			Content:     a.Content,
		})
	}

	slog.DebugContext(ctx, "newsapi fetch complete",
		slog.String("provider", newsAPIName),
		slog.String("topic", string(topic)),
		slog.Int("count", len(items)))

	return items, nil
}
