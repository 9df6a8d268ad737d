package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"commutecast/internal/resilience/circuitbreaker"
	"commutecast/internal/usecase/episode"
	"commutecast/internal/utils/text"
)

const claudeBackend = "claude"

// Claude implements episode.Summarizer using Anthropic's Messages API.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder ScriptMetricsRecorder
}

// NewClaude creates a Claude summarizer. The SDK's built-in retries are disabled;
// a failed call fails the summarization stage.
func NewClaude(apiKey string, cfg Config, opts ...Option) *Claude {
	cfg = cfg.withDefaults(DefaultClaudeModel)
	o := buildOptions(opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	slog.Info("Initialized Claude summarizer",
		slog.String("model", cfg.Model),
		slog.Int("max_output_tokens", cfg.MaxOutputTokens),
		slog.Float64("temperature", cfg.Temperature))

	return &Claude{
		client:          anthropic.NewClient(reqOpts...),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.LLMConfig("claude-api")),
		config:          cfg,
		metricsRecorder: o.recorder,
	}
}

// Summarize implements episode.Summarizer. It makes exactly one API attempt.
func (c *Claude) Summarize(ctx context.Context, req episode.ScriptRequest) (string, error) {
	prompt, err := buildPrompt(req, c.config.MaxInputChars)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	summary, err := circuitbreaker.Do(c.circuitBreaker, func() (string, error) {
		return c.doSummarize(ctx, prompt)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			c.metricsRecorder.RecordFailure(claudeBackend, "circuit_open")
			slog.WarnContext(ctx, "claude api circuit breaker open, request rejected",
				slog.String("service", "claude-api"),
				slog.String("state", c.circuitBreaker.State().String()))
			return "", fmt.Errorf("claude api unavailable: %w", err)
		}
		return "", err
	}

	return summary, nil
}

// doSummarize performs the API call without the circuit breaker.
func (c *Claude) doSummarize(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "Starting script generation",
		slog.String("backend", claudeBackend),
		slog.Int("prompt_chars", text.CountRunes(prompt)))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxOutputTokens),
		Temperature: anthropic.Float(c.config.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)
	c.metricsRecorder.RecordDuration(claudeBackend, duration)

	if err != nil {
		c.metricsRecorder.RecordFailure(claudeBackend, "api")
		slog.ErrorContext(ctx, "Script generation failed",
			slog.String("backend", claudeBackend),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	script := strings.TrimSpace(b.String())
	if script == "" {
		c.metricsRecorder.RecordFailure(claudeBackend, "empty_response")
		return "", fmt.Errorf("claude api returned empty response")
	}

	words := text.CountWords(script)
	c.metricsRecorder.RecordWords(claudeBackend, words)

	slog.InfoContext(ctx, "Script generation completed",
		slog.String("backend", claudeBackend),
		slog.Int("words", words),
		slog.Duration("duration", duration))

	return script, nil
}
