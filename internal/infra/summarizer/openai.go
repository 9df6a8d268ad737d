package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"commutecast/internal/resilience/circuitbreaker"
	"commutecast/internal/usecase/episode"
	"commutecast/internal/utils/text"
)

// Option customizes a summarizer backend.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	recorder   ScriptMetricsRecorder
}

// WithBaseURL points the backend at a different API endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetricsRecorder replaces the Prometheus recorder.
func WithMetricsRecorder(r ScriptMetricsRecorder) Option {
	return func(o *options) { o.recorder = r }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.recorder == nil {
		o.recorder = NewPrometheusScriptMetrics()
	}
	return o
}

const openAIBackend = "openai"

// OpenAI implements episode.Summarizer using the OpenAI chat completions API.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder ScriptMetricsRecorder
}

// NewOpenAI creates an OpenAI summarizer.
func NewOpenAI(apiKey string, cfg Config, opts ...Option) *OpenAI {
	cfg = cfg.withDefaults(DefaultOpenAIModel)
	o := buildOptions(opts)

	clientCfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		clientCfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		clientCfg.HTTPClient = o.httpClient
	}

	slog.Info("Initialized OpenAI summarizer",
		slog.String("model", cfg.Model),
		slog.Int("max_output_tokens", cfg.MaxOutputTokens),
		slog.Float64("temperature", cfg.Temperature))

	return &OpenAI{
		client:          openai.NewClientWithConfig(clientCfg),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.LLMConfig("openai-api")),
		config:          cfg,
		metricsRecorder: o.recorder,
	}
}

// Summarize implements episode.Summarizer. It makes exactly one API attempt.
func (o *OpenAI) Summarize(ctx context.Context, req episode.ScriptRequest) (string, error) {
	prompt, err := buildPrompt(req, o.config.MaxInputChars)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	summary, err := circuitbreaker.Do(o.circuitBreaker, func() (string, error) {
		return o.doSummarize(ctx, prompt)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			o.metricsRecorder.RecordFailure(openAIBackend, "circuit_open")
			slog.WarnContext(ctx, "openai api circuit breaker open, request rejected",
				slog.String("service", "openai-api"),
				slog.String("state", o.circuitBreaker.State().String()))
			return "", fmt.Errorf("openai api unavailable: %w", err)
		}
		return "", err
	}

	return summary, nil
}

// doSummarize performs the API call without the circuit breaker.
func (o *OpenAI) doSummarize(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "Starting script generation",
		slog.String("backend", openAIBackend),
		slog.Int("prompt_chars", text.CountRunes(prompt)))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		MaxTokens:   o.config.MaxOutputTokens,
		Temperature: float32(o.config.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	duration := time.Since(start)
	o.metricsRecorder.RecordDuration(openAIBackend, duration)

	if err != nil {
		o.metricsRecorder.RecordFailure(openAIBackend, "api")
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			slog.ErrorContext(ctx, "Script generation failed",
				slog.String("backend", openAIBackend),
				slog.Int("status", apiErr.HTTPStatusCode),
				slog.Duration("duration", duration))
		}
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		o.metricsRecorder.RecordFailure(openAIBackend, "empty_response")
		return "", fmt.Errorf("openai api returned empty response")
	}

	script := strings.TrimSpace(resp.Choices[0].Message.Content)
	words := text.CountWords(script)
	o.metricsRecorder.RecordWords(openAIBackend, words)

	slog.InfoContext(ctx, "Script generation completed",
		slog.String("backend", openAIBackend),
		slog.Int("words", words),
		slog.Duration("duration", duration))

	return script, nil
}
