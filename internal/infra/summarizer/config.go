// Package summarizer turns a subscriber's news items into a conversational podcast script.
// It provides OpenAI and Claude backends behind the episode.Summarizer port, each guarded
// by a circuit breaker and instrumented with Prometheus metrics.
package summarizer

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "commutecast/internal/pkg/config"
)

// ErrEmptyInput is returned when a request carries no usable article text.
var ErrEmptyInput = errors.New("summarizer: no article content to summarize")

const (
	defaultMaxOutputTokens = 1000
	defaultTemperature     = 0.7
	defaultMaxInputChars   = 12000

	// DefaultOpenAIModel is used when SUMMARIZER_MODEL is unset and the backend is OpenAI.
	DefaultOpenAIModel = "gpt-4-turbo"
	// DefaultClaudeModel is used when SUMMARIZER_MODEL is unset and the backend is Claude.
	DefaultClaudeModel = "claude-sonnet-4-5-20250929"
)

// Config holds configuration shared by both summarizer backends.
type Config struct {
	// Model is the backend model identifier.
	Model string

	// MaxOutputTokens bounds the response length. Default: 1000.
	MaxOutputTokens int

	// Temperature controls sampling randomness, 0.0-2.0. Default: 0.7.
	Temperature float64

	// MaxInputChars caps the article corpus placed in the prompt. Default: 12000.
	MaxInputChars int

	// Timeout bounds a single API call. The pipeline applies its own stage timeout too.
	Timeout time.Duration
}

// Validate checks configuration correctness.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", c.MaxOutputTokens)
	}
	if err := pkgconfig.ValidateFloatRange(c.Temperature, 0, 2); err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	if c.MaxInputChars <= 0 {
		return fmt.Errorf("max input chars must be positive, got %d", c.MaxInputChars)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadConfig reads the summarizer settings from the environment, falling back to
// defaults on invalid values. Warnings describe every fallback applied.
//
// Environment variables:
//   - SUMMARIZER_MODEL (default depends on backend)
//   - SUMMARIZER_MAX_TOKENS (default 1000, range 100-8000)
//   - SUMMARIZER_TEMPERATURE (default 0.7, range 0.0-2.0)
//   - SUMMARIZER_MAX_INPUT_CHARS (default 12000)
//   - SUMMARIZER_TIMEOUT (default 60s)
func LoadConfig(defaultModel string) (Config, []string) {
	var warnings []string
	collect := func(r pkgconfig.ConfigLoadResult) pkgconfig.ConfigLoadResult {
		warnings = append(warnings, r.Warnings...)
		return r
	}

	cfg := Config{
		Model: pkgconfig.LoadEnvString("SUMMARIZER_MODEL", defaultModel),
		MaxOutputTokens: collect(pkgconfig.LoadEnvInt("SUMMARIZER_MAX_TOKENS", defaultMaxOutputTokens,
			func(v int) error { return pkgconfig.ValidateIntRange(v, 100, 8000) })).Value.(int),
		Temperature: collect(pkgconfig.LoadEnvFloat("SUMMARIZER_TEMPERATURE", defaultTemperature,
			func(v float64) error { return pkgconfig.ValidateFloatRange(v, 0, 2) })).Value.(float64),
		MaxInputChars: collect(pkgconfig.LoadEnvInt("SUMMARIZER_MAX_INPUT_CHARS", defaultMaxInputChars,
			func(v int) error { return pkgconfig.ValidateIntRange(v, 1000, 100000) })).Value.(int),
		Timeout: collect(pkgconfig.LoadEnvDuration("SUMMARIZER_TIMEOUT", 60*time.Second,
			pkgconfig.ValidatePositiveDuration)).Value.(time.Duration),
	}
	return cfg, warnings
}

// withDefaults fills zero fields so tests and callers can pass a partial Config.
// Temperature is left alone because zero is a valid setting.
func (c Config) withDefaults(defaultModel string) Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = defaultMaxOutputTokens
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = defaultMaxInputChars
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}
