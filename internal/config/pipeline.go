package config

import (
	"fmt"
	"os"
	"time"

	envconfig "commutecast/pkg/config"
)

// PipelineConfig holds configuration for the episode batch.
type PipelineConfig struct {
	// Timezone is the IANA zone in which delivery times are evaluated.
	// Default: "UTC"
	Timezone string

	// MaxConcurrent bounds the number of subscriber pipelines running at once.
	// Default: 5
	MaxConcurrent int

	// MaxArticles caps the number of news items handed to the summarizer.
	// Default: 5
	MaxArticles int

	// EnrichContent fetches full article bodies with readability before summarizing.
	// Default: false
	EnrichContent bool

	// ProvidersFile points at an optional YAML file describing the provider chain.
	ProvidersFile string

	// SummarizerType selects the LLM backend ("openai" or "claude").
	// Default: "openai"
	SummarizerType string

	// SynthesizerType selects the TTS backend ("openai" or "placeholder").
	// Default: "openai"
	SynthesizerType string

	// DeliveryChannel selects the email transport ("resend", "smtp" or "noop").
	// Default: "resend"
	DeliveryChannel string

	// Timeouts configures per-stage call timeouts.
	Timeouts StageTimeoutConfig
}

// StageTimeoutConfig holds per-stage timeout settings.
type StageTimeoutConfig struct {
	// Provider bounds one news provider call. Default: 30s
	Provider time.Duration
	// Summarize bounds one summarizer call. Default: 60s
	Summarize time.Duration
	// Synthesize bounds one synthesizer call. Default: 60s
	Synthesize time.Duration
	// Persist bounds one episode save. Default: 10s
	Persist time.Duration
	// Deliver bounds one delivery. Default: 30s
	Deliver time.Duration
}

// LoadPipelineConfig loads pipeline configuration from environment variables.
// Returns a config with defaults if environment variables are not set; an
// unparseable value logs a warning and keeps the default.
func LoadPipelineConfig() (*PipelineConfig, error) {
	config := &PipelineConfig{
		Timezone:        envconfig.GetEnvString("TIMEZONE", "UTC"),
		MaxConcurrent:   envconfig.GetEnvInt("BATCH_MAX_CONCURRENT", 5),
		MaxArticles:     envconfig.GetEnvInt("MAX_ARTICLES", 5),
		EnrichContent:   envconfig.GetEnvBool("CONTENT_ENRICH_ENABLED", false),
		ProvidersFile:   os.Getenv("PROVIDERS_FILE"),
		SummarizerType:  envconfig.GetEnvString("SUMMARIZER_TYPE", "openai"),
		SynthesizerType: envconfig.GetEnvString("SYNTHESIZER_TYPE", "openai"),
		DeliveryChannel: envconfig.GetEnvString("DELIVERY_CHANNEL", "resend"),
		Timeouts: StageTimeoutConfig{
			Provider:   envconfig.GetEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
			Summarize:  envconfig.GetEnvDuration("SUMMARIZER_TIMEOUT", 60*time.Second),
			Synthesize: envconfig.GetEnvDuration("SYNTHESIZER_TIMEOUT", 60*time.Second),
			Persist:    envconfig.GetEnvDuration("PERSIST_TIMEOUT", 10*time.Second),
			Deliver:    envconfig.GetEnvDuration("DELIVERY_TIMEOUT", 30*time.Second),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *PipelineConfig) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", c.Timezone, err)
	}

	if c.MaxConcurrent < 1 || c.MaxConcurrent > 100 {
		return fmt.Errorf("BATCH_MAX_CONCURRENT must be between 1 and 100")
	}

	if c.MaxArticles < 1 || c.MaxArticles > 50 {
		return fmt.Errorf("MAX_ARTICLES must be between 1 and 50")
	}

	switch c.SummarizerType {
	case "openai", "claude":
	default:
		return fmt.Errorf("SUMMARIZER_TYPE must be openai or claude, got %q", c.SummarizerType)
	}

	switch c.SynthesizerType {
	case "openai", "placeholder":
	default:
		return fmt.Errorf("SYNTHESIZER_TYPE must be openai or placeholder, got %q", c.SynthesizerType)
	}

	switch c.DeliveryChannel {
	case "resend", "smtp", "noop":
	default:
		return fmt.Errorf("DELIVERY_CHANNEL must be resend, smtp or noop, got %q", c.DeliveryChannel)
	}

	if c.Timeouts.Provider <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	if c.Timeouts.Summarize <= 0 {
		return fmt.Errorf("SUMMARIZER_TIMEOUT must be positive")
	}

	if c.Timeouts.Synthesize <= 0 {
		return fmt.Errorf("SYNTHESIZER_TIMEOUT must be positive")
	}

	if c.Timeouts.Persist <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT must be positive")
	}

	if c.Timeouts.Deliver <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive")
	}

	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *PipelineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
