package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Known provider kinds.
const (
	ProviderNewsAPI    = "newsapi"
	ProviderGoogleNews = "googlenews"
)

// ProvidersConfig describes the ordered news provider chain.
// Providers are consulted in the order they appear.
type ProvidersConfig struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// ProviderSpec configures one provider in the chain.
type ProviderSpec struct {
	Kind     string `yaml:"kind"`
	Disabled bool   `yaml:"disabled"`

	// APIKeyEnv names the environment variable holding the credential (newsapi).
	APIKeyEnv string `yaml:"api_key_env"`

	BaseURL           string        `yaml:"base_url"`
	Language          string        `yaml:"language"`
	PageSize          int           `yaml:"page_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`

	// Locale parameters (googlenews).
	HL       string `yaml:"hl"`
	GL       string `yaml:"gl"`
	CEID     string `yaml:"ceid"`
	MaxItems int    `yaml:"max_items"`
}

// APIKey resolves the credential from the environment. Empty when unset.
func (s ProviderSpec) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// DefaultProvidersConfig returns the built-in chain: NewsAPI first, Google News RSS as fallback.
func DefaultProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		Providers: []ProviderSpec{
			{Kind: ProviderNewsAPI, APIKeyEnv: "NEWS_API_KEY"},
			{Kind: ProviderGoogleNews},
		},
	}
}

// LoadProvidersConfig loads the provider chain from a YAML file.
// An empty path returns DefaultProvidersConfig.
// The path parameter is expected to come from a trusted source (environment or CLI flag).
func LoadProvidersConfig(path string) (*ProvidersConfig, error) {
	if path == "" {
		return DefaultProvidersConfig(), nil
	}

	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var config ProvidersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse providers file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("providers file validation failed: %w", err)
	}

	return &config, nil
}

// Validate checks that the chain is non-empty and every kind is known.
func (c *ProvidersConfig) Validate() error {
	enabled := 0
	for i, p := range c.Providers {
		switch p.Kind {
		case ProviderNewsAPI, ProviderGoogleNews:
		case "":
			return fmt.Errorf("providers[%d]: kind is required", i)
		default:
			return fmt.Errorf("providers[%d]: unknown kind %q", i, p.Kind)
		}
		if p.PageSize < 0 || p.PageSize > 100 {
			return fmt.Errorf("providers[%d]: page_size must be between 0 and 100", i)
		}
		if p.RequestsPerSecond < 0 {
			return fmt.Errorf("providers[%d]: requests_per_second must not be negative", i)
		}
		if !p.Disabled {
			enabled++
		}
	}

	if enabled == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	return nil
}

// Enabled returns the enabled providers in chain order.
func (c *ProvidersConfig) Enabled() []ProviderSpec {
	out := make([]ProviderSpec, 0, len(c.Providers))
	for _, p := range c.Providers {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}
