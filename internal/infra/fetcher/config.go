package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "commutecast/internal/pkg/config"
)

// ContentFetchConfig controls article body enrichment.
type ContentFetchConfig struct {
	// Threshold is the body length in runes at or above which an item is not fetched.
	// Default: 1500
	Threshold int

	// Timeout bounds a single page fetch. Default: 10s
	Timeout time.Duration

	// Parallelism is the number of pages fetched at once for one episode. Default: 5
	Parallelism int

	// MaxBodySize is enforced while reading, not from Content-Length. Default: 10MB
	MaxBodySize int64

	// MaxRedirects is the redirect limit. Every target is re-validated. Default: 5
	MaxRedirects int

	// DenyPrivateIPs blocks hosts resolving to internal addresses. Default: true
	DenyPrivateIPs bool

	// UserAgent identifies the fetcher to publishers.
	UserAgent string
}

// DefaultConfig returns production defaults.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Threshold:      1500,
		Timeout:        10 * time.Second,
		Parallelism:    5,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "CommuteCastBot/1.0",
	}
}

// Validate checks if the configuration values are valid and safe.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Parallelism < 1 || c.Parallelism > 50 {
		return fmt.Errorf("parallelism must be between 1 and 50, got %d", c.Parallelism)
	}
	minBodySize := int64(1024)
	maxBodySize := int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads CONTENT_FETCH_* variables. Invalid values fall back to
// the default with a logged warning.
//
// Environment variables:
//   - CONTENT_FETCH_THRESHOLD (default 1500)
//   - CONTENT_FETCH_TIMEOUT (default 10s)
//   - CONTENT_FETCH_PARALLELISM (default 5, range 1-50)
//   - CONTENT_FETCH_MAX_REDIRECTS (default 5, range 0-10)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS (default true)
func LoadConfigFromEnv() ContentFetchConfig {
	cfg := DefaultConfig()

	results := map[string]pkgconfig.ConfigLoadResult{
		"threshold": pkgconfig.LoadEnvInt("CONTENT_FETCH_THRESHOLD", cfg.Threshold,
			func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 100000) }),
		"timeout": pkgconfig.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", cfg.Timeout,
			pkgconfig.ValidatePositiveDuration),
		"parallelism": pkgconfig.LoadEnvInt("CONTENT_FETCH_PARALLELISM", cfg.Parallelism,
			func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 50) }),
		"max_redirects": pkgconfig.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", cfg.MaxRedirects,
			func(v int) error { return pkgconfig.ValidateIntRange(v, 0, 10) }),
		"deny_private_ips": pkgconfig.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs),
	}
	for field, r := range results {
		for _, w := range r.Warnings {
			slog.Warn("content fetch config fallback", slog.String("field", field), slog.String("warning", w))
		}
	}

	cfg.Threshold = results["threshold"].Value.(int)
	cfg.Timeout = results["timeout"].Value.(time.Duration)
	cfg.Parallelism = results["parallelism"].Value.(int)
	cfg.MaxRedirects = results["max_redirects"].Value.(int)
	cfg.DenyPrivateIPs = results["deny_private_ips"].Value.(bool)
	return cfg
}
