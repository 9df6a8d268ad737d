package provider

import (
	"fmt"
	"net/http"
	"time"

	"commutecast/internal/config"
	"commutecast/internal/usecase/news"
)

// BuildChain instantiates the enabled providers of cfg in chain order.
//
// Each provider gets a client bounded by its own timeout, falling back to
// defaultTimeout. A non-nil client contributes its transport, so providers
// share one connection pool; a nil client gives every provider a fresh one.
func BuildChain(cfg *config.ProvidersConfig, client *http.Client, defaultTimeout time.Duration) ([]news.Provider, error) {
	if cfg == nil {
		cfg = config.DefaultProvidersConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	specs := cfg.Enabled()
	chain := make([]news.Provider, 0, len(specs))
	for _, spec := range specs {
		timeout := spec.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		switch spec.Kind {
		case config.ProviderNewsAPI:
			chain = append(chain, NewNewsAPI(NewsAPIConfig{
				APIKey:            spec.APIKey(),
				BaseURL:           spec.BaseURL,
				Language:          spec.Language,
				PageSize:          spec.PageSize,
				RequestsPerSecond: spec.RequestsPerSecond,
				Burst:             spec.Burst,
				Timeout:           timeout,
			}, clientWithTimeout(client, timeout)))
		case config.ProviderGoogleNews:
			chain = append(chain, NewGoogleNews(GoogleNewsConfig{
				BaseURL:  spec.BaseURL,
				HL:       spec.HL,
				GL:       spec.GL,
				CEID:     spec.CEID,
				MaxItems: spec.MaxItems,
				Timeout:  timeout,
			}, clientWithTimeout(client, timeout)))
		default:
			return nil, fmt.Errorf("unknown provider kind %q", spec.Kind)
		}
	}
	return chain, nil
}

func clientWithTimeout(shared *http.Client, timeout time.Duration) *http.Client {
	if shared == nil {
		return nil
	}
	c := *shared
	c.Timeout = timeout
	return &c
}
