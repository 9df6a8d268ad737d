package summarizer

import (
	"fmt"
	"log/slog"

	"commutecast/internal/usecase/episode"
	envconfig "commutecast/pkg/config"
)

// Backend names accepted by SUMMARIZER_TYPE.
const (
	TypeOpenAI = "openai"
	TypeClaude = "claude"
)

// New builds the summarizer selected by kind, reading its API key and settings
// from the environment. It fails when the backend's API key is missing.
func New(kind string, opts ...Option) (episode.Summarizer, error) {
	switch kind {
	case TypeOpenAI, "":
		apiKey, err := envconfig.RequireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("summarizer %s: %w", TypeOpenAI, err)
		}
		cfg := loadAndLog(DefaultOpenAIModel)
		return NewOpenAI(apiKey, cfg, opts...), nil
	case TypeClaude:
		apiKey, err := envconfig.RequireEnv("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("summarizer %s: %w", TypeClaude, err)
		}
		cfg := loadAndLog(DefaultClaudeModel)
		return NewClaude(apiKey, cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unknown SUMMARIZER_TYPE %q (want %s or %s)", kind, TypeOpenAI, TypeClaude)
	}
}

func loadAndLog(defaultModel string) Config {
	cfg, warnings := LoadConfig(defaultModel)
	for _, w := range warnings {
		slog.Warn("summarizer config fallback", slog.String("warning", w))
	}
	return cfg
}
