package synthesizer

import (
	"fmt"
	"time"

	"commutecast/internal/usecase/episode"
	envconfig "commutecast/pkg/config"
)

// Synthesizer kinds accepted by SYNTHESIZER_TYPE.
const (
	TypeOpenAI      = "openai"
	TypePlaceholder = "placeholder"
)

// New builds the synthesizer selected by kind.
//
// Environment variables for "openai":
//   - OPENAI_API_KEY (required)
//   - AUDIO_DIR (default ./audio)
//   - AUDIO_BASE_URL (required)
//   - TTS_MODEL (default tts-1)
//   - TTS_DEFAULT_VOICE (default alloy)
func New(kind string, timeout time.Duration) (episode.Synthesizer, error) {
	switch kind {
	case TypePlaceholder, "":
		return Placeholder{}, nil
	case TypeOpenAI:
		apiKey, err := envconfig.RequireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("synthesizer: %w", err)
		}
		baseURL, err := envconfig.RequireEnv("AUDIO_BASE_URL")
		if err != nil {
			return nil, fmt.Errorf("synthesizer: %w", err)
		}
		store, err := NewFileStore(envconfig.GetEnvString("AUDIO_DIR", "./audio"), baseURL)
		if err != nil {
			return nil, fmt.Errorf("synthesizer: %w", err)
		}
		return NewOpenAI(apiKey, store, Config{
			Model:        envconfig.GetEnvString("TTS_MODEL", "tts-1"),
			DefaultVoice: envconfig.GetEnvString("TTS_DEFAULT_VOICE", DefaultVoice),
			Timeout:      timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown SYNTHESIZER_TYPE %q (want %s or %s)", kind, TypeOpenAI, TypePlaceholder)
	}
}
