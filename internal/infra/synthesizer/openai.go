// Package synthesizer renders episode scripts to audio.
package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"commutecast/internal/resilience/circuitbreaker"
	"commutecast/internal/utils/text"
)

const (
	// DefaultVoice is used when the subscriber has no voice preference.
	DefaultVoice = "alloy"

	// maxInputChars is the TTS endpoint's input limit.
	maxInputChars = 4096
)

var knownVoices = map[string]openai.SpeechVoice{
	"alloy":   openai.VoiceAlloy,
	"echo":    openai.VoiceEcho,
	"fable":   openai.VoiceFable,
	"onyx":    openai.VoiceOnyx,
	"nova":    openai.VoiceNova,
	"shimmer": openai.VoiceShimmer,
}

// Config holds OpenAI TTS settings.
type Config struct {
	Model        string
	DefaultVoice string
	Timeout      time.Duration
	BaseURL      string
	HTTPClient   *http.Client
}

// OpenAI implements episode.Synthesizer with the OpenAI speech endpoint.
type OpenAI struct {
	client         *openai.Client
	store          AudioStore
	circuitBreaker *circuitbreaker.CircuitBreaker
	cfg            Config
}

// NewOpenAI creates a TTS synthesizer that stores audio in store.
func NewOpenAI(apiKey string, store AudioStore, cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = DefaultVoice
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		store:          store,
		circuitBreaker: circuitbreaker.New(circuitbreaker.SpeechConfig("openai-tts")),
		cfg:            cfg,
	}
}

// Synthesize renders script with the given voice and returns the stored audio URL.
func (o *OpenAI) Synthesize(ctx context.Context, script, voice string) (string, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return "", fmt.Errorf("synthesize: empty script")
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	audioURL, err := circuitbreaker.Do(o.circuitBreaker, func() (string, error) {
		return o.doSynthesize(ctx, script, o.resolveVoice(voice))
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.WarnContext(ctx, "tts circuit breaker open, request rejected",
				slog.String("service", "openai-tts"),
				slog.String("state", o.circuitBreaker.State().String()))
			return "", fmt.Errorf("tts unavailable: %w", err)
		}
		return "", err
	}
	return audioURL, nil
}

func (o *OpenAI) doSynthesize(ctx context.Context, script string, voice openai.SpeechVoice) (string, error) {
	input := text.Truncate(script, maxInputChars, "")
	start := time.Now()

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          input,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("openai tts error: %w", err)
	}
	defer func() { _ = resp.Close() }()

	audioURL, err := o.store.Put(ctx, uuid.NewString()+".mp3", resp)
	if err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}

	slog.InfoContext(ctx, "Speech synthesis completed",
		slog.String("voice", string(voice)),
		slog.Int("input_chars", text.CountRunes(input)),
		slog.Duration("duration", time.Since(start)))
	return audioURL, nil
}

// resolveVoice maps a subscriber preference to a supported voice.
func (o *OpenAI) resolveVoice(voice string) openai.SpeechVoice {
	if v, ok := knownVoices[strings.ToLower(strings.TrimSpace(voice))]; ok {
		return v
	}
	if voice != "" {
		slog.Warn("unknown voice, using default",
			slog.String("voice", voice),
			slog.String("default", o.cfg.DefaultVoice))
	}
	if v, ok := knownVoices[o.cfg.DefaultVoice]; ok {
		return v
	}
	return openai.VoiceAlloy
}
