package synthesizer

import "context"

// PlaceholderAudioURL is returned by Placeholder for every script.
const PlaceholderAudioURL = "https://example.com/podcast-audio.mp3"

// Placeholder is a development synthesizer that skips TTS entirely.
type Placeholder struct{}

// Synthesize implements episode.Synthesizer.
func (Placeholder) Synthesize(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return PlaceholderAudioURL, nil
}
