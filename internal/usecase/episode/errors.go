package episode

import "errors"

// Stage failure sentinels. Each wraps the collaborator's own error with %w,
// so callers can match both the stage and the root cause.
var (
	// ErrSummarizationFailed indicates the summarizer returned an error, an empty
	// script, or did not answer before the stage timeout.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrSynthesisFailed indicates the speech synthesizer could not produce audio.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrPersistFailed indicates the episode could not be saved.
	ErrPersistFailed = errors.New("episode persist failed")

	// ErrDeliveryFailed indicates the episode was saved but not delivered.
	// The episode stays unsent and is picked up by the resend command.
	ErrDeliveryFailed = errors.New("episode delivery failed")
)
