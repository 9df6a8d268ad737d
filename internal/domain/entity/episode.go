package entity

import "time"

// Episode is the artifact produced by one successful pipeline run.
// SentAt stays nil until the delivery stage has handed the episode to the subscriber.
type Episode struct {
	ID           string
	SubscriberID string
	Script       string
	AudioURL     string
	ArticleCount int
	CreatedAt    time.Time
	SentAt       *time.Time
}

// IsSent reports whether the episode was delivered.
func (e *Episode) IsSent() bool {
	return e.SentAt != nil
}

// Validate checks the fields required before persisting.
func (e *Episode) Validate() error {
	if e.SubscriberID == "" {
		return &ValidationError{Field: "subscriber_id", Message: "subscriber_id is required"}
	}
	if e.Script == "" {
		return &ValidationError{Field: "script", Message: "script is required"}
	}
	if e.AudioURL == "" {
		return &ValidationError{Field: "audio_url", Message: "audio_url is required"}
	}
	return nil
}
