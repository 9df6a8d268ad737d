package delivery

import (
	"errors"

	episodeuc "commutecast/internal/usecase/episode"
)

// Sentinel errors for delivery operations.
var (
	// ErrDeliveryFailed wraps every failure of Service.Deliver. The episode stays
	// persisted with SentAt nil. It is the pipeline's delivery-stage sentinel, so
	// the pipeline reports these errors without wrapping them again.
	ErrDeliveryFailed = episodeuc.ErrDeliveryFailed

	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidEpisode indicates a nil episode, a missing id, or no audio URL.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrInvalidContact indicates an empty recipient address.
	ErrInvalidContact = errors.New("invalid contact")

	// ErrCircuitBreakerOpen indicates that the channel's breaker rejected the send.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
