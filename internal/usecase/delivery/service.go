package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"commutecast/internal/domain/entity"
	"commutecast/internal/infra/notifier"
	"commutecast/internal/repository"
	"commutecast/internal/resilience/circuitbreaker"
)

// Service delivers episodes through one channel and records sent_at once the
// channel has accepted the message.
type Service struct {
	channel     Channel
	episodes    repository.EpisodeRepository
	subscribers repository.SubscriberRepository
	breaker     *circuitbreaker.CircuitBreaker
	from        string
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithFrom sets the sender address. Default: DefaultFrom.
func WithFrom(from string) Option {
	return func(s *Service) {
		if from != "" {
			s.from = from
		}
	}
}

// WithClock replaces time.Now for the sent_at timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSubscribers enables ResendUnsent, which needs to look up contact addresses.
func WithSubscribers(repo repository.SubscriberRepository) Option {
	return func(s *Service) { s.subscribers = repo }
}

// NewService creates a delivery service with a breaker per channel.
func NewService(channel Channel, episodes repository.EpisodeRepository, opts ...Option) *Service {
	s := &Service{
		channel:  channel,
		episodes: episodes,
		breaker:  circuitbreaker.New(circuitbreaker.DeliveryConfig(channel.Name())),
		from:     DefaultFrom,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver sends ep to contact and then marks it sent. Every error wraps
// ErrDeliveryFailed and leaves ep.SentAt untouched.
func (s *Service) Deliver(ctx context.Context, ep *entity.Episode, contact string) error {
	if ep == nil || ep.ID == "" || ep.AudioURL == "" {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, ErrInvalidEpisode)
	}
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, ErrInvalidContact)
	}
	if !s.channel.IsEnabled() {
		return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, s.channel.Name(), ErrChannelDisabled)
	}

	msg, err := BuildMessage(ep, contact, s.from)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	name := s.channel.Name()
	start := time.Now()
	err = s.breaker.Run(func() error {
		return s.send(ctx, msg)
	})
	duration := time.Since(start)

	if err != nil {
		if circuitbreaker.IsRejected(err) {
			RecordCircuitBreakerOpen(name)
			slog.WarnContext(ctx, "delivery rejected by open circuit breaker",
				slog.String("channel", name),
				slog.String("episode_id", ep.ID))
			return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, name, ErrCircuitBreakerOpen)
		}
		RecordFailure(name, duration)
		slog.WarnContext(ctx, "episode delivery failed",
			slog.String("channel", name),
			slog.String("episode_id", ep.ID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, name, err)
	}
	RecordSuccess(name, duration)

	sentAt := s.now().UTC()
	if err := s.episodes.MarkSent(ctx, ep.ID, sentAt); err != nil {
		RecordMarkSentFailure()
		slog.ErrorContext(ctx, "episode delivered but sent_at not recorded",
			slog.String("episode_id", ep.ID),
			slog.Any("error", err))
		return fmt.Errorf("%w: mark sent: %w", ErrDeliveryFailed, err)
	}
	ep.SentAt = &sentAt

	slog.InfoContext(ctx, "episode delivered",
		slog.String("channel", name),
		slog.String("episode_id", ep.ID),
		slog.Duration("send_duration", duration))
	return nil
}

// send calls the channel and converts a panic into an error.
func (s *Service) send(ctx context.Context, msg notifier.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Panic in delivery channel",
				slog.String("channel", s.channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic in channel %s: %v", s.channel.Name(), r)
		}
	}()
	return s.channel.Send(ctx, msg)
}

// ResendSummary reports one ResendUnsent pass.
type ResendSummary struct {
	Attempted int
	Sent      int
	Failed    int
	Skipped   int
}

// ResendUnsent re-delivers up to limit episodes whose sent_at is still NULL,
// oldest first. Episodes whose subscriber is gone or inactive are skipped.
func (s *Service) ResendUnsent(ctx context.Context, limit int, perSend time.Duration) (ResendSummary, error) {
	var summary ResendSummary
	if s.subscribers == nil {
		return summary, fmt.Errorf("resend unsent: subscriber repository not configured")
	}

	episodes, err := s.episodes.ListUnsent(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("resend unsent: %w", err)
	}

	for _, ep := range episodes {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		sub, err := s.subscribers.Get(ctx, ep.SubscriberID)
		if err != nil || sub == nil || sub.Email == "" {
			summary.Skipped++
			slog.WarnContext(ctx, "skipping unsent episode without subscriber contact",
				slog.String("episode_id", ep.ID),
				slog.String("subscriber_id", ep.SubscriberID),
				slog.Any("error", err))
			continue
		}

		summary.Attempted++
		sendCtx, cancel := context.WithTimeout(ctx, perSend)
		err = s.Deliver(sendCtx, ep, sub.Email)
		cancel()
		if err != nil {
			summary.Failed++
			continue
		}
		summary.Sent++
	}

	slog.InfoContext(ctx, "resend pass completed",
		slog.Int("attempted", summary.Attempted),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))
	return summary, nil
}

// ChannelHealthStatus is exposed on the worker health endpoint.
type ChannelHealthStatus struct {
	Name               string `json:"name"`
	Enabled            bool   `json:"enabled"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
}

// Health returns the channel's breaker state.
func (s *Service) Health() ChannelHealthStatus {
	return ChannelHealthStatus{
		Name:               s.channel.Name(),
		Enabled:            s.channel.IsEnabled(),
		CircuitBreakerOpen: s.breaker.IsOpen(),
	}
}
