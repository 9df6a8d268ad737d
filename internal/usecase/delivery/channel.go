// Package delivery hands persisted episodes to subscribers and records the send.
package delivery

import (
	"context"
	"fmt"
	"time"

	"commutecast/internal/infra/notifier"
	envconfig "commutecast/pkg/config"
)

// Channel names accepted by DELIVERY_CHANNEL.
const (
	ChannelResend = "resend"
	ChannelSMTP   = "smtp"
	ChannelNoop   = "noop"
)

// Channel is one email transport.
//
// Implementations make a single attempt; Service adds the circuit breaker.
// All methods must be safe for concurrent use.
type Channel interface {
	// Name is used for logging, metrics labels and breaker names.
	Name() string

	// IsEnabled reports whether the channel is configured to send.
	IsEnabled() bool

	// Send delivers msg. Returns ErrChannelDisabled on a disabled channel.
	Send(ctx context.Context, msg notifier.Message) error
}

// NotifierChannel adapts an infra notifier to Channel.
type NotifierChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

// NewNotifierChannel wraps n. A nil notifier produces a disabled channel backed by
// the no-op notifier.
func NewNotifierChannel(name string, n notifier.Notifier) *NotifierChannel {
	if n == nil {
		return &NotifierChannel{name: name, notifier: notifier.NewNoOpNotifier()}
	}
	return &NotifierChannel{name: name, notifier: n, enabled: true}
}

// Name implements Channel.
func (c *NotifierChannel) Name() string { return c.name }

// IsEnabled implements Channel.
func (c *NotifierChannel) IsEnabled() bool { return c.enabled }

// Send implements Channel.
func (c *NotifierChannel) Send(ctx context.Context, msg notifier.Message) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	return c.notifier.Send(ctx, msg)
}

// NewChannelFromEnv builds the channel selected by kind.
//
// Environment variables:
//   - resend: RESEND_API_KEY (required), RESEND_BASE_URL
//   - smtp: SMTP_HOST (required), SMTP_PORT (default 587), SMTP_USERNAME, SMTP_PASSWORD
func NewChannelFromEnv(kind string, timeout time.Duration) (Channel, error) {
	switch kind {
	case ChannelResend:
		apiKey, err := envconfig.RequireEnv("RESEND_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("delivery channel %s: %w", kind, err)
		}
		return NewNotifierChannel(ChannelResend, notifier.NewResendNotifier(notifier.ResendConfig{
			APIKey:  apiKey,
			BaseURL: envconfig.GetEnvString("RESEND_BASE_URL", notifier.DefaultResendBaseURL),
			Timeout: timeout,
		})), nil
	case ChannelSMTP:
		host, err := envconfig.RequireEnv("SMTP_HOST")
		if err != nil {
			return nil, fmt.Errorf("delivery channel %s: %w", kind, err)
		}
		return NewNotifierChannel(ChannelSMTP, notifier.NewSMTPNotifier(notifier.SMTPConfig{
			Host:     host,
			Port:     envconfig.GetEnvInt("SMTP_PORT", 587),
			Username: envconfig.GetEnvString("SMTP_USERNAME", ""),
			Password: envconfig.GetEnvString("SMTP_PASSWORD", ""),
		})), nil
	case ChannelNoop, "":
		return NewNotifierChannel(ChannelNoop, notifier.NewNoOpNotifier()), nil
	default:
		return nil, fmt.Errorf("unknown DELIVERY_CHANNEL %q", kind)
	}
}
