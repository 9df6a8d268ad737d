package notifier

import (
	"context"
	"log/slog"
)

// NoOpNotifier accepts every message without sending it. Used with DELIVERY_CHANNEL=noop.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send logs the recipient and returns nil.
func (n *NoOpNotifier) Send(ctx context.Context, msg Message) error {
	slog.DebugContext(ctx, "noop notifier dropped message",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}
