// Package notifier sends episode emails. Resend (HTTP API) and SMTP are supported,
// plus a no-op notifier for local runs.
//
// Notifiers make a single attempt per message. A failed send leaves the episode
// unsent so the next resend cycle picks it up.
package notifier

import (
	"context"
	"fmt"
	"strings"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("message: from is required")
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("message: to is required")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("message: body is required")
	}
	return nil
}

// Notifier delivers a message through one transport.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
