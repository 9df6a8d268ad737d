package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultResendBaseURL is the Resend API root.
const DefaultResendBaseURL = "https://api.resend.com"

// ResendConfig contains configuration for the Resend email API.
type ResendConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond defaults to 2, the API's documented limit.
	RequestsPerSecond float64
	Burst             int
}

// ResendNotifier sends email through the Resend HTTP API.
type ResendNotifier struct {
	config      ResendConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendNotifier creates a ResendNotifier, filling defaults for zero fields.
func NewResendNotifier(config ResendConfig) *ResendNotifier {
	if config.BaseURL == "" {
		config.BaseURL = DefaultResendBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2
	}
	if config.Burst <= 0 {
		config.Burst = 2
	}
	return &ResendNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
	}
}

// Send implements Notifier. It makes exactly one API request.
func (r *ResendNotifier) Send(ctx context.Context, msg Message) error {
	if r.config.APIKey == "" {
		return &ClientError{StatusCode: http.StatusUnauthorized, Message: "resend API key not configured"}
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	waited, err := r.rateLimiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	if waited > 100*time.Millisecond {
		slog.DebugContext(ctx, "resend rate limiter delayed send", slog.Duration("waited", waited))
	}

	jsonData, err := json.Marshal(resendPayload{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}

	endpoint := strings.TrimRight(r.config.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus("Resend", resp, body)
	}

	var out resendResponse
	_ = json.Unmarshal(body, &out)
	slog.InfoContext(ctx, "Resend email accepted",
		slog.String("email_id", out.ID),
		slog.String("subject", msg.Subject))
	return nil
}
