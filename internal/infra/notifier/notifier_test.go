package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		From:    "CommuteCast <noreply@commutecast.com>",
		To:      "listener@example.com",
		Subject: "Your Daily CommuteCast Podcast",
		Text:    "Listen here: https://cdn.example.com/a.mp3",
		HTML:    `<p><a href="https://cdn.example.com/a.mp3">Listen</a></p>`,
	}
}

/* ───────── Message ───────── */

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, testMessage().Validate())

	m := testMessage()
	m.To = " "
	assert.Error(t, m.Validate())

	m = testMessage()
	m.From = ""
	assert.Error(t, m.Validate())

	m = testMessage()
	m.Text, m.HTML = "", ""
	assert.Error(t, m.Validate())
}

/* ───────── Resend ───────── */

func TestResendNotifier_Send(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	n := NewResendNotifier(ResendConfig{APIKey: "re_test", BaseURL: srv.URL})
	require.NoError(t, n.Send(context.Background(), testMessage()))

	assert.Equal(t, []string{"listener@example.com"}, got.To)
	assert.Equal(t, "CommuteCast <noreply@commutecast.com>", got.From)
	assert.Equal(t, "Your Daily CommuteCast Podcast", got.Subject)
	assert.Contains(t, got.HTML, "a.mp3")
	assert.Contains(t, got.Text, "a.mp3")
}

func TestResendNotifier_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "7"},
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, 7*time.Second, rl.RetryAfter)
			},
		},
		{
			name:   "client error",
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, err error) {
				var ce *ClientError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, http.StatusUnprocessableEntity, ce.StatusCode)
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var se *ServerError
				require.True(t, errors.As(err, &se))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			err := NewResendNotifier(ResendConfig{APIKey: "re_test", BaseURL: srv.URL}).
				Send(context.Background(), testMessage())
			require.Error(t, err)
			tt.check(t, err)
			assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "no retries")
		})
	}
}

func TestResendNotifier_MissingKey(t *testing.T) {
	err := NewResendNotifier(ResendConfig{}).Send(context.Background(), testMessage())
	var ce *ClientError
	assert.True(t, errors.As(err, &ce))
}

/* ───────── SMTP ───────── */

func TestSMTPNotifier_Send(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, n.Send(context.Background(), testMessage()))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@commutecast.com", gotFrom)
	assert.Equal(t, []string{"listener@example.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "Subject: Your Daily CommuteCast Podcast")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain; charset=utf-8")
	assert.Contains(t, raw, "text/html; charset=utf-8")
	assert.Contains(t, raw, "@commutecast.com>")
}

func TestSMTPNotifier_Errors(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com"})
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 mailbox unavailable")
	}
	err := n.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")

	bad := testMessage()
	bad.To = "not an address"
	assert.Error(t, n.Send(context.Background(), bad))

	assert.Error(t, NewSMTPNotifier(SMTPConfig{}).Send(context.Background(), testMessage()))
}

func TestSMTPNotifier_ContextCanceled(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com"})
	release := make(chan struct{})
	defer close(release)
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := n.Send(ctx, testMessage())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoOpNotifier(t *testing.T) {
	assert.NoError(t, NewNoOpNotifier().Send(context.Background(), testMessage()))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", domainOf("a@example.com"))
	assert.Equal(t, "localhost", domainOf("nodomain"))
	assert.False(t, strings.Contains(domainOf("a@b@c.io"), "@"))
}
