package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commutecast/internal/domain/entity"
	"commutecast/internal/infra/notifier"
)

/* ───────── fakes ───────── */

type stubChannel struct {
	name    string
	enabled bool
	err     error
	panics  bool

	mu   sync.Mutex
	sent []notifier.Message
}

func (c *stubChannel) Name() string    { return c.name }
func (c *stubChannel) IsEnabled() bool { return c.enabled }

func (c *stubChannel) Send(_ context.Context, msg notifier.Message) error {
	if c.panics {
		panic("transport exploded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func (c *stubChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type memEpisodes struct {
	mu          sync.Mutex
	episodes    map[string]*entity.Episode
	markSentErr error
}

func newMemEpisodes(eps ...*entity.Episode) *memEpisodes {
	m := &memEpisodes{episodes: map[string]*entity.Episode{}}
	for _, ep := range eps {
		cp := *ep
		m.episodes[ep.ID] = &cp
	}
	return m
}

func (m *memEpisodes) Save(_ context.Context, ep *entity.Episode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ep
	m.episodes[ep.ID] = &cp
	return ep.ID, nil
}

func (m *memEpisodes) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markSentErr != nil {
		return m.markSentErr
	}
	ep, ok := m.episodes[id]
	if !ok {
		return entity.ErrNotFound
	}
	ep.SentAt = &sentAt
	return nil
}

func (m *memEpisodes) Get(_ context.Context, id string) (*entity.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.episodes[id]
	if !ok {
		return nil, nil
	}
	cp := *ep
	return &cp, nil
}

func (m *memEpisodes) ListUnsent(_ context.Context, limit int) ([]*entity.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Episode
	for _, id := range []string{"ep-1", "ep-2", "ep-3"} {
		if ep, ok := m.episodes[id]; ok && ep.SentAt == nil && len(out) < limit {
			cp := *ep
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memSubscribers map[string]*entity.Subscriber

func (m memSubscribers) ListActive(context.Context) ([]*entity.Subscriber, error) {
	return nil, nil
}

func (m memSubscribers) Get(_ context.Context, id string) (*entity.Subscriber, error) {
	return m[id], nil
}

func episode(id string) *entity.Episode {
	return &entity.Episode{
		ID:           id,
		SubscriberID: "sub-" + id,
		Script:       "Good morning.\n\nHere is the news.",
		AudioURL:     "https://cdn.example.com/" + id + ".mp3",
	}
}

var fixedNow = time.Date(2026, 3, 1, 8, 0, 5, 0, time.UTC)

/* ───────── Deliver ───────── */

func TestService_Deliver_MarksSentAfterAccept(t *testing.T) {
	ch := &stubChannel{name: "test-ok", enabled: true}
	ep := episode("ep-1")
	repo := newMemEpisodes(ep)
	svc := NewService(ch, repo, WithClock(func() time.Time { return fixedNow }), WithFrom("Pod <pod@example.com>"))

	require.NoError(t, svc.Deliver(context.Background(), ep, " listener@example.com "))

	require.Equal(t, 1, ch.count())
	msg := ch.sent[0]
	assert.Equal(t, "listener@example.com", msg.To)
	assert.Equal(t, "Pod <pod@example.com>", msg.From)
	assert.Equal(t, "Your Daily CommuteCast Podcast", msg.Subject)

	require.NotNil(t, ep.SentAt)
	assert.Equal(t, fixedNow, *ep.SentAt)
	stored, _ := repo.Get(context.Background(), "ep-1")
	require.NotNil(t, stored.SentAt)
}

func TestService_Deliver_ChannelFailureLeavesUnsent(t *testing.T) {
	ch := &stubChannel{name: "test-fail", enabled: true, err: &notifier.ServerError{StatusCode: 502, Message: "bad gateway"}}
	ep := episode("ep-1")
	repo := newMemEpisodes(ep)
	svc := NewService(ch, repo)

	err := svc.Deliver(context.Background(), ep, "listener@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	var se *notifier.ServerError
	assert.True(t, errors.As(err, &se))

	assert.Nil(t, ep.SentAt)
	stored, _ := repo.Get(context.Background(), "ep-1")
	assert.Nil(t, stored.SentAt)
}

func TestService_Deliver_InvalidInput(t *testing.T) {
	ch := &stubChannel{name: "test-invalid", enabled: true}
	svc := NewService(ch, newMemEpisodes())

	tests := []struct {
		name    string
		ep      *entity.Episode
		contact string
		want    error
	}{
		{"nil episode", nil, "a@b.c", ErrInvalidEpisode},
		{"no id", &entity.Episode{AudioURL: "https://x"}, "a@b.c", ErrInvalidEpisode},
		{"no audio", &entity.Episode{ID: "x"}, "a@b.c", ErrInvalidEpisode},
		{"no contact", episode("ep-1"), "  ", ErrInvalidContact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Deliver(context.Background(), tt.ep, tt.contact)
			assert.ErrorIs(t, err, ErrDeliveryFailed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, ch.count())
}

func TestService_Deliver_DisabledChannel(t *testing.T) {
	ch := NewNotifierChannel("test-disabled", nil)
	svc := NewService(ch, newMemEpisodes(episode("ep-1")))

	err := svc.Deliver(context.Background(), episode("ep-1"), "a@b.c")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, ErrChannelDisabled)
}

func TestService_Deliver_PanicIsRecovered(t *testing.T) {
	ch := &stubChannel{name: "test-panic", enabled: true, panics: true}
	ep := episode("ep-1")
	svc := NewService(ch, newMemEpisodes(ep))

	err := svc.Deliver(context.Background(), ep, "a@b.c")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "transport exploded")
	assert.Nil(t, ep.SentAt)
}

func TestService_Deliver_MarkSentFailure(t *testing.T) {
	ch := &stubChannel{name: "test-marksent", enabled: true}
	ep := episode("ep-1")
	repo := newMemEpisodes(ep)
	repo.markSentErr = errors.New("connection reset")
	svc := NewService(ch, repo)

	err := svc.Deliver(context.Background(), ep, "a@b.c")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 1, ch.count())
	assert.Nil(t, ep.SentAt)
}

func TestService_Deliver_CircuitBreakerOpensAfterFiveFailures(t *testing.T) {
	ch := &stubChannel{name: "test-breaker", enabled: true, err: errors.New("smtp down")}
	ep := episode("ep-1")
	svc := NewService(ch, newMemEpisodes(ep))

	for i := 0; i < 5; i++ {
		err := svc.Deliver(context.Background(), ep, "a@b.c")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitBreakerOpen)
	}
	assert.True(t, svc.Health().CircuitBreakerOpen)

	err := svc.Deliver(context.Background(), ep, "a@b.c")
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 5, ch.count(), "open breaker must not reach the channel")
}

/* ───────── ResendUnsent ───────── */

func TestService_ResendUnsent(t *testing.T) {
	sent := episode("ep-2")
	sentAt := fixedNow.Add(-time.Hour)
	sent.SentAt = &sentAt

	repo := newMemEpisodes(episode("ep-1"), sent, episode("ep-3"))
	subs := memSubscribers{
		"sub-ep-1": {ID: "sub-ep-1", Email: "one@example.com"},
	}
	ch := &stubChannel{name: "test-resend", enabled: true}
	svc := NewService(ch, repo, WithSubscribers(subs))

	summary, err := svc.ResendUnsent(context.Background(), 10, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ResendSummary{Attempted: 1, Sent: 1, Skipped: 1}, summary)
	require.Equal(t, 1, ch.count())
	assert.Equal(t, "one@example.com", ch.sent[0].To)
}

func TestService_ResendUnsent_RequiresSubscribers(t *testing.T) {
	svc := NewService(&stubChannel{name: "test-resend-nosubs", enabled: true}, newMemEpisodes())
	_, err := svc.ResendUnsent(context.Background(), 10, time.Second)
	assert.Error(t, err)
}

/* ───────── message / channel factory ───────── */

func TestBuildMessage(t *testing.T) {
	ep := episode("ep-1")
	ep.Script = "Intro <b>bold</b>.\n\nSecond paragraph."

	msg, err := BuildMessage(ep, "a@b.c", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFrom, msg.From)
	assert.Equal(t, Subject, msg.Subject)
	assert.Contains(t, msg.Text, "Listen here: https://cdn.example.com/ep-1.mp3")
	assert.Contains(t, msg.Text, "Intro <b>bold</b>.")
	assert.Contains(t, msg.HTML, `href="https://cdn.example.com/ep-1.mp3"`)
	assert.Contains(t, msg.HTML, "<p>Intro &lt;b&gt;bold&lt;/b&gt;.</p>")
	assert.Contains(t, msg.HTML, "<p>Second paragraph.</p>")
}

func TestNewChannelFromEnv(t *testing.T) {
	ch, err := NewChannelFromEnv(ChannelNoop, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ChannelNoop, ch.Name())
	assert.True(t, ch.IsEnabled())

	t.Setenv("RESEND_API_KEY", "")
	_, err = NewChannelFromEnv(ChannelResend, time.Second)
	assert.Error(t, err)

	t.Setenv("RESEND_API_KEY", "re_123")
	ch, err = NewChannelFromEnv(ChannelResend, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ChannelResend, ch.Name())

	t.Setenv("SMTP_HOST", "smtp.example.com")
	ch, err = NewChannelFromEnv(ChannelSMTP, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ChannelSMTP, ch.Name())

	_, err = NewChannelFromEnv("pigeon", time.Second)
	assert.Error(t, err)
}
