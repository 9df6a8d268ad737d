package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commutecast/internal/usecase/episode"
)

const claudeOK = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5-20250929",
  "content": [{"type": "text", "text": "Welcome aboard. Here is the news."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 12, "output_tokens": 8}
}`

func newClaudeTestServer(t *testing.T, status int, body string, captured *map[string]any, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaude_Summarize_Success(t *testing.T) {
	var hits int32
	var req map[string]any
	srv := newClaudeTestServer(t, http.StatusOK, claudeOK, &req, &hits)

	rec := &fakeRecorder{}
	c := NewClaude("test-key", Config{Temperature: 0.3}, WithBaseURL(srv.URL), WithMetricsRecorder(rec))

	script, err := c.Summarize(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard. Here is the news.", script)

	assert.Equal(t, DefaultClaudeModel, req["model"])
	assert.EqualValues(t, defaultMaxOutputTokens, req["max_tokens"])
	assert.InDelta(t, 0.3, req["temperature"], 1e-9)
	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)

	assert.Equal(t, []int{6}, rec.words)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestClaude_Summarize_EmptyInputMakesNoCall(t *testing.T) {
	var hits int32
	srv := newClaudeTestServer(t, http.StatusOK, claudeOK, nil, &hits)
	c := NewClaude("test-key", Config{}, WithBaseURL(srv.URL), WithMetricsRecorder(&fakeRecorder{}))

	_, err := c.Summarize(context.Background(), episode.ScriptRequest{})
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestClaude_Summarize_ServerErrorSingleAttempt(t *testing.T) {
	var hits int32
	srv := newClaudeTestServer(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`, nil, &hits)

	rec := &fakeRecorder{}
	c := NewClaude("test-key", Config{}, WithBaseURL(srv.URL), WithMetricsRecorder(rec))

	_, err := c.Summarize(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude api error")
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "sdk retries must be disabled")
	assert.Equal(t, []string{"api"}, rec.failures)
}

func TestClaude_Summarize_NoTextBlocks(t *testing.T) {
	var hits int32
	srv := newClaudeTestServer(t, http.StatusOK,
		`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`,
		nil, &hits)

	rec := &fakeRecorder{}
	c := NewClaude("test-key", Config{}, WithBaseURL(srv.URL), WithMetricsRecorder(rec))

	_, err := c.Summarize(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, []string{"empty_response"}, rec.failures)
}
