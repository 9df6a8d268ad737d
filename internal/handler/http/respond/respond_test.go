package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody string
	}{
		{name: "map", code: http.StatusOK, data: map[string]string{"message": "success"}, wantBody: `{"message":"success"}`},
		{name: "struct", code: http.StatusCreated, data: struct {
			ID string `json:"id"`
		}{ID: "ep-1"}, wantBody: `{"id":"ep-1"}`},
		{name: "error status", code: http.StatusBadRequest, data: map[string]string{"error": "bad request"}, wantBody: `{"error":"bad request"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestJSON_UnencodableValueKeepsStatus(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "client error is echoed",
			code:     http.StatusBadRequest,
			err:      errors.New("invalid method"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"invalid method"}`,
		},
		{
			name:     "client error is sanitized",
			code:     http.StatusBadRequest,
			err:      errors.New("bad key sk-1234567890abcdef"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"bad key sk-****"}`,
		},
		{
			name:     "server error is hidden",
			code:     http.StatusInternalServerError,
			err:      errors.New("pq: connection refused postgres://u:p@db/x"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
		{
			name:     "app error decides code and message",
			code:     http.StatusTeapot,
			err:      NewAppError(http.StatusInternalServerError, "failed to generate episodes", errors.New("db down")),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"failed to generate episodes"}`,
		},
		{
			name:     "wrapped app error",
			code:     http.StatusInternalServerError,
			err:      fmt.Errorf("handler: %w", NewAppError(http.StatusServiceUnavailable, "try later", nil)),
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"try later"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusInternalServerError, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAppError(t *testing.T) {
	cause := errors.New("cause")

	withCause := NewAppError(http.StatusInternalServerError, "user message", cause)
	assert.Equal(t, "cause", withCause.Error())
	assert.ErrorIs(t, withCause, cause)

	withoutCause := NewAppError(http.StatusBadRequest, "user message", nil)
	assert.Equal(t, "user message", withoutCause.Error())
	assert.Nil(t, withoutCause.Unwrap())
}
