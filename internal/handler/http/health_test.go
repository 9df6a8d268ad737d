package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commutecast/internal/usecase/delivery"
)

type stubChannelHealth delivery.ChannelHealthStatus

func (s stubChannelHealth) Health() delivery.ChannelHealthStatus {
	return delivery.ChannelHealthStatus(s)
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		delivery      ChannelHealth
		wantCode      int
		wantStatus    string
		wantDelivery  string
		wantDBMessage string
	}{
		{
			name:       "healthy database no channel",
			setupMock:  func(m sqlmock.Sqlmock) { m.ExpectPing() },
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:          "database down",
			setupMock:     func(m sqlmock.Sqlmock) { m.ExpectPing().WillReturnError(sql.ErrConnDone) },
			wantCode:      http.StatusServiceUnavailable,
			wantStatus:    "unhealthy",
			wantDBMessage: "database unreachable",
		},
		{
			name:         "healthy channel",
			setupMock:    func(m sqlmock.Sqlmock) { m.ExpectPing() },
			delivery:     stubChannelHealth{Name: "email", Enabled: true},
			wantCode:     http.StatusOK,
			wantStatus:   "healthy",
			wantDelivery: "healthy",
		},
		{
			name:         "open breaker degrades",
			setupMock:    func(m sqlmock.Sqlmock) { m.ExpectPing() },
			delivery:     stubChannelHealth{Name: "email", Enabled: true, CircuitBreakerOpen: true},
			wantCode:     http.StatusOK,
			wantStatus:   "degraded",
			wantDelivery: "degraded",
		},
		{
			name:         "disabled channel degrades",
			setupMock:    func(m sqlmock.Sqlmock) { m.ExpectPing() },
			delivery:     stubChannelHealth{Name: "noop"},
			wantCode:     http.StatusOK,
			wantStatus:   "degraded",
			wantDelivery: "degraded",
		},
		{
			name:         "database down wins over degraded channel",
			setupMock:    func(m sqlmock.Sqlmock) { m.ExpectPing().WillReturnError(sql.ErrConnDone) },
			delivery:     stubChannelHealth{Name: "email", Enabled: true, CircuitBreakerOpen: true},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantDelivery: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			h := &HealthHandler{
				DB:       db,
				Delivery: tt.delivery,
				Version:  "test-version",
				Now:      func() time.Time { return fixed },
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "test-version", resp.Version)
			assert.Equal(t, "2026-03-02T08:00:00Z", resp.Timestamp)
			if tt.wantDBMessage != "" {
				assert.Equal(t, tt.wantDBMessage, resp.Checks["database"].Message)
			}
			if tt.wantDelivery == "" {
				assert.NotContains(t, resp.Checks, "delivery")
			} else {
				assert.Equal(t, tt.wantDelivery, resp.Checks["delivery"].Status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_NoDatabaseConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not configured", resp.Checks["database"].Message)
}

func TestHealthHandler_PoolUtilization(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(10)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	(&HealthHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	check := resp.Checks["database"]
	assert.Equal(t, "healthy", check.Status)
	assert.EqualValues(t, 10, check.Details["max_open_connections"])
	assert.Contains(t, check.Details, "utilization_percent")
}

func TestReadyHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{name: "ready", wantCode: http.StatusOK, wantBody: "ready"},
		{name: "not ready", pingErr: sql.ErrConnDone, wantCode: http.StatusServiceUnavailable, wantBody: "database not ready\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			mock.ExpectPing().WillReturnError(tt.pingErr)

			rec := httptest.NewRecorder()
			(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestReadyHandler_NoDatabaseConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	(&ReadyHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler_ServeHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}
