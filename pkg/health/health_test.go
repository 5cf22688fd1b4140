package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
	"github.com/saaga0h/jeeves-adaptive/pkg/postgres"
	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

type stubMQTT struct{ connected bool }

func (s stubMQTT) Connect(ctx context.Context) error                             { return nil }
func (s stubMQTT) Disconnect()                                                   {}
func (s stubMQTT) Subscribe(topic string, qos byte, h mqtt.MessageHandler) error { return nil }
func (s stubMQTT) Publish(topic string, qos byte, retained bool, p []byte) error { return nil }
func (s stubMQTT) IsConnected() bool                                             { return s.connected }

type stubRedis struct{ pingErr error }

func (s stubRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (s stubRedis) Get(ctx context.Context, key string) (string, error) { return "", redis.ErrKeyNotFound }
func (s stubRedis) ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]redis.ZMember, error) {
	return nil, nil
}
func (s stubRedis) Ping(ctx context.Context) error { return s.pingErr }
func (s stubRedis) Close() error                   { return nil }

type stubPostgres struct{ connected bool }

func (s stubPostgres) Connect(ctx context.Context) error { return nil }
func (s stubPostgres) Disconnect() error                 { return nil }
func (s stubPostgres) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (s stubPostgres) HealthCheck(ctx context.Context) (*postgres.HealthStatus, error) {
	return &postgres.HealthStatus{Connected: s.connected}, nil
}

type stubLoop struct{ last time.Time }

func (s stubLoop) LastTick() time.Time { return s.last }
func (s stubLoop) Details() map[string]interface{} {
	return map[string]interface{}{"ticks": 3}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, resp
}

func TestHandlerFunc(t *testing.T) {
	checker := NewChecker(stubMQTT{}, stubRedis{pingErr: errors.New("down")}, testLogger())

	code, resp := serve(t, checker.HandlerFunc())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Services)
}

func TestDetailedHandlerFunc(t *testing.T) {
	now := time.Date(2024, time.November, 2, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		checker    *Checker
		wantCode   int
		wantStatus string
		check      func(t *testing.T, s *Services)
	}{
		{
			name:       "all connected",
			checker:    NewChecker(stubMQTT{connected: true}, stubRedis{}, testLogger()),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "connected", s.MQTT)
				assert.Equal(t, "connected", s.Redis)
				assert.Empty(t, s.Postgres)
			},
		},
		{
			name:       "redis ping fails",
			checker:    NewChecker(stubMQTT{connected: true}, stubRedis{pingErr: errors.New("down")}, testLogger()),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "disconnected", s.Redis)
			},
		},
		{
			name: "postgres down",
			checker: NewChecker(stubMQTT{connected: true}, stubRedis{}, testLogger()).
				WithPostgres(stubPostgres{}),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "disconnected", s.Postgres)
			},
		},
		{
			name: "loop running",
			checker: NewChecker(stubMQTT{connected: true}, stubRedis{}, testLogger()).
				WithPostgres(stubPostgres{connected: true}).
				WithLoop(stubLoop{last: now.Add(-time.Minute)}, 3*time.Minute),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "running", s.Loop)
				assert.Equal(t, "connected", s.Postgres)
			},
		},
		{
			name: "loop stale",
			checker: NewChecker(stubMQTT{connected: true}, stubRedis{}, testLogger()).
				WithLoop(stubLoop{last: now.Add(-10 * time.Minute)}, 3*time.Minute),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "stale", s.Loop)
			},
		},
		{
			name: "loop never ticked",
			checker: NewChecker(stubMQTT{connected: true}, stubRedis{}, testLogger()).
				WithLoop(stubLoop{}, 3*time.Minute),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			check: func(t *testing.T, s *Services) {
				assert.Equal(t, "stale", s.Loop)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checker.now = func() time.Time { return now }

			code, resp := serve(t, tt.checker.DetailedHandlerFunc())

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.NotNil(t, resp.Services)
			tt.check(t, resp.Services)
		})
	}
}
