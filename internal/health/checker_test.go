package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCheck struct {
	err error
}

func (s stubCheck) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestCheck_AllHealthy(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("one", stubCheck{})
	c.AddCheck("two", stubCheck{})

	results, healthy := c.Check(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, map[string]string{"one": "OK", "two": "OK"}, results)
}

func TestCheck_FailureFlipsVerdict(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("ok", stubCheck{})
	c.AddCheck("down", stubCheck{err: errors.New("connection refused")})

	results, healthy := c.Check(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "OK", results["ok"])
	assert.Equal(t, "connection refused", results["down"])
}

func TestHandler_StatusCodes(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("ok", stubCheck{})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	c.AddCheck("down", stubCheck{err: errors.New("boom")})
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	require.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))
}

func TestRedisChecker_NilPinger(t *testing.T) {
	assert.Error(t, NewRedisChecker(nil).HealthCheck(context.Background()))
}
