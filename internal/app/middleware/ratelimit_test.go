package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/logger"
)

func newTestLimiter(perMinute, burst int) (*RateLimiter, *time.Time) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: perMinute, Burst: burst}, logger.NewDiscard())
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiter_AllowsBurstThenRefills(t *testing.T) {
	rl, clock := newTestLimiter(60, 2)

	first := rl.Allow("10.0.0.1")
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.True(t, rl.Allow("10.0.0.1").Allowed)

	denied := rl.Allow("10.0.0.1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, time.Second, denied.RetryAfter)
	assert.True(t, rl.Allow("10.0.0.2").Allowed, "clients have separate buckets")

	*clock = clock.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1").Allowed)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(60, 1)
	rl.Allow("old")
	*clock = clock.Add(time.Hour)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Cleanup(clock.Add(-staleLimiterAge)))
	assert.Equal(t, 1, rl.clients.Size())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(60, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	ok := call("/api/trending")
	assert.Equal(t, http.StatusNoContent, ok.Code)
	assert.Equal(t, "60", ok.Header().Get("X-RateLimit-Limit"))

	limited := call("/api/trending")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded","retryable":true}`, limited.Body.String())

	assert.Equal(t, http.StatusNoContent, call(constants.DefaultHealthCheckEndpoint).Code)
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	rl, _ := newTestLimiter(0, 0)
	assert.False(t, rl.Enabled())

	var nilLimiter *RateLimiter
	assert.False(t, nilLimiter.Enabled())

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trending", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	rl.Start()
	rl.Stop()
	rl.Stop()
}
