package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/trip-planner-api/internal/api/shared"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limiterFunc func(ctx context.Context, identity string) (ratelimit.Decision, error)

func (f limiterFunc) Allow(ctx context.Context, identity string) (ratelimit.Decision, error) {
	return f(ctx, identity)
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func TestTrace(t *testing.T) {
	log, buf := logger.NewTestLogger(t)

	var traceID string
	var hasLogger bool
	handler := Trace(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		hasLogger = logger.FromContext(r.Context()) != nil
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trips", nil))

	assert.Len(t, traceID, 32)
	assert.True(t, hasLogger)
	assert.Contains(t, buf.String(), traceID)
	assert.Contains(t, buf.String(), "request started")
}

func TestRateLimit_AllowsUntilQuota(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewSlidingWindow(
		ratelimit.Config{Window: time.Minute, MaxRequests: 2},
		ratelimit.WithClock(func() time.Time { return now }),
	)

	calls := 0
	handler := RateLimit(limiter, nil)(okHandler(&calls))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/trips", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := send()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	now = now.Add(15 * time.Second)
	rejected := send()
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "45", rejected.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rejected.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, "Please wait 45 seconds before trying again", body["details"])
	assert.Equal(t, float64(45), body["retryAfter"])

	assert.Equal(t, 2, calls)
}

func TestRateLimit_SeparateIdentities(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(ratelimit.Config{MaxRequests: 1})
	calls := 0
	handler := RateLimit(limiter, nil)(okHandler(&calls))

	for _, ip := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/trips", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := limiterFunc(func(ctx context.Context, identity string) (ratelimit.Decision, error) {
		return ratelimit.Decision{}, errors.New("redis: connection refused")
	})

	calls := 0
	var seen string
	handler := RateLimit(limiter, func(r *http.Request) string {
		seen = "custom"
		return seen
	})(okHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/trips", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "custom", seen)
	assert.Empty(t, w.Header().Get("X-RateLimit-Remaining"))
}
