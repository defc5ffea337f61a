package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T, cfg Config, clock *fakeClock) (*RedisSlidingWindow, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSlidingWindow(client, cfg, clock.Now), mr
}

func TestRedisSlidingWindowAdmitsExactlyMaxRequests(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter, _ := newTestRedisLimiter(t, Config{}, clock)
	ctx := context.Background()

	for i := 0; i < DefaultMaxRequests; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, DefaultMaxRequests-(i+1), d.Remaining)
		clock.Advance(time.Second)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 50, d.RetryAfterSeconds)

	other, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRedisSlidingWindowReadmitsAfterWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter, _ := newTestRedisLimiter(t, Config{MaxRequests: 2}, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	clock.Advance(DefaultWindow)

	d, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestRedisSlidingWindowSetsExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter, mr := newTestRedisLimiter(t, Config{}, clock)

	_, err := limiter.Allow(context.Background(), "client")
	require.NoError(t, err)

	assert.Equal(t, DefaultWindow, mr.TTL("ratelimit:trips:client"))
}

func TestRedisSlidingWindowReportsConnectionErrors(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter, mr := newTestRedisLimiter(t, Config{}, clock)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "client")
	assert.Error(t, err)
	assert.Error(t, limiter.Ping(context.Background()))
}

func TestNewRedisSlidingWindowFromURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisSlidingWindowFromURL("not-a-redis-url", Config{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	limiter, err := NewRedisSlidingWindowFromURL("redis://"+mr.Addr()+"/0", Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	assert.NoError(t, limiter.Ping(context.Background()))
}
