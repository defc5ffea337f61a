package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the identity's sorted set to the window, then
// either rejects (returning the oldest score) or records the request.
// Scores are Unix milliseconds. It returns {allowed, count, oldest}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, ARGV[1], member)
redis.call('PEXPIRE', key, ARGV[2])
return {1, count + 1, 0}
`)

// RedisSlidingWindow is a Limiter whose timestamp log lives in Redis, one
// sorted set per identity. Keys expire with the window, so no sweep is needed.
type RedisSlidingWindow struct {
	client    redis.UniversalClient
	cfg       Config
	now       Clock
	keyPrefix string
}

var _ Limiter = (*RedisSlidingWindow)(nil)

// NewRedisSlidingWindow creates a Redis-backed limiter on an existing client.
func NewRedisSlidingWindow(client redis.UniversalClient, cfg Config, clock Clock) *RedisSlidingWindow {
	if clock == nil {
		clock = time.Now
	}
	return &RedisSlidingWindow{
		client:    client,
		cfg:       cfg.withDefaults(),
		now:       clock,
		keyPrefix: "ratelimit:trips:",
	}
}

// NewRedisSlidingWindowFromURL parses redisURL and connects a new client.
func NewRedisSlidingWindowFromURL(redisURL string, cfg Config) (*RedisSlidingWindow, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisSlidingWindow(redis.NewClient(opt), cfg, nil), nil
}

// Allow implements Limiter.
func (r *RedisSlidingWindow) Allow(ctx context.Context, identity string) (Decision, error) {
	now := r.now()
	nowMillis := now.UnixMilli()
	windowMillis := r.cfg.Window.Milliseconds()
	member := fmt.Sprintf("%d-%s", nowMillis, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.client,
		[]string{r.keyPrefix + identity},
		nowMillis, windowMillis, r.cfg.MaxRequests, member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	if res[0] == 0 {
		resetAt := time.UnixMilli(res[2] + windowMillis)
		return Decision{
			Allowed:           false,
			RetryAfterSeconds: retryAfterSeconds(resetAt.Sub(now)),
		}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: r.cfg.MaxRequests - int(res[1]),
	}, nil
}

// Ping verifies the Redis connection.
func (r *RedisSlidingWindow) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisSlidingWindow) Close() error {
	return r.client.Close()
}
