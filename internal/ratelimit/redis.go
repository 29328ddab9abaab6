package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// fixedWindowScript increments the window counter, starting the window on the
// first hit. Returns {count, remaining window in milliseconds}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter whose counters live in Redis, so every
// instance behind a load balancer shares the same windows. The window expires
// with the key, which also takes care of idle eviction.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	timeout   time.Duration
	now       func() time.Time
}

// Admit runs the fixed-window script atomically for the key.
func (r *RedisLimiter) Admit(
	ctx context.Context,
	routeID, clientKey string,
	limit int,
	window time.Duration,
) (Decision, error) {
	if err := validateLimit(limit, window); err != nil {
		return Decision{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := r.keyPrefix + routeID + ":" + clientKey
	result, err := fixedWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, apperrors.Wrap(err, "failed to run rate limit script")
	}
	if len(result) != 2 {
		return Decision{}, apperrors.New("unexpected rate limit script result")
	}

	count := int(result[0])
	ttl := time.Duration(result[1]) * time.Millisecond
	resetAt := r.now().Add(ttl)

	if count > limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: ttl,
		}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}

// NewRedisLimiter creates a RedisLimiter. The timeout bounds every Redis round trip.
func NewRedisLimiter(client redis.Scripter, keyPrefix string, timeout time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   timeout,
		now:       time.Now,
	}
}
