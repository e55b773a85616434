package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the key and starts its window on the first hit.
// It returns the current count and the remaining window in milliseconds.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter is a fixed-window counter shared by every instance of the service.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit attempts per window for each key.
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "teller-queue:login"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	key = strings.TrimSpace(key)
	if r.limit <= 0 || key == "" {
		return Decision{Allowed: true}, nil
	}

	windowMs := r.window.Milliseconds()
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + ":" + key}, windowMs).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected rate limit count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	if count > int64(r.limit) {
		return Decision{Allowed: false, RetryAfter: time.Duration(ttlMs) * time.Millisecond}, nil
	}
	return Decision{Allowed: true}, nil
}
