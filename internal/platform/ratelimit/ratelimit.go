// Package ratelimit implements a token bucket limiter keyed by caller
// identity. Buckets live in Redis so every server instance shares them.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable is returned when the bucket store cannot be reached.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// KeyPrefix namespaces bucket keys in Redis.
const KeyPrefix = "faros:ratelimit:"

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0, burst}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms}
`

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a Limiter backed by a Lua token bucket in Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	name   string
	rate   float64
	burst  float64
	now    func() time.Time
	logger *slog.Logger
	script *redis.Script
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter for one route group. rate is in tokens
// per second; burst is the bucket capacity.
func NewRedisLimiter(rdb redis.Scripter, logger *slog.Logger, name string, rate float64, burst int) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		rdb:    rdb,
		name:   name,
		rate:   rate,
		burst:  float64(burst),
		now:    time.Now,
		logger: logger.With(slog.String("component", "rate_limiter"), slog.String("group", name)),
		script: redis.NewScript(tokenBucketLua),
	}
}

func (r *RedisLimiter) bucketKey(key string) string {
	return KeyPrefix + r.name + ":" + key
}

// Allow implements Limiter. A zero rate or burst disables limiting.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if r.rate <= 0 || r.burst <= 0 {
		return Decision{Allowed: true}, nil
	}

	res, err := r.script.Run(ctx, r.rdb, []string{r.bucketKey(key)}, r.rate, r.burst, r.now().UnixMilli(), 1).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script result %v", ErrLimiterUnavailable, res)
	}

	d := Decision{
		Allowed:    toInt64(values[0]) == 1,
		RetryAfter: time.Duration(toInt64(values[1])) * time.Millisecond,
	}
	if !d.Allowed {
		r.logger.Debug("rate limit exceeded", slog.String("key", key), slog.Duration("retry_after", d.RetryAfter))
	}
	return d, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// Noop allows every request.
type Noop struct{}

// Allow implements Limiter.
func (Noop) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
