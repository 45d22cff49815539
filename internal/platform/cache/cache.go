// Package cache provides a small JSON value cache used for per-user
// statistics. A Redis implementation backs production; Noop is used when no
// Redis URL is configured so callers never need to branch on availability.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatsTTL is how long computed statistics stay cached.
const StatsTTL = 300 * time.Second

// ErrUnavailable is returned when the cache backend cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	// Get decodes the value stored at key into dest. It reports false
	// when the key is missing.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value at key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// TaskStatsKey is the cache key for a user's task statistics.
func TaskStatsKey(userID int64) string {
	return fmt.Sprintf("task_stats:user_%d", userID)
}

// ActivityStatsKey is the cache key for a user's activity statistics.
func ActivityStatsKey(userID int64) string {
	return fmt.Sprintf("activity_stats:user_%d", userID)
}

// Noop is a Cache that stores nothing.
type Noop struct{}

var _ Cache = Noop{}

// Get implements Cache and always misses.
func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set implements Cache.
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

// Delete implements Cache.
func (Noop) Delete(context.Context, ...string) error { return nil }
