package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
)

// statsCache fronts per-user aggregate queries. Cache failures degrade to a
// direct query and are never returned.
type statsCache struct {
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newStatsCache(c cache.Cache, m *metrics.Metrics, log *slog.Logger) *statsCache {
	if c == nil {
		c = cache.Noop{}
	}
	return &statsCache{cache: c, metrics: m, logger: log}
}

func (c *statsCache) count(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (c *statsCache) invalidate(ctx context.Context, keys ...string) {
	if err := c.cache.Delete(ctx, keys...); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to invalidate stats cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

// cachedStats returns the cached value under key, or computes it with fetch
// and stores it for cache.StatsTTL.
func cachedStats[T any](ctx context.Context, c *statsCache, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var cached T
	hit, err := c.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		c.count("error")
		log.Warn("stats cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case hit:
		c.count("hit")
		return &cached, nil
	default:
		c.count("miss")
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, value, cache.StatsTTL); err != nil {
		log.Warn("stats cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}
