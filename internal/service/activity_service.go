package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// Activity listing bounds.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 100
)

// ActivityService reads the activity log.
type ActivityService struct {
	activity store.ActivityStore
	access   *AccessChecker
	stats    *statsCache
	logger   *slog.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(deps Deps) *ActivityService {
	log := deps.logger("activity_service")
	return &ActivityService{
		activity: deps.Activity,
		access:   deps.access(),
		stats:    newStatsCache(deps.Cache, deps.Metrics, log),
		logger:   log,
	}
}

// NormalizeActivityFilter applies the default limit and checks bounds.
func NormalizeActivityFilter(f domain.ActivityFilter) (domain.ActivityFilter, error) {
	if f.Limit == 0 {
		f.Limit = DefaultActivityLimit
	}
	if f.Limit < 1 || f.Limit > MaxActivityLimit || f.Offset < 0 {
		return f, ErrInvalidPagination
	}
	return f, nil
}

// List returns the actor's own activity, newest first.
func (s *ActivityService) List(ctx context.Context, actor Actor, filter domain.ActivityFilter) ([]*domain.ActivityLog, error) {
	filter, err := NormalizeActivityFilter(filter)
	if err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByActor(ctx, actor.ID, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list activity",
			slog.String("error", err.Error()),
			slog.Int64("user_id", actor.ID))
		return nil, NewServiceError("activity", "list", "failed to list activity", err)
	}
	return entries, nil
}

// TaskTimeline returns every entry about a task the viewer can read, from
// any actor, oldest first.
func (s *ActivityService) TaskTimeline(ctx context.Context, viewer Actor, taskID int64) ([]*domain.ActivityLog, error) {
	if _, _, err := s.access.RequireRead(ctx, taskID, viewer.ID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListForTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("activity", "timeline", "failed to load task activity", err)
	}
	return entries, nil
}

// Stats returns the actor's activity counts, cached per user.
func (s *ActivityService) Stats(ctx context.Context, actor Actor) (*domain.ActivityStats, error) {
	stats, err := cachedStats(ctx, s.stats, cache.ActivityStatsKey(actor.ID),
		func(ctx context.Context) (*domain.ActivityStats, error) {
			return s.activity.StatsByActor(ctx, actor.ID)
		})
	if err != nil {
		return nil, NewServiceError("activity", "stats", "failed to compute activity stats", err)
	}
	return stats, nil
}

// recordActivity appends entry through the transaction-scoped store.
func recordActivity(ctx context.Context, activity store.ActivityStore, tx *sql.Tx, entry *domain.ActivityLog) error {
	if err := activity.WithTx(tx).Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}
