package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// ShareService manages who a task is shared with. Every operation is
// reserved to the task owner.
type ShareService struct {
	deps    Deps
	access  *AccessChecker
	stats   *statsCache
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewShareService creates a ShareService.
func NewShareService(deps Deps) *ShareService {
	log := deps.logger("share_service")
	return &ShareService{
		deps:    deps,
		access:  deps.access(),
		stats:   newStatsCache(deps.Cache, deps.Metrics, log),
		emitter: deps.emitter(),
		logger:  log,
	}
}

// grantee resolves the target of a share operation on task.
func (s *ShareService) grantee(ctx context.Context, task *domain.Task, username string) (*domain.User, error) {
	user, err := s.deps.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.ID == task.UserID {
		return nil, ErrCannotShareWithSelf
	}
	return user, nil
}

// Share grants username access to a task owned by actor.
func (s *ShareService) Share(
	ctx context.Context,
	actor Actor,
	taskID int64,
	username string,
	permission domain.Permission,
) (*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.access.RequireOwner(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	user, err := s.grantee(ctx, task, username)
	if err != nil {
		return nil, err
	}
	share, err := domain.NewTaskShare(taskID, user.ID, actor.ID, permission)
	if err != nil {
		return nil, err
	}
	share.SharedAt = s.deps.now()

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Shares.WithTx(tx).Create(ctx, share); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionShared, domain.ResourceTask, taskID, map[string]any{
			"shared_with_username": user.Username,
			"permission":           string(permission),
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrShareExists) {
			log.Debug("task already shared", slog.Int64("task_id", taskID), slog.Int64("grantee_id", user.ID))
			return nil, err
		}
		log.Error("failed to share task", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, NewServiceError("share", "create", "failed to share task", err)
	}
	share.SharedWithUsername = user.Username

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	emit(ctx, s.emitter, s.logger, events.TypeTaskShared, events.NotificationPayload{
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		RecipientID:   user.ID,
		TaskID:        taskID,
		TaskTitle:     task.Title,
		Permission:    string(permission),
	})

	log.Info("task shared",
		slog.Int64("task_id", taskID),
		slog.Int64("grantee_id", user.ID),
		slog.String("permission", string(permission)))
	return share, nil
}

// List returns the shares of a task owned by actor.
func (s *ShareService) List(ctx context.Context, actor Actor, taskID int64) ([]*domain.TaskShare, error) {
	if _, err := s.access.RequireOwner(ctx, taskID, actor.ID); err != nil {
		return nil, err
	}
	shares, err := s.deps.Shares.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("share", "list", "failed to list shares", err)
	}
	return shares, nil
}

// UpdatePermission changes the permission of an existing share.
func (s *ShareService) UpdatePermission(
	ctx context.Context,
	actor Actor,
	taskID int64,
	username string,
	permission domain.Permission,
) (*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !permission.Valid() {
		return nil, domain.NewValidationError("permission", "must be 'view' or 'edit'", domain.ErrInvalidPermission)
	}
	task, err := s.access.RequireOwner(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	user, err := s.grantee(ctx, task, username)
	if err != nil {
		return nil, err
	}
	share, err := s.deps.Shares.Get(ctx, taskID, user.ID)
	if err != nil {
		return nil, err
	}
	old := share.Permission

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Shares.WithTx(tx).UpdatePermission(ctx, taskID, user.ID, permission); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionUpdated, domain.ResourceShare, share.ID, map[string]any{
			"shared_with_username": user.Username,
			"old_permission":       string(old),
			"new_permission":       string(permission),
			"task_id":              taskID,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrShareNotFound) {
			return nil, err
		}
		log.Error("failed to update share", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, NewServiceError("share", "update", "failed to update share", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	share.Permission = permission
	share.SharedWithUsername = user.Username
	return share, nil
}

// Unshare revokes username's access to a task owned by actor.
func (s *ShareService) Unshare(ctx context.Context, actor Actor, taskID int64, username string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.access.RequireOwner(ctx, taskID, actor.ID)
	if err != nil {
		return err
	}
	user, err := s.grantee(ctx, task, username)
	if err != nil {
		return err
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Shares.WithTx(tx).Delete(ctx, taskID, user.ID); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionUnshared, domain.ResourceTask, taskID, map[string]any{
			"unshared_username": user.Username,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrShareNotFound) {
			return err
		}
		log.Error("failed to unshare task", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return NewServiceError("share", "delete", "failed to unshare task", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	log.Info("task unshared", slog.Int64("task_id", taskID), slog.Int64("grantee_id", user.ID))
	return nil
}
