package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// AccessChecker resolves what a user may do with a task.
type AccessChecker struct {
	tasks  store.TaskStore
	shares store.ShareStore
	logger *slog.Logger
}

// NewAccessChecker creates an AccessChecker.
func NewAccessChecker(tasks store.TaskStore, shares store.ShareStore, log *slog.Logger) *AccessChecker {
	if log == nil {
		log = slog.Default()
	}
	return &AccessChecker{
		tasks:  tasks,
		shares: shares,
		logger: log.With(slog.String("component", "access_checker")),
	}
}

// ResolveAccess loads the task and the user's access level to it.
// A missing task returns store.ErrTaskNotFound.
func (a *AccessChecker) ResolveAccess(ctx context.Context, taskID, userID int64) (*domain.Task, domain.AccessLevel, error) {
	task, err := a.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, domain.AccessNone, err
	}
	if task.UserID == userID {
		return task, domain.AccessOwner, nil
	}

	share, err := a.shares.Get(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, store.ErrShareNotFound) {
			return task, domain.AccessNone, nil
		}
		logger.FromContextOrDefault(ctx, a.logger).Error("failed to resolve share",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, domain.AccessNone, fmt.Errorf("failed to resolve share: %w", err)
	}
	return task, domain.AccessFromPermission(share.Permission), nil
}

func (a *AccessChecker) require(
	ctx context.Context,
	taskID, userID int64,
	allowed func(domain.AccessLevel) bool,
) (*domain.Task, domain.AccessLevel, error) {
	task, level, err := a.ResolveAccess(ctx, taskID, userID)
	if err != nil {
		return nil, domain.AccessNone, err
	}
	if !allowed(level) {
		logger.FromContextOrDefault(ctx, a.logger).Debug("access denied",
			slog.Int64("task_id", taskID),
			slog.String("access", level.String()))
		return nil, level, ErrForbidden
	}
	return task, level, nil
}

// RequireRead returns the task when the user owns it or it is shared with them.
func (a *AccessChecker) RequireRead(ctx context.Context, taskID, userID int64) (*domain.Task, domain.AccessLevel, error) {
	return a.require(ctx, taskID, userID, domain.AccessLevel.CanRead)
}

// RequireEdit returns the task when the user owns it or holds an edit share.
func (a *AccessChecker) RequireEdit(ctx context.Context, taskID, userID int64) (*domain.Task, domain.AccessLevel, error) {
	return a.require(ctx, taskID, userID, domain.AccessLevel.CanEdit)
}

// RequireOwner returns the task when the user owns it.
func (a *AccessChecker) RequireOwner(ctx context.Context, taskID, userID int64) (*domain.Task, error) {
	task, _, err := a.require(ctx, taskID, userID, func(l domain.AccessLevel) bool {
		return l == domain.AccessOwner
	})
	return task, err
}
