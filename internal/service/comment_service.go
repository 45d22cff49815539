package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// CommentService manages task comments.
type CommentService struct {
	deps    Deps
	access  *AccessChecker
	stats   *statsCache
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(deps Deps) *CommentService {
	log := deps.logger("comment_service")
	return &CommentService{
		deps:    deps,
		access:  deps.access(),
		stats:   newStatsCache(deps.Cache, deps.Metrics, log),
		emitter: deps.emitter(),
		logger:  log,
	}
}

// Create adds a comment to a task the actor can read and notifies the owner.
func (s *CommentService) Create(ctx context.Context, actor Actor, taskID int64, content string) (*domain.TaskComment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, _, err := s.access.RequireRead(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	comment, err := domain.NewTaskComment(taskID, actor.ID, content)
	if err != nil {
		return nil, err
	}
	comment.CreatedAt = s.deps.now()

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Comments.WithTx(tx).Create(ctx, comment); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionCreated, domain.ResourceComment, comment.ID, map[string]any{
			"task_id": taskID,
			"content": comment.Content,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		log.Error("failed to create comment", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, NewServiceError("comment", "create", "failed to create comment", err)
	}
	comment.Username = actor.Username

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	emit(ctx, s.emitter, s.logger, events.TypeCommentAdded, events.NotificationPayload{
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		RecipientID:   task.UserID,
		TaskID:        taskID,
		TaskTitle:     task.Title,
		Comment:       comment.Content,
	})
	return comment, nil
}

// List returns the comments of a task the actor can read, oldest first.
func (s *CommentService) List(ctx context.Context, actor Actor, taskID int64) ([]*domain.TaskComment, error) {
	if _, _, err := s.access.RequireRead(ctx, taskID, actor.ID); err != nil {
		return nil, err
	}
	comments, err := s.deps.Comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("comment", "list", "failed to list comments", err)
	}
	return comments, nil
}

// Update replaces the content of a comment. Only its author may edit it,
// and only while the task is still readable to them.
func (s *CommentService) Update(ctx context.Context, actor Actor, commentID int64, content string) (*domain.TaskComment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	comment, err := s.deps.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID {
		return nil, ErrForbidden
	}
	if _, _, err := s.access.RequireRead(ctx, comment.TaskID, actor.ID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}

	old := comment.Content
	now := s.deps.now()
	comment.Content = content
	comment.UpdatedAt = &now

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Comments.WithTx(tx).Update(ctx, comment); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionUpdated, domain.ResourceComment, comment.ID, map[string]any{
			"task_id":     comment.TaskID,
			"old_content": old,
			"new_content": content,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			return nil, err
		}
		log.Error("failed to update comment", slog.String("error", err.Error()), slog.Int64("comment_id", commentID))
		return nil, NewServiceError("comment", "update", "failed to update comment", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	return comment, nil
}

// Delete removes a comment. Its author and the task owner may delete it.
func (s *CommentService) Delete(ctx context.Context, actor Actor, commentID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	comment, err := s.deps.Comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID {
		task, err := s.deps.Tasks.GetByID(ctx, comment.TaskID)
		if err != nil {
			return err
		}
		if task.UserID != actor.ID {
			return ErrForbidden
		}
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Comments.WithTx(tx).Delete(ctx, commentID); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionDeleted, domain.ResourceComment, commentID, map[string]any{
			"task_id": comment.TaskID,
			"content": comment.Content,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			return err
		}
		log.Error("failed to delete comment", slog.String("error", err.Error()), slog.Int64("comment_id", commentID))
		return NewServiceError("comment", "delete", "failed to delete comment", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	return nil
}
