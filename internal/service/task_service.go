package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"slices"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// Task listing bounds.
const (
	DefaultTaskLimit = 100
	MaxTaskLimit     = 100
)

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    domain.Priority
	DueDate     *domain.Date
	Tags        []string
}

// TaskService implements task CRUD, tags and statistics.
type TaskService struct {
	deps    Deps
	access  *AccessChecker
	stats   *statsCache
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(deps Deps) *TaskService {
	log := deps.logger("task_service")
	return &TaskService{
		deps:    deps,
		access:  deps.access(),
		stats:   newStatsCache(deps.Cache, deps.Metrics, log),
		emitter: deps.emitter(),
		logger:  log,
	}
}

func createdDetails(t *domain.Task) map[string]any {
	snap := t.Snapshot()
	details := make(map[string]any, 6)
	for _, k := range []string{"title", "description", "priority", "completed", "due_date", "tags"} {
		details[k] = snap[k]
	}
	return details
}

// Create validates and stores a task owned by actor.
func (s *TaskService) Create(ctx context.Context, actor Actor, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(actor.ID, in.Title, in.Description, in.Priority, in.DueDate, in.Tags)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = s.deps.now()

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Tasks.WithTx(tx).Create(ctx, task); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionCreated, domain.ResourceTask, task.ID, createdDetails(task))
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()), slog.Int64("user_id", actor.ID))
		return nil, NewServiceError("task", "create", "failed to create task", err)
	}

	s.stats.invalidate(ctx, cache.TaskStatsKey(actor.ID), cache.ActivityStatsKey(actor.ID))
	log.Info("task created", slog.Int64("task_id", task.ID), slog.Int64("user_id", actor.ID))
	return task, nil
}

// NormalizeTaskFilter applies defaults and checks paging and sort bounds.
func NormalizeTaskFilter(f domain.TaskFilter) (domain.TaskFilter, error) {
	if f.Limit == 0 {
		f.Limit = DefaultTaskLimit
	}
	if f.Limit < 1 || f.Limit > MaxTaskLimit || f.Skip < 0 {
		return f, ErrInvalidPagination
	}
	if f.SortBy == "" {
		f.SortBy = domain.SortByCreatedAt
	}
	if !domain.ValidSortField(f.SortBy) {
		return f, domain.NewValidationError("sort_by", "must be one of created_at, due_date, priority, title", nil)
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return f, domain.ErrInvalidPriority
	}
	return f, nil
}

// List returns the actor's own tasks matching filter.
func (s *TaskService) List(ctx context.Context, actor Actor, filter domain.TaskFilter) ([]*domain.Task, error) {
	filter, err := NormalizeTaskFilter(filter)
	if err != nil {
		return nil, err
	}
	tasks, err := s.deps.Tasks.ListByOwner(ctx, actor.ID, filter, domain.DateOf(s.deps.now()))
	if err != nil {
		return nil, NewServiceError("task", "list", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListSharedWithMe returns the tasks other users shared with actor.
func (s *TaskService) ListSharedWithMe(ctx context.Context, actor Actor) ([]*domain.SharedTask, error) {
	tasks, err := s.deps.Tasks.ListSharedWith(ctx, actor.ID)
	if err != nil {
		return nil, NewServiceError("task", "list_shared", "failed to list shared tasks", err)
	}
	return tasks, nil
}

// Get returns a task the actor can read.
func (s *TaskService) Get(ctx context.Context, actor Actor, taskID int64) (*domain.Task, error) {
	task, _, err := s.access.RequireRead(ctx, taskID, actor.ID)
	return task, err
}

// Update applies a partial update to a task the actor can edit. Moving a
// task from open to completed notifies its owner.
func (s *TaskService) Update(ctx context.Context, actor Actor, taskID int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	task, _, err := s.access.RequireEdit(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, task, patch, "update")
}

func (s *TaskService) apply(
	ctx context.Context,
	actor Actor,
	task *domain.Task,
	patch domain.TaskPatch,
	operation string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	wasCompleted := task.Completed
	change, err := task.Apply(patch)
	if err != nil {
		return nil, err
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Tasks.WithTx(tx).Update(ctx, task); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionUpdated, domain.ResourceTask, task.ID, change.Details())
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, err
		}
		log.Error("failed to update task", slog.String("error", err.Error()), slog.Int64("task_id", task.ID))
		return nil, NewServiceError("task", operation, "failed to update task", err)
	}

	s.stats.invalidate(ctx, cache.TaskStatsKey(task.UserID), cache.ActivityStatsKey(actor.ID))

	if !wasCompleted && task.Completed {
		emit(ctx, s.emitter, s.logger, events.TypeTaskCompleted, events.NotificationPayload{
			ActorID:       actor.ID,
			ActorUsername: actor.Username,
			RecipientID:   task.UserID,
			TaskID:        task.ID,
			TaskTitle:     task.Title,
		})
	}

	log.Info("task updated",
		slog.Int64("task_id", task.ID),
		slog.Any("changed_fields", change.ChangedFields))
	return task, nil
}

// Delete removes a task the actor can edit together with its shares,
// comments and files. Attachment blobs are removed after commit.
func (s *TaskService) Delete(ctx context.Context, actor Actor, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, _, err := s.access.RequireEdit(ctx, taskID, actor.ID)
	if err != nil {
		return err
	}

	var stored []string
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		files, err := s.deps.Files.WithTx(tx).ListByTask(ctx, taskID)
		if err != nil {
			return err
		}
		stored = make([]string, 0, len(files))
		for _, f := range files {
			stored = append(stored, f.StoredFilename)
		}

		if err := s.deps.Tasks.WithTx(tx).Delete(ctx, taskID); err != nil {
			return err
		}

		details := task.Snapshot()
		details["files"] = stored
		entry := domain.NewActivityLog(actor.ID, domain.ActionDeleted, domain.ResourceTask, taskID, details)
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return err
		}
		log.Error("failed to delete task", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return NewServiceError("task", "delete", "failed to delete task", err)
	}

	s.stats.invalidate(ctx, cache.TaskStatsKey(task.UserID), cache.ActivityStatsKey(actor.ID))

	if len(stored) > 0 {
		emit(ctx, s.emitter, s.logger, events.TypeFilesOrphaned, events.FilesOrphanedPayload{
			TaskID:          taskID,
			StoredFilenames: stored,
		})
	}

	log.Info("task deleted", slog.Int64("task_id", taskID), slog.Int("files", len(stored)))
	return nil
}

// AddTags appends tags to a task the actor can edit. Tags it already
// carries are ignored.
func (s *TaskService) AddTags(ctx context.Context, actor Actor, taskID int64, tags []string) (*domain.Task, error) {
	if len(tags) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	for _, tag := range tags {
		if err := domain.ValidateTag(tag); err != nil {
			return nil, err
		}
	}
	task, _, err := s.access.RequireEdit(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	merged := append(append([]string{}, task.Tags...), tags...)
	return s.apply(ctx, actor, task, domain.TaskPatch{Tags: &merged}, "add_tags")
}

// RemoveTag removes one tag from a task the actor can edit.
func (s *TaskService) RemoveTag(ctx context.Context, actor Actor, taskID int64, tag string) (*domain.Task, error) {
	task, _, err := s.access.RequireEdit(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(task.Tags, tag) {
		return nil, ErrTagNotFound
	}
	remaining := slices.DeleteFunc(append([]string{}, task.Tags...), func(t string) bool { return t == tag })
	return s.apply(ctx, actor, task, domain.TaskPatch{Tags: &remaining}, "remove_tag")
}

// Stats summarises the actor's own tasks, cached per user.
func (s *TaskService) Stats(ctx context.Context, actor Actor) (*domain.TaskStats, error) {
	today := domain.DateOf(s.deps.now())
	stats, err := cachedStats(ctx, s.stats, cache.TaskStatsKey(actor.ID),
		func(ctx context.Context) (*domain.TaskStats, error) {
			return s.deps.Tasks.Stats(ctx, actor.ID, today)
		})
	if err != nil {
		return nil, NewServiceError("task", "stats", "failed to compute task stats", err)
	}
	return stats, nil
}
