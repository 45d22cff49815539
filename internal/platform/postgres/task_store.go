package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

const taskColumns = `t.id, t.title, t.description, t.completed, t.priority,
	t.due_date, t.tags, t.user_id, t.created_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db      store.DBTX
	logger  *slog.Logger
	typeMap *pgtype.Map
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:      db,
		logger:  logger.With(slog.String("component", "task_store")),
		typeMap: pgtype.NewMap(),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger, typeMap: s.typeMap}
}

func dateArg(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

// scanTask reads taskColumns followed by any extra destinations.
func (s *PostgresTaskStore) scanTask(row rowScanner, extra ...any) (*domain.Task, error) {
	var t domain.Task
	var desc sql.NullString
	var due sql.NullTime
	var priority string
	var tags []string

	dest := []any{
		&t.ID,
		&t.Title,
		&desc,
		&t.Completed,
		&priority,
		&due,
		s.typeMap.SQLScanner(&tags),
		&t.UserID,
		&t.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	t.Description = nullStringPtr(desc)
	t.Priority = domain.Priority(priority)
	if due.Valid {
		d := domain.DateOf(due.Time)
		t.DueDate = &d
	}
	if tags == nil {
		tags = []string{}
	}
	t.Tags = tags
	return &t, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create", slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO tasks (title, description, completed, priority, due_date, tags, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		dateArg(task.DueDate),
		task.Tags,
		task.UserID,
		task.CreatedAt,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", task.UserID))
		return MapError(err)
	}

	log.Debug("task created", slog.Int64("task_id", task.ID), slog.Int64("user_id", task.UserID))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("error", err.Error()), slog.Int64("task_id", id))
		return nil, MapError(err)
	}
	return task, nil
}

// buildTaskListQuery renders the owner-scoped listing query for filter.
func buildTaskListQuery(ownerID int64, filter domain.TaskFilter, today domain.Date) (string, []any) {
	var sb strings.Builder
	args := []any{ownerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks t WHERE t.user_id = $1`)

	if filter.Completed != nil {
		sb.WriteString(" AND t.completed = " + arg(*filter.Completed))
	}
	if filter.Priority != nil {
		sb.WriteString(" AND t.priority = " + arg(string(*filter.Priority)))
	}
	if filter.Tag != "" {
		sb.WriteString(" AND " + arg(filter.Tag) + " = ANY(t.tags)")
	}
	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		sb.WriteString(" AND (t.title ILIKE " + p + " OR t.description ILIKE " + p + ")")
	}
	if filter.Overdue {
		sb.WriteString(" AND t.completed = FALSE AND t.due_date < " + arg(today.Time))
	}

	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}
	switch filter.SortBy {
	case domain.SortByDueDate:
		sb.WriteString(" ORDER BY t.due_date " + dir + " NULLS LAST, t.id ASC")
	case domain.SortByPriority:
		sb.WriteString(" ORDER BY CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END " + dir + ", t.id ASC")
	case domain.SortByTitle:
		sb.WriteString(" ORDER BY t.title " + dir + ", t.id ASC")
	default:
		sb.WriteString(" ORDER BY t.created_at " + dir + ", t.id " + dir)
	}

	sb.WriteString(" LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Skip))
	return sb.String(), args
}

// ListByOwner implements store.TaskStore.ListByOwner
func (s *PostgresTaskStore) ListByOwner(
	ctx context.Context,
	ownerID int64,
	filter domain.TaskFilter,
	today domain.Date,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildTaskListQuery(ownerID, filter, today)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()), slog.Int64("user_id", ownerID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ListSharedWith implements store.TaskStore.ListSharedWith
func (s *PostgresTaskStore) ListSharedWith(ctx context.Context, userID int64) ([]*domain.SharedTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `, ts.permission, u.username
		FROM task_shares ts
		JOIN tasks t ON t.id = ts.task_id
		JOIN users u ON u.id = t.user_id
		WHERE ts.shared_with_user_id = $1
		ORDER BY ts.shared_at DESC, ts.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list shared tasks", slog.String("error", err.Error()), slog.Int64("user_id", userID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	shared := []*domain.SharedTask{}
	for rows.Next() {
		var permission, owner string
		task, err := s.scanTask(rows, &permission, &owner)
		if err != nil {
			return nil, err
		}
		shared = append(shared, &domain.SharedTask{
			Task:          *task,
			Permission:    domain.Permission(permission),
			OwnerUsername: owner,
		})
	}
	return shared, rows.Err()
}

// Stats implements store.TaskStore.Stats
func (s *PostgresTaskStore) Stats(ctx context.Context, ownerID int64, today domain.Date) (*domain.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COUNT(*) FILTER (WHERE NOT completed AND due_date < $2),
			COUNT(*) FILTER (WHERE priority = 'low'),
			COUNT(*) FILTER (WHERE priority = 'medium'),
			COUNT(*) FILTER (WHERE priority = 'high')
		FROM tasks
		WHERE user_id = $1
	`
	var stats domain.TaskStats
	var low, medium, high int
	err := s.db.QueryRowContext(ctx, query, ownerID, today.Time).Scan(
		&stats.Total,
		&stats.Completed,
		&stats.Overdue,
		&low,
		&medium,
		&high,
	)
	if err != nil {
		log.Error("failed to compute task stats", slog.String("error", err.Error()), slog.Int64("user_id", ownerID))
		return nil, MapError(err)
	}
	stats.Incomplete = stats.Total - stats.Completed
	stats.ByPriority = map[domain.Priority]int{
		domain.PriorityLow:    low,
		domain.PriorityMedium: medium,
		domain.PriorityHigh:   high,
	}
	return &stats, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5, tags = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		dateArg(task.DueDate),
		task.Tags,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task", slog.String("error", err.Error()), slog.Int64("task_id", task.ID))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task", slog.String("error", err.Error()), slog.Int64("task_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}
