package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// PostgresCommentStore implements the store.CommentStore interface.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the CommentStore interface.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

// WithTx implements store.CommentStore.WithTx
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{db: tx, logger: s.logger}
}

const commentSelect = `
	SELECT c.id, c.task_id, c.user_id, u.username, c.content, c.created_at, c.updated_at
	FROM task_comments c
	JOIN users u ON u.id = c.user_id
`

func scanComment(row rowScanner) (*domain.TaskComment, error) {
	var c domain.TaskComment
	var updated sql.NullTime
	if err := row.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt, &updated); err != nil {
		return nil, err
	}
	c.UpdatedAt = nullTimePtr(updated)
	return &c, nil
}

// Create implements store.CommentStore.Create
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.TaskComment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO task_comments (task_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, comment.TaskID, comment.UserID, comment.Content, comment.CreatedAt).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		log.Error("failed to create comment", slog.String("error", err.Error()), slog.Int64("task_id", comment.TaskID))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.CommentStore.GetByID
func (s *PostgresCommentStore) GetByID(ctx context.Context, id int64) (*domain.TaskComment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment", slog.String("error", err.Error()), slog.Int64("comment_id", id))
		return nil, MapError(err)
	}
	return c, nil
}

// ListByTask implements store.CommentStore.ListByTask
func (s *PostgresCommentStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskComment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, commentSelect+` WHERE c.task_id = $1 ORDER BY c.created_at, c.id`, taskID)
	if err != nil {
		log.Error("failed to list comments", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	comments := []*domain.TaskComment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Update implements store.CommentStore.Update
func (s *PostgresCommentStore) Update(ctx context.Context, comment *domain.TaskComment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE task_comments SET content = $1, updated_at = $2 WHERE id = $3`,
		comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		log.Error("failed to update comment", slog.String("error", err.Error()), slog.Int64("comment_id", comment.ID))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}

// Delete implements store.CommentStore.Delete
func (s *PostgresCommentStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_comments WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete comment", slog.String("error", err.Error()), slog.Int64("comment_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}
