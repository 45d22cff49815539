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

// PostgresShareStore implements the store.ShareStore interface.
type PostgresShareStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresShareStore creates a new PostgreSQL implementation of the ShareStore interface.
func NewPostgresShareStore(db store.DBTX, logger *slog.Logger) *PostgresShareStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresShareStore{
		db:     db,
		logger: logger.With(slog.String("component", "share_store")),
	}
}

var _ store.ShareStore = (*PostgresShareStore)(nil)

// WithTx implements store.ShareStore.WithTx
func (s *PostgresShareStore) WithTx(tx *sql.Tx) store.ShareStore {
	return &PostgresShareStore{db: tx, logger: s.logger}
}

// Create implements store.ShareStore.Create
func (s *PostgresShareStore) Create(ctx context.Context, share *domain.TaskShare) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_shares (task_id, shared_with_user_id, permission, shared_by_user_id, shared_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, shared_at
	`
	err := s.db.QueryRowContext(ctx, query,
		share.TaskID,
		share.SharedWithUserID,
		string(share.Permission),
		share.SharedByUserID,
		share.SharedAt,
	).Scan(&share.ID, &share.SharedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate share",
				slog.Int64("task_id", share.TaskID),
				slog.Int64("shared_with_user_id", share.SharedWithUserID))
			return MapUniqueViolation(err, store.ErrShareExists)
		}
		log.Error("failed to create share", slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

const shareSelect = `
	SELECT ts.id, ts.task_id, ts.shared_with_user_id, u.username, ts.permission,
		ts.shared_by_user_id, ts.shared_at
	FROM task_shares ts
	JOIN users u ON u.id = ts.shared_with_user_id
`

func scanShare(row rowScanner) (*domain.TaskShare, error) {
	var sh domain.TaskShare
	var permission string
	if err := row.Scan(
		&sh.ID,
		&sh.TaskID,
		&sh.SharedWithUserID,
		&sh.SharedWithUsername,
		&permission,
		&sh.SharedByUserID,
		&sh.SharedAt,
	); err != nil {
		return nil, err
	}
	sh.Permission = domain.Permission(permission)
	return &sh, nil
}

// Get implements store.ShareStore.Get
func (s *PostgresShareStore) Get(ctx context.Context, taskID, userID int64) (*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	share, err := scanShare(s.db.QueryRowContext(ctx,
		shareSelect+` WHERE ts.task_id = $1 AND ts.shared_with_user_id = $2`, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrShareNotFound
		}
		log.Error("failed to get share", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return share, nil
}

// ListByTask implements store.ShareStore.ListByTask
func (s *PostgresShareStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, shareSelect+` WHERE ts.task_id = $1 ORDER BY ts.shared_at, ts.id`, taskID)
	if err != nil {
		log.Error("failed to list shares", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	shares := []*domain.TaskShare{}
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, sh)
	}
	return shares, rows.Err()
}

// UpdatePermission implements store.ShareStore.UpdatePermission
func (s *PostgresShareStore) UpdatePermission(
	ctx context.Context,
	taskID, userID int64,
	permission domain.Permission,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE task_shares SET permission = $1 WHERE task_id = $2 AND shared_with_user_id = $3`,
		string(permission), taskID, userID)
	if err != nil {
		log.Error("failed to update share", slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrShareNotFound)
}

// Delete implements store.ShareStore.Delete
func (s *PostgresShareStore) Delete(ctx context.Context, taskID, userID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_shares WHERE task_id = $1 AND shared_with_user_id = $2`, taskID, userID)
	if err != nil {
		log.Error("failed to delete share", slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrShareNotFound)
}
