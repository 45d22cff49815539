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

// PostgresFileStore implements the store.FileStore interface.
type PostgresFileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFileStore creates a new PostgreSQL implementation of the FileStore interface.
func NewPostgresFileStore(db store.DBTX, logger *slog.Logger) *PostgresFileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFileStore{
		db:     db,
		logger: logger.With(slog.String("component", "file_store")),
	}
}

var _ store.FileStore = (*PostgresFileStore)(nil)

// WithTx implements store.FileStore.WithTx
func (s *PostgresFileStore) WithTx(tx *sql.Tx) store.FileStore {
	return &PostgresFileStore{db: tx, logger: s.logger}
}

const fileSelect = `
	SELECT id, task_id, original_filename, stored_filename, file_size, content_type, uploaded_at
	FROM task_files
`

func scanFile(row rowScanner) (*domain.TaskFile, error) {
	var f domain.TaskFile
	if err := row.Scan(
		&f.ID,
		&f.TaskID,
		&f.OriginalFilename,
		&f.StoredFilename,
		&f.FileSize,
		&f.ContentType,
		&f.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create implements store.FileStore.Create
func (s *PostgresFileStore) Create(ctx context.Context, file *domain.TaskFile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO task_files (task_id, original_filename, stored_filename, file_size, content_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at
	`,
		file.TaskID,
		file.OriginalFilename,
		file.StoredFilename,
		file.FileSize,
		file.ContentType,
		file.UploadedAt,
	).Scan(&file.ID, &file.UploadedAt)
	if err != nil {
		log.Error("failed to create file record", slog.String("error", err.Error()), slog.Int64("task_id", file.TaskID))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.FileStore.GetByID
func (s *PostgresFileStore) GetByID(ctx context.Context, id int64) (*domain.TaskFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	f, err := scanFile(s.db.QueryRowContext(ctx, fileSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFileNotFound
		}
		log.Error("failed to get file", slog.String("error", err.Error()), slog.Int64("file_id", id))
		return nil, MapError(err)
	}
	return f, nil
}

// ListByTask implements store.FileStore.ListByTask
func (s *PostgresFileStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, fileSelect+` WHERE task_id = $1 ORDER BY uploaded_at, id`, taskID)
	if err != nil {
		log.Error("failed to list files", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	files := []*domain.TaskFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Delete implements store.FileStore.Delete
func (s *PostgresFileStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_files WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete file", slog.String("error", err.Error()), slog.Int64("file_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrFileNotFound)
}
