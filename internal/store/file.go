package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// FileStore defines the interface for attachment metadata persistence.
// The bytes themselves live in the storage backend.
type FileStore interface {
	// Create inserts file metadata and assigns its ID.
	Create(ctx context.Context, file *domain.TaskFile) error

	// GetByID returns file metadata.
	// Returns ErrFileNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.TaskFile, error)

	// ListByTask returns the files attached to a task, oldest first.
	ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskFile, error)

	// Delete removes file metadata.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new FileStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) FileStore
}
