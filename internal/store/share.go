package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// ShareStore defines the interface for task share persistence.
type ShareStore interface {
	// Create inserts a share and assigns its ID.
	// Returns ErrShareExists when the task is already shared with the grantee.
	Create(ctx context.Context, share *domain.TaskShare) error

	// Get returns the share of taskID with userID.
	// Returns ErrShareNotFound if none exists.
	Get(ctx context.Context, taskID, userID int64) (*domain.TaskShare, error)

	// ListByTask returns the shares of a task with grantee usernames, oldest first.
	ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskShare, error)

	// UpdatePermission changes the permission of an existing share.
	// Returns ErrShareNotFound if none exists.
	UpdatePermission(ctx context.Context, taskID, userID int64, permission domain.Permission) error

	// Delete removes the share of taskID with userID.
	// Returns ErrShareNotFound if none exists.
	Delete(ctx context.Context, taskID, userID int64) error

	// WithTx returns a new ShareStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ShareStore
}
