package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task and assigns its ID and CreatedAt.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID regardless of owner.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// ListByOwner returns the tasks owned by ownerID that match filter.
	// today is used for the overdue filter.
	ListByOwner(ctx context.Context, ownerID int64, filter domain.TaskFilter, today domain.Date) ([]*domain.Task, error)

	// ListSharedWith returns the tasks shared with userID together with
	// the granted permission and the owner's username.
	ListSharedWith(ctx context.Context, userID int64) ([]*domain.SharedTask, error)

	// Stats aggregates counts over the tasks owned by ownerID.
	Stats(ctx context.Context, ownerID int64, today domain.Date) (*domain.TaskStats, error)

	// Update persists the mutable fields of task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Shares, comments and file rows cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
