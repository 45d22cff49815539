package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// CommentStore defines the interface for task comment persistence.
type CommentStore interface {
	// Create inserts a comment and assigns its ID.
	Create(ctx context.Context, comment *domain.TaskComment) error

	// GetByID returns a comment with its author's username.
	// Returns ErrCommentNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.TaskComment, error)

	// ListByTask returns the comments of a task, oldest first.
	ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskComment, error)

	// Update persists content and updated_at.
	Update(ctx context.Context, comment *domain.TaskComment) error

	// Delete removes a comment.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new CommentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CommentStore
}
