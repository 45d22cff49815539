package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// ActivityStore persists the append-only activity log.
// Entries are never updated or deleted.
type ActivityStore interface {
	// Append inserts a log entry and assigns its ID.
	Append(ctx context.Context, entry *domain.ActivityLog) error

	// ListByActor returns entries authored by actorID, newest first.
	ListByActor(ctx context.Context, actorID int64, filter domain.ActivityFilter) ([]*domain.ActivityLog, error)

	// ListForTask returns every entry about taskID, including comment and
	// file entries whose details reference it, oldest first.
	ListForTask(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error)

	// StatsByActor aggregates the entries authored by actorID.
	StatsByActor(ctx context.Context, actorID int64) (*domain.ActivityStats, error)

	// WithTx returns a new ActivityStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ActivityStore
}
