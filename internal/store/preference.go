package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/faros-api/internal/domain"
)

// PreferenceStore persists per-user notification preferences.
type PreferenceStore interface {
	// Get returns the preferences of userID.
	// Returns ErrPreferenceNotFound if no row exists yet.
	Get(ctx context.Context, userID int64) (*domain.NotificationPreference, error)

	// Create inserts a preference row.
	Create(ctx context.Context, pref *domain.NotificationPreference) error

	// Update persists every flag of pref.
	Update(ctx context.Context, pref *domain.NotificationPreference) error

	// WithTx returns a new PreferenceStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PreferenceStore
}
