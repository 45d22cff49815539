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

// PostgresPreferenceStore implements the store.PreferenceStore interface.
type PostgresPreferenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPreferenceStore creates a new PostgreSQL implementation of the PreferenceStore interface.
func NewPostgresPreferenceStore(db store.DBTX, logger *slog.Logger) *PostgresPreferenceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPreferenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "preference_store")),
	}
}

var _ store.PreferenceStore = (*PostgresPreferenceStore)(nil)

// WithTx implements store.PreferenceStore.WithTx
func (s *PostgresPreferenceStore) WithTx(tx *sql.Tx) store.PreferenceStore {
	return &PostgresPreferenceStore{db: tx, logger: s.logger}
}

// Get implements store.PreferenceStore.Get
func (s *PostgresPreferenceStore) Get(ctx context.Context, userID int64) (*domain.NotificationPreference, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p domain.NotificationPreference
	var updated sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email_verified, email_enabled, task_shared_with_me, task_completed,
			comment_on_my_task, task_due_soon, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.EmailVerified,
		&p.EmailEnabled,
		&p.TaskSharedWithMe,
		&p.TaskCompleted,
		&p.CommentOnMyTask,
		&p.TaskDueSoon,
		&p.CreatedAt,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPreferenceNotFound
		}
		log.Error("failed to get preferences", slog.String("error", err.Error()), slog.Int64("user_id", userID))
		return nil, MapError(err)
	}
	p.UpdatedAt = nullTimePtr(updated)
	return &p, nil
}

// Create implements store.PreferenceStore.Create
func (s *PostgresPreferenceStore) Create(ctx context.Context, pref *domain.NotificationPreference) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (user_id, email_verified, email_enabled, task_shared_with_me,
			task_completed, comment_on_my_task, task_due_soon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		pref.UserID,
		pref.EmailVerified,
		pref.EmailEnabled,
		pref.TaskSharedWithMe,
		pref.TaskCompleted,
		pref.CommentOnMyTask,
		pref.TaskDueSoon,
		pref.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create preferences", slog.String("error", err.Error()), slog.Int64("user_id", pref.UserID))
		return MapError(err)
	}
	return nil
}

// Update implements store.PreferenceStore.Update
func (s *PostgresPreferenceStore) Update(ctx context.Context, pref *domain.NotificationPreference) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_preferences
		SET email_verified = $1, email_enabled = $2, task_shared_with_me = $3, task_completed = $4,
			comment_on_my_task = $5, task_due_soon = $6, updated_at = $7
		WHERE user_id = $8
	`,
		pref.EmailVerified,
		pref.EmailEnabled,
		pref.TaskSharedWithMe,
		pref.TaskCompleted,
		pref.CommentOnMyTask,
		pref.TaskDueSoon,
		pref.UpdatedAt,
		pref.UserID,
	)
	if err != nil {
		log.Error("failed to update preferences", slog.String("error", err.Error()), slog.Int64("user_id", pref.UserID))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrPreferenceNotFound)
}
