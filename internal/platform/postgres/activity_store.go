package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// PostgresActivityStore implements the store.ActivityStore interface.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates a new PostgreSQL implementation of the ActivityStore interface.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// WithTx implements store.ActivityStore.WithTx
func (s *PostgresActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return &PostgresActivityStore{db: tx, logger: s.logger}
}

const activitySelect = `
	SELECT a.id, a.user_id, u.username, a.action, a.resource_type, a.resource_id, a.details, a.created_at
	FROM activity_logs a
	JOIN users u ON u.id = a.user_id
`

func scanActivity(row rowScanner) (*domain.ActivityLog, error) {
	var a domain.ActivityLog
	var action, resourceType string
	var details []byte
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Username,
		&action,
		&resourceType,
		&a.ResourceID,
		&details,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.Action = domain.Action(action)
	a.ResourceType = domain.ResourceType(resourceType)
	a.Details = map[string]any{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &a.Details); err != nil {
			return nil, fmt.Errorf("failed to decode activity details: %w", err)
		}
	}
	return &a, nil
}

// Append implements store.ActivityStore.Append
func (s *PostgresActivityStore) Append(ctx context.Context, entry *domain.ActivityLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode activity details: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO activity_logs (user_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING id, created_at
	`,
		entry.UserID,
		string(entry.Action),
		string(entry.ResourceType),
		entry.ResourceID,
		string(details),
		entry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		log.Error("failed to append activity",
			slog.String("error", err.Error()),
			slog.String("action", string(entry.Action)),
			slog.String("resource_type", string(entry.ResourceType)))
		return MapError(err)
	}
	return nil
}

func (s *PostgresActivityStore) query(ctx context.Context, q string, args ...any) ([]*domain.ActivityLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		log.Error("failed to query activity", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	entries := []*domain.ActivityLog{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// ListByActor implements store.ActivityStore.ListByActor
func (s *PostgresActivityStore) ListByActor(
	ctx context.Context,
	actorID int64,
	filter domain.ActivityFilter,
) ([]*domain.ActivityLog, error) {
	q := activitySelect + `
		WHERE a.user_id = $1
			AND ($2 = '' OR a.action = $2)
			AND ($3 = '' OR a.resource_type = $3)
		ORDER BY a.id DESC
		LIMIT $4 OFFSET $5`
	return s.query(ctx, q, actorID, string(filter.Action), string(filter.ResourceType), filter.Limit, filter.Offset)
}

// ListForTask implements store.ActivityStore.ListForTask
func (s *PostgresActivityStore) ListForTask(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error) {
	q := activitySelect + `
		WHERE (a.resource_type = 'task' AND a.resource_id = $1)
			OR (a.resource_type IN ('comment', 'file', 'share') AND a.details->>'task_id' = $2)
		ORDER BY a.created_at ASC, a.id ASC`
	return s.query(ctx, q, taskID, strconv.FormatInt(taskID, 10))
}

func (s *PostgresActivityStore) countBy(ctx context.Context, column string, actorID int64) (map[string]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// column is one of two fixed identifiers, never user input.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM activity_logs WHERE user_id = $1 GROUP BY `+column, actorID)
	if err != nil {
		log.Error("failed to aggregate activity", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// StatsByActor implements store.ActivityStore.StatsByActor
func (s *PostgresActivityStore) StatsByActor(ctx context.Context, actorID int64) (*domain.ActivityStats, error) {
	byAction, err := s.countBy(ctx, "action", actorID)
	if err != nil {
		return nil, err
	}
	byResource, err := s.countBy(ctx, "resource_type", actorID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byAction {
		total += n
	}
	return &domain.ActivityStats{
		TotalActivities: total,
		ByAction:        byAction,
		ByResource:      byResource,
	}, nil
}
