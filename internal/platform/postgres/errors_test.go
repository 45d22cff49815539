package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/faros-api/internal/platform/postgres"
	"github.com/phrazzld/faros-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "test_table",
		ColumnName:     "test_column",
		ConstraintName: constraint,
	}
}

// mockResult implements sql.Result for testing.
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "unknown unique", err: newPgError("23505", "other_key"), wantIs: store.ErrDuplicate},
		{name: "username", err: newPgError("23505", "users_username_key"), wantIs: store.ErrUsernameExists},
		{name: "email", err: newPgError("23505", "users_email_key"), wantIs: store.ErrEmailExists},
		{
			name:   "share pair",
			err:    fmt.Errorf("insert: %w", newPgError("23505", "task_shares_task_id_shared_with_user_id_key")),
			wantIs: store.ErrShareExists,
		},
		{name: "foreign key", err: newPgError("23503", "tasks_user_id_fkey"), wantIs: store.ErrInvalidEntity},
		{name: "check", err: newPgError("23514", "tasks_priority_check"), wantIs: store.ErrInvalidEntity},
		{name: "not null", err: newPgError("23502", ""), wantIs: store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tc.err)
			if tc.wantNil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantIs)
		})
	}

	t.Run("unmapped error passes through", func(t *testing.T) {
		t.Parallel()
		plain := errors.New("connection reset")
		assert.Same(t, plain, postgres.MapError(plain))
	})

	t.Run("specific duplicate is still a duplicate", func(t *testing.T) {
		t.Parallel()
		got := postgres.MapError(newPgError("23505", "users_email_key"))
		assert.True(t, store.IsDuplicateError(got))
		assert.False(t, errors.Is(got, store.ErrUsernameExists))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505", "")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", newPgError("23505", ""))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503", "")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("plain")))
}

func TestMapError_InvalidEntityMessages(t *testing.T) {
	t.Parallel()

	got := postgres.MapError(newPgError("23503", "tasks_user_id_fkey"))
	assert.Contains(t, got.Error(), "foreign key violation (tasks_user_id_fkey)")

	got = postgres.MapError(newPgError("23502", ""))
	assert.Contains(t, got.Error(), "not null violation (test_column)")
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrTaskNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))

	boom := errors.New("driver failure")
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{err: boom}, nil), boom)
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")
	assert.Same(t, plain, postgres.MapUniqueViolation(plain, store.ErrShareExists))
	assert.ErrorIs(t, postgres.MapUniqueViolation(newPgError("23505", "x"), store.ErrShareExists), store.ErrShareExists)
	assert.ErrorIs(t, postgres.MapUniqueViolation(newPgError("23505", "users_email_key"), nil), store.ErrEmailExists)
}
