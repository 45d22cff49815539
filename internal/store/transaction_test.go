package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRunInTransaction(t *testing.T) {
	errBegin := errors.New("too many connections")
	errCommit := errors.New("serialization failure")
	errDuplicateShare := errors.New("share exists")

	tests := []struct {
		name      string
		expect    func(mock sqlmock.Sqlmock)
		fn        TxFn
		wantErrIs error
		wantText  []string
	}{
		{
			name: "share and log commit together",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO task_shares").WillReturnResult(sqlmock.NewResult(4, 1))
				mock.ExpectExec("INSERT INTO activity_logs").WillReturnResult(sqlmock.NewResult(9, 1))
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, "INSERT INTO task_shares (task_id) VALUES ($1)", 1); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, "INSERT INTO activity_logs (action) VALUES ($1)", "shared")
				return err
			},
		},
		{
			name: "work error rolls back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:        func(context.Context, *sql.Tx) error { return errDuplicateShare },
			wantErrIs: errDuplicateShare,
		},
		{
			name: "begin failure skips the work",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errBegin)
			},
			fn: func(context.Context, *sql.Tx) error {
				panic("work must not run")
			},
			wantErrIs: errBegin,
			wantText:  []string{"failed to begin transaction"},
		},
		{
			name: "commit failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errCommit)
			},
			fn:        func(context.Context, *sql.Tx) error { return nil },
			wantErrIs: errCommit,
			wantText:  []string{"failed to commit transaction"},
		},
		{
			name: "rollback failure keeps the original error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errors.New("connection reset"))
			},
			fn:        func(context.Context, *sql.Tx) error { return errDuplicateShare },
			wantErrIs: errDuplicateShare,
			wantText:  []string{"error rolling back transaction", "connection reset"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			tc.expect(mock)

			err := RunInTransaction(context.Background(), db, tc.fn)

			if tc.wantErrIs == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErrIs)
			}
			for _, text := range tc.wantText {
				assert.ErrorContains(t, err, text)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_PanicRollsBackAndRepanics(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "nil task", func() {
		_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
			panic("nil task")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var sawTx bool
	err := NewTxRunner(db).RunInTx(context.Background(), func(_ context.Context, tx *sql.Tx) error {
		sawTx = tx != nil
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sawTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}
