package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/platform/postgres"
	"github.com/phrazzld/faros-api/internal/redact"
)

// Environment variables consulted, in order, for the test database URL.
const (
	EnvTestDatabaseURL = "FAROS_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// SetupTimeout bounds connecting to and migrating the test database.
const SetupTimeout = 30 * time.Second

// ErrNotConfigured is returned by Setup when no database URL is set.
var ErrNotConfigured = errors.New("test database not configured")

// DatabaseURL returns the first non-empty test database URL.
func DatabaseURL() string {
	for _, key := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Setup opens the test database, checks connectivity and applies every
// migration. Callers own the returned connection.
func Setup(ctx context.Context) (*sql.DB, error) {
	dbURL := DatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("%w: set %s", ErrNotConfigured, EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %s", redact.String(dbURL), redact.Error(err))
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, SetupTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping test database: %s", redact.Error(err))
	}
	if err := postgres.Migrate(ctx, db, postgres.MigrateUp, nil); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BeginTx starts a transaction that is rolled back when t finishes.
func BeginTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	})
	return tx
}

// Savepoint runs fn so that a failing statement does not abort the
// surrounding test transaction. It returns fn's error.
func Savepoint(t *testing.T, tx *sql.Tx, fn func() error) error {
	t.Helper()
	_, err := tx.Exec("SAVEPOINT testdb_expect_error")
	require.NoError(t, err)
	if err := fn(); err != nil {
		_, rbErr := tx.Exec("ROLLBACK TO SAVEPOINT testdb_expect_error")
		require.NoError(t, rbErr)
		return err
	}
	_, err = tx.Exec("RELEASE SAVEPOINT testdb_expect_error")
	require.NoError(t, err)
	return nil
}
