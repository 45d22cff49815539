// Package testdb connects integration tests to a real PostgreSQL database.
//
// Tests share one migrated connection and isolate themselves by running
// inside a transaction that is rolled back on cleanup:
//
//	func TestMain(m *testing.M) {
//	    db, err := testdb.Setup(context.Background())
//	    if errors.Is(err, testdb.ErrNotConfigured) {
//	        os.Exit(0)
//	    }
//	    ...
//	}
//
//	func TestSomething(t *testing.T) {
//	    tx := testdb.BeginTx(t, db)
//	    users := postgres.NewPostgresUserStore(tx, nil)
//	    ...
//	}
//
// The connection string is read from FAROS_TEST_DATABASE_URL, falling back
// to DATABASE_URL.
package testdb
