// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, together with the embedded goose
// migrations that create the schema they query.
//
// Stores accept a store.DBTX so the same code runs against a *sql.DB or a
// *sql.Tx obtained through store.RunInTransaction. Driver errors are passed
// through MapError, which turns constraint violations into the store
// package's sentinel errors.
package postgres
