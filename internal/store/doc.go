// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Every store can be rebound to a
// transaction with WithTx so that a mutation and its activity log entry
// commit together.
package store
