// Package service contains the application use cases: users and
// credentials, task CRUD, sharing, comments, attachments, the activity log
// and notification preferences.
//
// Every mutation runs its store writes and the matching activity log entry
// in one transaction obtained from a store.TxRunner. Side effects that must
// not roll back with the transaction (notification events, blob cleanup,
// cache invalidation) run only after commit.
//
// Access to a task is resolved by AccessChecker: a missing task is
// store.ErrTaskNotFound, an existing task the caller may not touch is
// ErrForbidden.
package service
