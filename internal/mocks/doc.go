// Package mocks provides centralized test doubles.
//
// MemoryDB implements every store interface and store.TxRunner in memory,
// with rollback, uniqueness and cascade behavior matching the Postgres
// schema. Services and HTTP handlers are tested against it without a
// database:
//
//	db := mocks.NewMemoryDB()
//	tasks := service.NewTaskService(db, db.Tasks(), db.Files(), db.Activity(), ...)
//
// The remaining mocks follow the function-field pattern (MockJWTService) or
// testify/mock (TestifyMockUserStore), and MemoryCache and RecordingEmitter
// capture side effects for assertions.
package mocks
