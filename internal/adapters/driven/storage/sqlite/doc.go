// Package sqlite provides a SQLite-based implementation of the engine's
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements every store interface
// through a single database connection:
//
//   - OperationLogStore: the serialized operation log, one row per namespace
//   - AppliedSnapshotStore: fingerprints of remotely applied snapshots
//   - PassHistoryStore: drain pass outcomes
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.boardsync/data/boardsync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
