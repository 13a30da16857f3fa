// Package sqlite provides a SQLite-backed implementation of driven.HistoryStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Each history entry is stored as one row per request id, with a unique
// constraint on (scenario, request_id, sent_at), so concurrent senders cannot
// double-log the same send.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
