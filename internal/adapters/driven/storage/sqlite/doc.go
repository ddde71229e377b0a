// Package sqlite provides the SQLite-backed entity index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Persons are keyed by (case id, id),
// occurrences by id and document snapshots by case id and content hash.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files
// and records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.ailawyer/data/entities.db
//
// # Locking
//
// Every write runs in a transaction while holding an exclusive lock on
// entities.lock next to the database, so an extraction run and a server
// sharing the directory never interleave partial batches.
package sqlite
