// Package sqlite implements the db.KVDB interface on an embedded SQLite database,
// using the pure Go modernc.org/sqlite driver so the engine cross-compiles for
// mobile targets without cgo.
//
// Persisted Layout:
//
//	One database file per namespace, <DataDir>/<namespace>.db, holding one table:
//
//	  CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT)
//
// Implementation Details:
//
//   - Open: Creates the data directory, opens the file, verifies the connection,
//     applies pragmas (WAL journal, configurable synchronous mode, busy timeout)
//     and creates the table if it does not exist. Reopening an existing file is a
//     no-op for the schema and keeps all rows.
//
//   - Get: A point lookup by primary key. No row means absent. A NULL value
//     column is also reported as absent.
//
//   - Set: INSERT OR REPLACE, so a write either fully replaces the previous row or
//     leaves it untouched. Atomicity of a single statement is provided by SQLite.
//
//   - Connections: The pool is limited to a single connection. SQLite allows one
//     writer at a time; one connection avoids SQLITE_BUSY between our own
//     statements and keeps the per-connection pragmas in effect.
//
// Errors from the driver are wrapped and returned unchanged in meaning.
package sqlite
