// Package testing provides the shared conformance suite and benchmarks for
// db.KVDB implementations. Every engine package calls RunKVDBTests from its own
// test file with a factory bound to a temporary directory, so all engines are
// held to the same contract:
//
//   - set-then-get returns the written value
//   - a key never written is absent (never an empty string)
//   - an empty value is present
//   - the last write wins
//   - Open is idempotent, operations fail with ErrNotOpen before Open and with
//     ErrClosed after Close
//   - durable engines return their data after a close/reopen cycle
//
// RunKVDBBenchmarks runs comparable parallel Set/Get benchmarks.
package testing
