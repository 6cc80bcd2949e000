// Package db defines the contract every storage engine behind a kvshim store
// has to satisfy, and the small set of types shared by all engines.
//
// The package focuses on:
//   - A two-operation key-value interface (Get, Set) over opaque text values
//   - An explicit, idempotent Open step that performs all expensive setup
//   - Feature discovery through capability flags
//   - Standardized metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The interface all engines implement. Constructing an engine
//     is free of I/O; Open opens or creates the backing structures (file, table,
//     bucket) using create-if-absent semantics so that reopening an existing store
//     never fails and never loses data.
//
//   - Feature Flags: Engines advertise what they can do (Get, Set, Durable, Schema,
//     MemoryMapped). The store checks Get/Set before delegating and the shared
//     test suite skips durability checks for non-durable engines.
//
//   - Implementation Identifiers: "sqlite", "bolt" and "memory".
//
//   - Database Information: DatabaseInfo reports namespace, path, size and
//     engine-specific metadata.
//
// Absent vs. empty:
//
//	Get distinguishes a missing key (loaded=false) from a key holding the empty
//	string (value="", loaded=true). Every engine must preserve this distinction.
//
// Related Packages:
//
// The engines/sqlite package implements KVDB on top of an embedded SQLite database
// (one table, two text columns). The engines/bolt package implements it on a
// memory-mapped bbolt file. The engines/memdb package keeps everything in memory.
//
// The testing package (github.com/ValentinKolb/kvshim/lib/db/testing) provides the
// standardized conformance tests and benchmarks all engines run:
//   - RunKVDBTests: Runs the test suite against a factory
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing engines
package db
