// Package bolt implements the db.KVDB interface on go.etcd.io/bbolt, an embedded,
// memory-mapped B+tree key-value store. It is the low-latency engine: reads are
// served straight from the mmap and there is no schema beyond one bucket.
//
// Persisted Layout:
//
//	One file per namespace, <DataDir>/<namespace>.bolt, with a single bucket "kv".
//
// Implementation Details:
//
//   - Open: Opens the file with a bounded lock timeout (bbolt takes an exclusive
//     flock, a second process would otherwise wait forever) and creates the
//     bucket if it is missing.
//
//   - Get: A read transaction; the value is copied out of the mmap before the
//     transaction ends. Presence is decided by the key so that an empty value is
//     never mistaken for a missing one.
//
//   - Set: A write transaction with Put. Each commit is fsynced unless NoSync is set.
//
// The engine has no real asynchronous cost, it still implements the same
// context-taking contract as every other engine so the store cannot tell them apart.
package bolt
