// Package lstore implements the local store.IStore: a namespaced store that owns
// exactly one db.KVDB and opens it on first use.
//
// Key Features:
//   - Lazy, single-flight initialization of the engine
//   - Engine agnostic: the engine comes from a store.DBFactory
//   - Feature detection to handle unsupported operations gracefully
//   - Per namespace metrics (VictoriaMetrics)
//
// Implementation Details:
//
//   - Initialization: The engine is created when the store is created but opened
//     by the first operation. Concurrent first operations collapse into one Open
//     call (golang.org/x/sync/singleflight) and all of them receive its result.
//     Once Open succeeded the store is marked ready with an atomic flag and the
//     fast path never touches the single-flight group again.
//
//   - Failed Initialization: The error is returned to every caller that joined
//     the attempt, wrapped in a store.Error with RetCInitFailed. The store stays
//     uninitialized and the next operation starts a fresh attempt. Nothing is
//     retried inside a single call.
//
//   - Cancellation: The open attempt runs with the first caller's context values
//     but without its cancellation. A caller whose context ends stops waiting and
//     gets an error, the attempt continues for everyone else.
//
//   - Close: Releases the engine and keeps the data. Operations after Close
//     return RetCInvalidOperation.
//
// Usage Example:
//
//	factory := func(namespace string) db.KVDB {
//		return bolt.NewBoltDB(namespace, &bolt.DBOptions{DataDir: "/var/lib/app"})
//	}
//	s := lstore.NewLocalStore("querySubs", factory)
//	defer s.Close()
//
//	err := s.SetItem(ctx, "sub-1", `{"q":"goals"}`)
//	value, exists, err := s.GetItem(ctx, "sub-1")
//
// Metrics:
//
//	kvshim_store_init_total{namespace,result}
//	kvshim_store_ops_total{namespace,op}
//	kvshim_store_op_errors_total{namespace,op}
//	kvshim_store_op_duration_seconds{namespace,op}
package lstore
