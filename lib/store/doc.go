// Package store provides the storage facade a synchronization engine talks to:
// a two-operation key-value contract (GetItem, SetItem) over a namespaced,
// durable store, independent of the engine that actually holds the data.
//
// Key Components:
//
//   - IStore Interface: The contract shared by every store implementation. A local
//     store and a store reached over RPC are interchangeable for the caller.
//
//   - Error System: Every failure is reported as *Error with a RetCode. Engine
//     errors are carried in Error.Err, so errors.Is and errors.As reach them.
//
//   - DBFactory: Creates the db.KVDB for a namespace. The factory decides which
//     engine is used, the store never does. See the selector package for the
//     factory used by the binaries.
//
// Implementations:
//
//   - Local Store (lstore): Owns one engine and opens it lazily. Concurrent
//     first calls share a single open attempt.
//     Available in the "github.com/ValentinKolb/kvshim/lib/store/lstore" package.
//
//   - RPC Store (rpc/client): Forwards every call to a kvshim server.
//     Available in the "github.com/ValentinKolb/kvshim/rpc/client" package.
package store
