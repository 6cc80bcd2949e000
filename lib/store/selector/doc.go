// Package selector decides which db.KVDB engine backs a store.
//
// The decision has two levels and is made once, before any store exists:
//
//   - Build time: DefaultImplementation is bolt, or sqlite when the binary is
//     built with -tags kvshim_sqlite. A platform build swaps the engine without
//     touching the store or its callers.
//
//   - Process start: Factory takes an explicit implementation (from --backend or
//     KVSHIM_BACKEND) that overrides the build default.
//
// The returned store.DBFactory is handed to lstore.NewLocalStore; a store keeps
// the engine it got for its whole lifetime.
package selector
