// Package memdb implements db.KVDB entirely in memory on top of a lock-free
// concurrent map (xsync.MapOf). It is selected with the "memory" backend and is
// used for tests and for stores whose contents may be lost when the process exits.
//
// The engine does not advertise db.FeatureDurable: a new instance for the same
// namespace starts empty.
package memdb
