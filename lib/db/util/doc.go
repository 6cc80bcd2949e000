// Package util provides small helpers shared by the storage and RPC layers.
//
// HashString is a seeded FNV-1a hash. RouteID uses it to map a namespace to the
// numeric id a client puts on the wire and a server uses to find the store.
package util
