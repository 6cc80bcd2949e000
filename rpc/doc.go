// Package rpc exposes kvshim stores over the network. A server process owns the
// engines of its namespaces and clients reach them through a store.IStore that
// forwards every call.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, client and server configuration and the
//     logger factory shared by the binaries.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: The RPC implementation of store.IStore.
//
//   - server: Hosts one local store per namespace and answers requests for them.
package rpc
