// Package serializer provides message serialization for the kvshim RPC surface.
// It defines a common interface and three implementations for encoding the
// common.Message exchanged between a client and a server.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format. A flag byte marks which fields
//     follow, each variable field is length prefixed. Smallest and fastest.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or for clients
//     written in other languages (curl against the http transport works).
//
//   - gobSerializerImpl: Go's gob encoding. Works, but every message carries its
//     type description, so it is the largest and slowest option.
//
// Values are opaque. Whether a Get found a value is carried by Message.Ok, so a
// stored empty string survives every format even where empty slices are dropped.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use.
//
// Usage:
//
//	s, err := serializer.ByName("binary")
//	data, err := s.Serialize(*common.NewGetRequest("key"))
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
