// Package base provides the stream transport shared by the TCP and Unix socket
// transports. Protocol specific parts (dialing, listening, socket options) are
// supplied by an IClientConnector or IServerConnector.
//
// Frames:
//
//	| routeId (8 bytes) | requestId (8 bytes) | length (4 bytes) | payload |
//
// All integers are big endian. The routeId selects the namespace store on the
// server, the requestId correlates a response with its request, so many requests
// can be in flight on one connection. Frames larger than 64 MiB are rejected.
//
// Client:
//
//   - Connections are opened per endpoint (ConnectionsPerEndpoint) and used round robin.
//   - A failed send is retried on the next connection with exponential backoff and jitter.
//   - When reading from a connection fails, every pending request on it fails
//     and the connection is re-established.
//
// Server:
//
//   - Every connection is served by its own goroutine. Requests on a connection
//     are handled concurrently, bounded by WorkersPerConn.
//   - Read buffers are taken from a sync.Pool.
//   - Close stops accepting and closes all open connections.
package base
