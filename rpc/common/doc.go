// Package common provides the data structures shared by the RPC client and server.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Requests and
//     responses share it; which fields are used depends on the MessageType.
//     Get responses carry presence in Ok, so an empty value and a missing key
//     stay distinguishable with every serializer.
//
//   - ServerConfig: Namespaces, storage backend, transport and logging settings
//     of a server process.
//
//   - ClientConfig: Endpoints, timeouts and retry behavior of a client.
//
//   - Logger: A logger.Factory for dragonboat's logger package giving every
//     kvshim logger the same line format. InitLoggers installs it.
package common
