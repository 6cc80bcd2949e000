// Package tcp implements the TCP socket transport of the kvshim RPC surface.
// It provides the base package's connector interfaces for TCP connections and
// inherits framing, connection pooling and request routing from base.
//
// Key Components:
//
//   - clientConnector: Dials endpoints (host:port) and applies NoDelay and
//     keep-alive settings from the client config.
//
//   - serverConnector: Listens on the configured endpoint and applies the socket
//     options of common.ServerTransportConfig to every accepted connection.
package tcp
