// Package transport defines the interfaces for moving kvshim RPC requests between
// a client process and a server process. It provides a common contract that all
// transport implementations must fulfill, so the client and server never depend
// on the medium.
//
// Key Components:
//
//   - IRPCClientTransport: Connects to one or more endpoints and sends requests.
//
//   - IRPCServerTransport: Receives requests and hands them to a ServerHandleFunc.
//
//   - ServerHandleFunc: The callback a server registers. Requests are addressed by
//     route id, the hash of the namespace of the target store.
//
// Implementations live in the sub packages http, tcp and unix. tcp and unix share
// the framing and connection handling of package base.
package transport
