// Package unix implements the Unix domain socket transport of the kvshim RPC
// surface. It is the natural choice when the sync engine and the kvshim server
// run on the same machine: no TCP/IP stack, and access is governed by the file
// permissions of the socket.
//
// Framing, connection pooling and request routing come from the base package.
// The endpoint is a socket path; a stale socket file is removed before binding.
package unix
