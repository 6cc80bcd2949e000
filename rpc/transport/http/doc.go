// Package http implements the HTTP transport of the kvshim RPC surface.
//
// Every request is a POST to /{routeId} carrying the serialized message as body;
// the response body is the serialized reply. The server additionally exposes
// GET /metrics with all VictoriaMetrics series (store operations, init results)
// in the Prometheus text format.
//
// Key Components:
//
//   - httpClientTransport: Round-robin over the configured endpoints. A failed
//     attempt is retried on the next endpoint up to RetryCount times.
//
//   - httpServerTransport: net/http server with graceful shutdown on Close.
//     With log level debug every request is logged with status and duration.
//
// Thread Safety:
//
//	The client transport is safe for concurrent use once Connect returned.
package http
