// Package server implements the kvshim RPC server. It hosts one local store
// (lstore) per configured namespace and dispatches requests to them by route id,
// see util.RouteID.
//
// Key Components:
//
//   - IRPCServerAdapter: Translates a request Message into calls on a store.IStore.
//
//   - NewIStoreServerAdapter: The adapter for get, set and info requests.
//
//   - NewRPCServer: Creates a server with the given transport and serializer. The
//     engine of every store comes from selector.Factory for config.Backend.
//
// Usage Example:
//
//	s := server.NewRPCServer(
//	  common.ServerConfig{
//	    Namespaces: []string{"querySubs", "settings"},
//	    Backend:    "bolt",
//	    DataDir:    "/var/lib/kvshim",
//	    Transport:  common.ServerTransportConfig{Endpoint: "/tmp/kvshim.sock"},
//	  },
//	  unix.NewUnixServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	go func() {
//	  if err := s.Serve(); err != nil {
//	    log.Fatalf("Server error: %v", err)
//	  }
//	}()
//	defer s.Close()
//
// Engines are opened by the first request for their namespace, not by Serve.
package server
