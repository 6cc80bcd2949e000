// Package client implements store.IStore on top of the RPC transport.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	st, err := client.NewRPCStore("querySubs", config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  return err
//	}
//	defer st.Close()
//
//	_ = st.SetItem(ctx, "sub-1", `{"q":"todos"}`)
//	value, found, _ := st.GetItem(ctx, "sub-1")
//
// Errors reported by the server arrive as *store.Error with RetCInternalError;
// the server's message is kept in the wrapped error. Empty keys and calls after
// Close are rejected locally with RetCInvalidOperation.
//
// A store owns its transport. Use one transport per store.
package client
