package client

import (
	"errors"

	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/ValentinKolb/kvshim/rpc/serializer"
	"github.com/ValentinKolb/kvshim/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	routeId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a route ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type.
// Every returned error is a *store.Error.
func invokeRPCRequest(routeId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, store.WrapError(store.RetCInternalError, "failed to serialize request", err)
	}

	// Send the request
	respBytes, err := transport.Send(routeId, reqBytes)
	if err != nil {
		return nil, store.WrapError(store.RetCInternalError, "failed to send request", err)
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, store.WrapError(store.RetCInternalError, "failed to deserialize response", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, store.WrapError(store.RetCInternalError, "server returned an error", errors.New(resp.Err))
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, store.NewError(store.RetCInternalError,
			"unexpected message type "+resp.MsgType.String()+", expected "+req.MsgType.String())
	}

	// Return the response
	return resp, nil
}
