package client

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/db/util"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/ValentinKolb/kvshim/rpc/serializer"
	"github.com/ValentinKolb/kvshim/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a namespace, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
//
// The returned store owns the transport, closing the store closes the transport.
func NewRPCStore(
	namespace string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := db.ValidateNamespace(namespace); err != nil {
		return nil, store.WrapError(store.RetCInvalidOperation, "invalid namespace", err)
	}

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, store.WrapError(store.RetCInitFailed, "failed to connect", err)
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter: rpcClientAdapter{
			routeId:    util.RouteID(namespace),
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
		namespace: namespace,
	}

	Logger.Debugf("created rpc store for namespace %s", namespace)

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
	namespace string
	closed    atomic.Bool
}

func (i *rpcStore) check(key string) error {
	if i.closed.Load() {
		return store.NewError(store.RetCInvalidOperation, "store is closed")
	}
	if key == "" {
		return store.NewError(store.RetCInvalidOperation, "key must not be empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

// GetItem ignores ctx beyond an early cancellation check, the transport timeout bounds the call
func (i *rpcStore) GetItem(ctx context.Context, key string) (value string, loaded bool, err error) {
	if err := i.check(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, store.WrapError(store.RetCInternalError, "request canceled", err)
	}
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(i.routeId, req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	if !resp.Ok {
		return "", false, nil
	}
	return string(resp.Value), true, nil
}

func (i *rpcStore) SetItem(ctx context.Context, key, value string) (err error) {
	if err := i.check(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.WrapError(store.RetCInternalError, "request canceled", err)
	}
	req := common.NewSetRequest(key, value)
	_, err = invokeRPCRequest(i.routeId, req, i.transport, i.serializer)
	return err
}

func (i *rpcStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	if i.closed.Load() {
		return db.DatabaseInfo{}, store.NewError(store.RetCInvalidOperation, "store is closed")
	}
	resp, err := invokeRPCRequest(i.routeId, common.NewInfoRequest(), i.transport, i.serializer)
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return db.DatabaseInfo{}, store.WrapError(store.RetCInternalError, "failed to decode database info", err)
	}
	return info, nil
}

func (i *rpcStore) Close() error {
	if i.closed.Swap(true) {
		return nil
	}
	if err := i.transport.Close(); err != nil {
		return store.WrapError(store.RetCInternalError, "failed to close transport", err)
	}
	return nil
}
