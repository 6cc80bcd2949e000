package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Message, store store.IStore) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := store.SetItem(ctx, req.Key, string(req.Value))
		return common.NewSetResponse(err)
	case common.MsgTKVGet:
		val, ok, err := store.GetItem(ctx, req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVInfo:
		info, err := store.GetDBInfo()
		if err != nil {
			return common.NewInfoResponse(nil, err)
		}
		data, err := json.Marshal(info)
		return common.NewInfoResponse(data, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
