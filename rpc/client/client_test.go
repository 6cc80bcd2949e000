package client_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/rpc/client"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/ValentinKolb/kvshim/rpc/serializer"
	"github.com/ValentinKolb/kvshim/rpc/server"
	"github.com/ValentinKolb/kvshim/rpc/transport"
	"github.com/ValentinKolb/kvshim/rpc/transport/http"
	"github.com/ValentinKolb/kvshim/rpc/transport/tcp"
	"github.com/ValentinKolb/kvshim/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportCase struct {
	name       string
	network    string
	serializer string
	server     func() transport.IRPCServerTransport
	client     func() transport.IRPCClientTransport
}

var transportCases = []transportCase{
	{"unix", "unix", "gob", unix.NewUnixServerTransport, unix.NewUnixClientTransport},
	{"tcp", "tcp", "binary", tcp.NewTCPServerTransport, tcp.NewTCPClientTransport},
	{"http", "tcp", "json", http.NewHttpServerTransport, http.NewHttpClientTransport},
}

func freeTCPAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// startServer runs a memory backed server for namespaces and returns a function
// creating connected stores
func startServer(t *testing.T, tc transportCase, namespaces ...string) func(namespace string) store.IStore {
	t.Helper()

	endpoint := freeTCPAddr(t)
	if tc.network == "unix" {
		endpoint = filepath.Join(t.TempDir(), "kvshim.sock")
	}

	ser, err := serializer.ByName(tc.serializer)
	require.NoError(t, err)

	s := server.NewRPCServer(common.ServerConfig{
		Namespaces:    namespaces,
		Backend:       string(db.ImplMemory),
		TimeoutSecond: 5,
		Transport: common.ServerTransportConfig{
			Endpoint:   endpoint,
			TCPNoDelay: true,
		},
		LogLevel: "error",
	}, tc.server(), ser)

	served := make(chan error, 1)
	go func() { served <- s.Serve() }()
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial(tc.network, endpoint)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	return func(namespace string) store.IStore {
		cfg := common.ClientConfig{
			TimeoutSecond: 5,
			Transport: common.ClientTransportConfig{
				Endpoints:              []string{endpoint},
				RetryCount:             2,
				ConnectionsPerEndpoint: 2,
				TCPNoDelay:             true,
			},
		}
		st, err := client.NewRPCStore(namespace, cfg, tc.client(), ser)
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	}
}

func requireCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr), "expected *store.Error, got %v", err)
	assert.Equal(t, code, storeErr.Code)
}

func TestRPCStore(t *testing.T) {
	for _, tc := range transportCases {
		t.Run(tc.name, func(t *testing.T) {
			newStore := startServer(t, tc, "querySubs", "settings")
			ctx := context.Background()

			subs := newStore("querySubs")
			settings := newStore("settings")

			t.Run("SetGet", func(t *testing.T) {
				require.NoError(t, subs.SetItem(ctx, "sub-1", `{"q":"todos"}`))
				value, loaded, err := subs.GetItem(ctx, "sub-1")
				require.NoError(t, err)
				assert.True(t, loaded)
				assert.Equal(t, `{"q":"todos"}`, value)
			})

			t.Run("AbsentIsNotEmpty", func(t *testing.T) {
				require.NoError(t, subs.SetItem(ctx, "empty", ""))

				value, loaded, err := subs.GetItem(ctx, "empty")
				require.NoError(t, err)
				assert.True(t, loaded)
				assert.Equal(t, "", value)

				value, loaded, err = subs.GetItem(ctx, "never-set")
				require.NoError(t, err)
				assert.False(t, loaded)
				assert.Equal(t, "", value)
			})

			t.Run("Overwrite", func(t *testing.T) {
				require.NoError(t, subs.SetItem(ctx, "k", "v1"))
				require.NoError(t, subs.SetItem(ctx, "k", "v2"))
				value, _, err := subs.GetItem(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, "v2", value)
			})

			t.Run("NamespacesAreIsolated", func(t *testing.T) {
				require.NoError(t, settings.SetItem(ctx, "shared", "settings"))
				require.NoError(t, subs.SetItem(ctx, "shared", "subs"))

				value, _, err := settings.GetItem(ctx, "shared")
				require.NoError(t, err)
				assert.Equal(t, "settings", value)
			})

			t.Run("Info", func(t *testing.T) {
				info, err := settings.GetDBInfo()
				require.NoError(t, err)
				assert.Equal(t, "settings", info.Namespace)
				assert.Equal(t, db.ImplMemory, info.DbType)
				assert.Contains(t, info.SupportedFeatures, db.FeatureGet)
			})

			t.Run("EmptyKey", func(t *testing.T) {
				_, _, err := subs.GetItem(ctx, "")
				requireCode(t, err, store.RetCInvalidOperation)
			})

			t.Run("UnknownNamespace", func(t *testing.T) {
				unknown := newStore("unknown")
				_, _, err := unknown.GetItem(ctx, "k")
				requireCode(t, err, store.RetCInternalError)
			})

			t.Run("Concurrent", func(t *testing.T) {
				var wg sync.WaitGroup
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						key := "c-" + string(rune('a'+i))
						assert.NoError(t, subs.SetItem(ctx, key, key))
						value, loaded, err := subs.GetItem(ctx, key)
						assert.NoError(t, err)
						assert.True(t, loaded)
						assert.Equal(t, key, value)
					}(i)
				}
				wg.Wait()
			})

			t.Run("Closed", func(t *testing.T) {
				st := newStore("settings")
				require.NoError(t, st.Close())
				require.NoError(t, st.Close())

				_, _, err := st.GetItem(ctx, "k")
				requireCode(t, err, store.RetCInvalidOperation)
				requireCode(t, st.SetItem(ctx, "k", "v"), store.RetCInvalidOperation)
			})
		})
	}
}

func TestNewRPCStoreInvalidNamespace(t *testing.T) {
	_, err := client.NewRPCStore("a/b", common.ClientConfig{}, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
	requireCode(t, err, store.RetCInvalidOperation)
}

func TestNewRPCStoreNoEndpoints(t *testing.T) {
	_, err := client.NewRPCStore("a", common.ClientConfig{}, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
	requireCode(t, err, store.RetCInitFailed)
}
