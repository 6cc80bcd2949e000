package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/db/util"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/lib/store/lstore"
	"github.com/ValentinKolb/kvshim/lib/store/selector"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/ValentinKolb/kvshim/rpc/serializer"
	"github.com/ValentinKolb/kvshim/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverStore is a struct that represents a namespace served by the RPC server
// It contains the store it encapsulates and the adapter that handles requests for the store
type serverStore struct {
	Namespace string
	Store     store.IStore
	Adapter   IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		unix.NewUnixServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		stores:     xsync.NewMapOf[uint64, serverStore](),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	stores     *xsync.MapOf[uint64, serverStore]
	closeOnce  sync.Once
}

func (s *rpcServer) registerTransportHandler() {
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	s.transport.RegisterHandler(func(routeId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		// Get the store of the addressed namespace
		st, ok := s.stores.Load(routeId)

		// Case namespace is not served here -> error
		if !ok {
			respMsg = common.NewErrorResponse(fmt.Sprintf("no store for route %d", routeId))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			// Let the adapter handle the request
			respMsg = st.Adapter.Handle(ctx, &msg, st.Store)
		}

		// Return result
		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	if len(s.config.Namespaces) == 0 {
		return fmt.Errorf("no namespaces configured")
	}

	// Resolve the engine
	impl := selector.DefaultImplementation
	if s.config.Backend != "" {
		var err error
		if impl, err = selector.ParseImplementation(s.config.Backend); err != nil {
			return err
		}
	}
	factory, err := selector.Factory(impl, selector.Options{
		DataDir: s.config.DataDir,
		NoSync:  s.config.NoSync,
	})
	if err != nil {
		return err
	}

	// CREATE STORES

	/*
		Note: Every namespace gets its own local store. The stores are not opened
		here, the first request for a namespace opens its engine.
	*/

	for _, namespace := range s.config.Namespaces {
		if err := db.ValidateNamespace(namespace); err != nil {
			return err
		}
		routeId := util.RouteID(namespace)
		if existing, ok := s.stores.Load(routeId); ok {
			return fmt.Errorf("namespace %q is configured twice or collides with %q", namespace, existing.Namespace)
		}
		s.stores.Store(routeId, serverStore{
			Namespace: namespace,
			Store:     lstore.NewLocalStore(namespace, factory),
			Adapter:   NewIStoreServerAdapter(),
		})
		Logger.Infof("created %s store for namespace %s (route %d)", impl, namespace, routeId)
	}

	Logger.Infof("kvshim setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the stores and start the transport layer.
// It blocks until Close is called or the transport fails.
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and closes every store. Persisted data is kept.
func (s *rpcServer) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		if err := s.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
		}
		s.stores.Range(func(_ uint64, st serverStore) bool {
			if err := st.Store.Close(); err != nil {
				errs = append(errs, err)
			}
			return true
		})
		Logger.Infof("kvshim server stopped")
	})
	return errors.Join(errs...)
}
