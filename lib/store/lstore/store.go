package lstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/singleflight"
)

var Logger = logger.GetLogger("store")

// initKey is the single-flight key of the open attempt, one group exists per store
const initKey = "open"

type storeImpl struct {
	namespace string
	db        db.KVDB
	metrics   *storeMetrics

	group singleflight.Group
	ready atomic.Bool

	mu     sync.RWMutex // write-locked by Close only
	closed bool
}

// NewLocalStore creates a new local store for namespace.
// The engine is created by the factory right away but not opened; the first
// operation opens it.
func NewLocalStore(namespace string, factory store.DBFactory) store.IStore {
	return &storeImpl{
		namespace: namespace,
		db:        factory(namespace),
		metrics:   newStoreMetrics(namespace),
	}
}

// ensureReady opens the engine unless that already happened.
//
// Concurrent callers share one attempt. A failed attempt is returned to all of
// them and leaves the store uninitialized, the next call starts a new attempt.
// The attempt itself is detached from the caller's cancellation; a caller whose
// ctx ends stops waiting but does not abort the attempt for the others.
func (s *storeImpl) ensureReady(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}

	ch := s.group.DoChan(initKey, func() (any, error) {
		// a previous attempt may have completed between the check above and here
		if s.ready.Load() {
			return nil, nil
		}
		if err := s.db.Open(context.WithoutCancel(ctx)); err != nil {
			s.metrics.initFailed.Inc()
			Logger.Errorf("failed to open store %s: %v", s.namespace, err)
			return nil, err
		}
		s.ready.Store(true)
		s.metrics.initOK.Inc()
		Logger.Infof("opened store %s (%s)", s.namespace, s.db.GetInfo().DbType)
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return store.WrapError(store.RetCInitFailed, "failed to initialize store "+s.namespace, res.Err)
		}
		return nil
	case <-ctx.Done():
		return store.WrapError(store.RetCInitFailed, "gave up waiting for store "+s.namespace, ctx.Err())
	}
}

// checkKey rejects keys the contract does not allow
func checkKey(key string) error {
	if key == "" {
		return store.NewError(store.RetCInvalidOperation, "key must not be empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) GetItem(ctx context.Context, key string) (string, bool, error) {
	done := s.metrics.track(opGet)

	value, loaded, err := s.getItem(ctx, key)
	done(err)
	return value, loaded, err
}

func (s *storeImpl) getItem(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, store.NewError(store.RetCInvalidOperation, "store is closed")
	}
	if !s.db.SupportsFeature(db.FeatureGet) {
		return "", false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	if err := s.ensureReady(ctx); err != nil {
		return "", false, err
	}

	value, loaded, err := s.db.Get(ctx, key)
	if err != nil {
		return "", false, store.WrapError(store.RetCInternalError, "failed to get item", err)
	}
	return value, loaded, nil
}

func (s *storeImpl) SetItem(ctx context.Context, key, value string) error {
	done := s.metrics.track(opSet)

	err := s.setItem(ctx, key, value)
	done(err)
	return err
}

func (s *storeImpl) setItem(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.NewError(store.RetCInvalidOperation, "store is closed")
	}
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	if err := s.db.Set(ctx, key, value); err != nil {
		return store.WrapError(store.RetCInternalError, "failed to set item", err)
	}
	return nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return db.DatabaseInfo{}, store.NewError(store.RetCInvalidOperation, "store is closed")
	}
	if err := s.ensureReady(context.Background()); err != nil {
		return db.DatabaseInfo{}, err
	}
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return store.WrapError(store.RetCInternalError, "failed to close store "+s.namespace, err)
	}
	Logger.Debugf("closed store %s", s.namespace)
	return nil
}
