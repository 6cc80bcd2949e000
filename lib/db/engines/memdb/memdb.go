package memdb

import (
	"context"
	"sync/atomic"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
)

// memImpl keeps all records in a concurrent map. Nothing is persisted.
type memImpl struct {
	namespace string
	data      *xsync.MapOf[string, string]
	opened    atomic.Bool
	closed    atomic.Bool
	valueSize atomic.Int64 // approximate payload size (keys + values)
}

// NewMemDB creates a new in-memory engine for namespace.
func NewMemDB(namespace string) db.KVDB {
	return &memImpl{
		namespace: namespace,
		data:      xsync.NewMapOf[string, string](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db/db.go)
// --------------------------------------------------------------------------

func (m *memImpl) Open(_ context.Context) error {
	if m.closed.Load() {
		return db.ErrClosed
	}
	if err := db.ValidateNamespace(m.namespace); err != nil {
		return err
	}
	m.opened.Store(true)
	return nil
}

func (m *memImpl) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *memImpl) ready() error {
	if m.closed.Load() {
		return db.ErrClosed
	}
	if !m.opened.Load() {
		return db.ErrNotOpen
	}
	return nil
}

func (m *memImpl) Get(_ context.Context, key string) (string, bool, error) {
	if err := m.ready(); err != nil {
		return "", false, err
	}
	value, ok := m.data.Load(key)
	return value, ok, nil
}

func (m *memImpl) Set(_ context.Context, key, value string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.data.Compute(key, func(old string, loaded bool) (string, bool) {
		if loaded {
			m.valueSize.Add(int64(len(value) - len(old)))
		} else {
			m.valueSize.Add(int64(len(key) + len(value)))
		}
		return value, false
	})
	return nil
}

func (m *memImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureGet | db.FeatureSet
	return feature&supported == feature
}

func (m *memImpl) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		Namespace:         m.namespace,
		SizeBytes:         m.valueSize.Load(),
		DbType:            db.ImplMemory,
		SupportedFeatures: db.FeatureList(db.FeatureGet | db.FeatureSet),
		Metadata: map[string]any{
			"keys": m.data.Size(),
		},
	}
}
