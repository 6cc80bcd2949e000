package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	bolt "go.etcd.io/bbolt"
)

var Logger = logger.GetLogger("engine")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	fileExt        = ".bolt"
	bucketName     = "kv"
	defaultTimeout = 1 * time.Second
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// DBOptions configures the bolt engine
type DBOptions struct {
	DataDir         string        // Directory holding <namespace>.bolt ("" = current directory)
	Timeout         time.Duration // How long Open waits for the file lock (0 = 1s, never infinite)
	NoSync          bool          // Skip fsync after each commit (faster, weaker durability)
	InitialMmapSize int           // Initial mmap size in bytes (0 = bbolt default)
}

// DefaultOptions returns the default bolt options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		DataDir: ".",
		Timeout: defaultTimeout,
	}
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// boltImpl stores records in one bucket of a memory-mapped bbolt file
type boltImpl struct {
	namespace string
	path      string
	bucket    []byte
	opts      DBOptions

	mu     sync.RWMutex // guards handle and closed
	handle *bolt.DB
	closed bool
}

// NewBoltDB creates a new bolt engine for namespace. The file is opened by Open.
func NewBoltDB(namespace string, opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.DataDir == "" {
		o.DataDir = "."
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}

	return &boltImpl{
		namespace: namespace,
		path:      db.NamespacePath(o.DataDir, namespace, fileExt),
		bucket:    []byte(bucketName),
		opts:      o,
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (b *boltImpl) Open(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return db.ErrClosed
	}
	if b.handle != nil {
		return nil
	}

	if err := db.ValidateNamespace(b.namespace); err != nil {
		return err
	}
	if err := os.MkdirAll(b.opts.DataDir, 0750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	handle, err := bolt.Open(b.path, 0o600, &bolt.Options{
		Timeout:         b.opts.Timeout,
		NoSync:          b.opts.NoSync,
		InitialMmapSize: b.opts.InitialMmapSize,
	})
	if err != nil {
		return fmt.Errorf("open bolt database %s: %w", b.path, err)
	}

	err = handle.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(b.bucket); err != nil {
			return fmt.Errorf("create bucket %q: %w", b.bucket, err)
		}
		return nil
	})
	if err != nil {
		_ = handle.Close()
		return err
	}

	b.handle = handle
	Logger.Debugf("opened bolt database %s", b.path)
	return nil
}

func (b *boltImpl) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.handle == nil {
		return nil
	}
	err := b.handle.Close()
	b.handle = nil
	return err
}

// conn returns the open handle or the reason there is none
func (b *boltImpl) conn() (*bolt.DB, error) {
	if b.closed {
		return nil, db.ErrClosed
	}
	if b.handle == nil {
		return nil, db.ErrNotOpen
	}
	return b.handle, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db/db.go)
// --------------------------------------------------------------------------

func (b *boltImpl) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handle, err := b.conn()
	if err != nil {
		return "", false, err
	}

	var (
		value  string
		loaded bool
	)
	err = handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", b.bucket)
		}

		// presence is decided by the key, a zero length value may come back as nil
		k, raw := bucket.Cursor().Seek([]byte(key))
		if k != nil && bytes.Equal(k, []byte(key)) {
			// string() copies out of the mmap before the transaction ends
			value, loaded = string(raw), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get key (%d bytes): %w", len(key), err)
	}
	return value, loaded, nil
}

func (b *boltImpl) Set(_ context.Context, key, value string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handle, err := b.conn()
	if err != nil {
		return err
	}

	err = handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", b.bucket)
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("put key (%d bytes): %w", len(key), err)
	}
	return nil
}

func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureGet | db.FeatureSet | db.FeatureDurable | db.FeatureMemoryMapped
	return feature&supported == feature
}

func (b *boltImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Namespace:         b.namespace,
		Path:              b.path,
		DbType:            db.ImplBolt,
		SupportedFeatures: db.FeatureList(db.FeatureGet | db.FeatureSet | db.FeatureDurable | db.FeatureMemoryMapped),
		Metadata: map[string]any{
			"bucket":  string(b.bucket),
			"no_sync": b.opts.NoSync,
		},
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	handle, err := b.conn()
	if err != nil {
		if stat, err := os.Stat(b.path); err == nil {
			info.SizeBytes = stat.Size()
		}
		return info
	}

	_ = handle.View(func(tx *bolt.Tx) error {
		info.SizeBytes = tx.Size()
		if bucket := tx.Bucket(b.bucket); bucket != nil {
			info.Metadata["keys"] = bucket.Stats().KeyN
		}
		return nil
	})
	return info
}
