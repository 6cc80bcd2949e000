package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	_ "modernc.org/sqlite"
)

var Logger = logger.GetLogger("engine")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	driverName         = "sqlite"
	fileExt            = ".db"
	defaultBusyTimeout = 5 * time.Second

	schemaSQL = `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT)`
	getSQL    = `SELECT value FROM kv WHERE key = ?`
	setSQL    = `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`
	countSQL  = `SELECT COUNT(*) FROM kv`
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// DBOptions configures the sqlite engine
type DBOptions struct {
	DataDir     string        // Directory holding <namespace>.db ("" = current directory)
	BusyTimeout time.Duration // How long a statement waits on a locked database (0 = 5s)
	Synchronous string        // PRAGMA synchronous value ("" = FULL)
}

// DefaultOptions returns the default sqlite options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		DataDir:     ".",
		BusyTimeout: defaultBusyTimeout,
		Synchronous: "FULL",
	}
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// sqliteImpl stores records in a single two-column table of an embedded SQLite file
type sqliteImpl struct {
	namespace string
	path      string
	opts      DBOptions

	mu     sync.RWMutex // guards handle and closed
	handle *sql.DB
	closed bool
}

// NewSQLiteDB creates a new sqlite engine for namespace. No file is touched
// until Open is called.
func NewSQLiteDB(namespace string, opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.DataDir == "" {
		o.DataDir = "."
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = defaultBusyTimeout
	}
	if o.Synchronous == "" {
		o.Synchronous = "FULL"
	}

	return &sqliteImpl{
		namespace: namespace,
		path:      db.NamespacePath(o.DataDir, namespace, fileExt),
		opts:      o,
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *sqliteImpl) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	if s.handle != nil {
		return nil
	}

	if err := db.ValidateNamespace(s.namespace); err != nil {
		return err
	}
	if err := os.MkdirAll(s.opts.DataDir, 0750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	handle, err := sql.Open(driverName, s.path)
	if err != nil {
		return fmt.Errorf("open sqlite database %s: %w", s.path, err)
	}

	// a single connection serializes writers and keeps pragmas applied
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	if err := handle.PingContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("connect to sqlite database %s: %w", s.path, err), handle.Close())
	}

	if err := applyPragmas(ctx, handle, s.opts); err != nil {
		return errors.Join(err, handle.Close())
	}

	if _, err := handle.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Join(fmt.Errorf("create kv table: %w", err), handle.Close())
	}

	s.handle = handle
	Logger.Debugf("opened sqlite database %s", s.path)
	return nil
}

func (s *sqliteImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	return err
}

// applyPragmas sets the connection level configuration
func applyPragmas(ctx context.Context, handle *sql.DB, opts DBOptions) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA synchronous = %s", opts.Synchronous),
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
	}

	for _, pragma := range pragmas {
		if _, err := handle.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

// conn returns the open handle or the reason there is none
func (s *sqliteImpl) conn() (*sql.DB, error) {
	if s.closed {
		return nil, db.ErrClosed
	}
	if s.handle == nil {
		return nil, db.ErrNotOpen
	}
	return s.handle, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db/db.go)
// --------------------------------------------------------------------------

func (s *sqliteImpl) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handle, err := s.conn()
	if err != nil {
		return "", false, err
	}

	var value sql.NullString
	err = handle.QueryRowContext(ctx, getSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select key (%d bytes): %w", len(key), err)
	}

	// rows written with a NULL value by someone else count as absent
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

func (s *sqliteImpl) Set(ctx context.Context, key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handle, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := handle.ExecContext(ctx, setSQL, key, value); err != nil {
		return fmt.Errorf("upsert key (%d bytes): %w", len(key), err)
	}
	return nil
}

func (s *sqliteImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureGet | db.FeatureSet | db.FeatureDurable | db.FeatureSchema
	return feature&supported == feature
}

func (s *sqliteImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Namespace:         s.namespace,
		Path:              s.path,
		DbType:            db.ImplSQLite,
		SupportedFeatures: db.FeatureList(db.FeatureGet | db.FeatureSet | db.FeatureDurable | db.FeatureSchema),
		Metadata: map[string]any{
			"synchronous":  s.opts.Synchronous,
			"busy_timeout": s.opts.BusyTimeout.String(),
		},
	}

	if stat, err := os.Stat(s.path); err == nil {
		info.SizeBytes = stat.Size()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle, err := s.conn(); err == nil {
		var rows int64
		if err := handle.QueryRow(countSQL).Scan(&rows); err == nil {
			info.Metadata["rows"] = rows
		}
	}
	return info
}
