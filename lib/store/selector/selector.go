package selector

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/db/engines/bolt"
	"github.com/ValentinKolb/kvshim/lib/db/engines/memdb"
	"github.com/ValentinKolb/kvshim/lib/db/engines/sqlite"
	"github.com/ValentinKolb/kvshim/lib/store"
)

// Options configures the engines a factory creates
type Options struct {
	DataDir string // Directory holding the per namespace files of the disk engines
	NoSync  bool   // bolt only: skip fsync after each commit
}

// Implementations lists every engine the selector can create
var Implementations = []db.Implementation{db.ImplBolt, db.ImplSQLite, db.ImplMemory}

// ParseImplementation validates an engine name given on the command line or in
// the environment. An empty name resolves to DefaultImplementation.
func ParseImplementation(name string) (db.Implementation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultImplementation, nil
	}
	for _, impl := range Implementations {
		if string(impl) == name {
			return impl, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q (valid: %v)", name, Implementations)
}

// Factory resolves impl once and returns a store.DBFactory creating engines of that
// type. An empty impl selects DefaultImplementation.
func Factory(impl db.Implementation, opts Options) (store.DBFactory, error) {
	if impl == "" {
		impl = DefaultImplementation
	}

	switch impl {
	case db.ImplBolt:
		boltOpts := bolt.DefaultOptions()
		boltOpts.DataDir = opts.DataDir
		boltOpts.NoSync = opts.NoSync
		return func(namespace string) db.KVDB {
			return bolt.NewBoltDB(namespace, boltOpts)
		}, nil
	case db.ImplSQLite:
		sqliteOpts := sqlite.DefaultOptions()
		sqliteOpts.DataDir = opts.DataDir
		return func(namespace string) db.KVDB {
			return sqlite.NewSQLiteDB(namespace, sqliteOpts)
		}, nil
	case db.ImplMemory:
		return func(namespace string) db.KVDB {
			return memdb.NewMemDB(namespace)
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", impl)
	}
}

// MustFactory is like Factory but panics on an unknown implementation
func MustFactory(impl db.Implementation, opts Options) store.DBFactory {
	factory, err := Factory(impl, opts)
	if err != nil {
		panic(err)
	}
	return factory
}
