package lstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/db/engines/bolt"
	"github.com/ValentinKolb/kvshim/lib/db/engines/memdb"
	"github.com/ValentinKolb/kvshim/lib/db/engines/sqlite"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// countingDB wraps an in-memory engine, counts Open calls and can block or fail them
type countingDB struct {
	db.KVDB
	opens    atomic.Int32
	failOpen atomic.Int32 // number of upcoming Open calls that fail (-1 = all)
	gate     chan struct{}
	features db.Feature
	failGet  bool
}

func newCountingDB(namespace string) *countingDB {
	return &countingDB{
		KVDB:     memdb.NewMemDB(namespace),
		features: db.FeatureGet | db.FeatureSet,
	}
}

func (c *countingDB) Open(ctx context.Context) error {
	c.opens.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if n := c.failOpen.Load(); n != 0 {
		if n > 0 {
			c.failOpen.Add(-1)
		}
		return errBoom
	}
	return c.KVDB.Open(ctx)
}

func (c *countingDB) Get(ctx context.Context, key string) (string, bool, error) {
	if c.failGet {
		return "", false, errBoom
	}
	return c.KVDB.Get(ctx, key)
}

func (c *countingDB) SupportsFeature(feature db.Feature) bool {
	return feature&c.features == feature
}

func newTestStore(t *testing.T, engine *countingDB) store.IStore {
	t.Helper()
	s := NewLocalStore(engine.GetInfo().Namespace, func(string) db.KVDB { return engine })
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func requireCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, code, storeErr.Code, "unexpected code, error: %v", err)
}

// --------------------------------------------------------------------------
// Contract
// --------------------------------------------------------------------------

func TestSetGet(t *testing.T) {
	s := newTestStore(t, newCountingDB("set-get"))
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "k", "v"))
	value, loaded, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "v", value)
}

func TestAbsentIsNotEmpty(t *testing.T) {
	s := newTestStore(t, newCountingDB("absent"))
	ctx := context.Background()

	value, loaded, err := s.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "", value)

	require.NoError(t, s.SetItem(ctx, "empty", ""))
	value, loaded, err = s.GetItem(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "", value)
}

func TestOverwrite(t *testing.T) {
	s := newTestStore(t, newCountingDB("overwrite"))
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "k", "first"))
	require.NoError(t, s.SetItem(ctx, "k", "second"))
	value, loaded, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "second", value)
}

func TestEmptyKey(t *testing.T) {
	engine := newCountingDB("empty-key")
	s := newTestStore(t, engine)
	ctx := context.Background()

	_, _, err := s.GetItem(ctx, "")
	requireCode(t, err, store.RetCInvalidOperation)
	requireCode(t, s.SetItem(ctx, "", "v"), store.RetCInvalidOperation)

	// a rejected key never reaches the engine
	assert.EqualValues(t, 0, engine.opens.Load())
}

func TestUnsupportedOperation(t *testing.T) {
	engine := newCountingDB("read-only")
	engine.features = db.FeatureGet
	s := newTestStore(t, engine)

	requireCode(t, s.SetItem(context.Background(), "k", "v"), store.RetCUnsupportedOperation)

	_, _, err := s.GetItem(context.Background(), "k")
	require.NoError(t, err)
}

func TestEngineErrorIsWrapped(t *testing.T) {
	engine := newCountingDB("get-fails")
	engine.failGet = true
	s := newTestStore(t, engine)

	_, _, err := s.GetItem(context.Background(), "k")
	requireCode(t, err, store.RetCInternalError)
	assert.ErrorIs(t, err, errBoom)
}

func TestClosed(t *testing.T) {
	engine := newCountingDB("closed")
	s := NewLocalStore("closed", func(string) db.KVDB { return engine })
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "k", "v"))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.GetItem(ctx, "k")
	requireCode(t, err, store.RetCInvalidOperation)
	requireCode(t, s.SetItem(ctx, "k", "v"), store.RetCInvalidOperation)
	_, err = s.GetDBInfo()
	requireCode(t, err, store.RetCInvalidOperation)
}

func TestGetDBInfo(t *testing.T) {
	engine := newCountingDB("info")
	s := newTestStore(t, engine)

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, "info", info.Namespace)
	assert.Equal(t, db.ImplMemory, info.DbType)
	assert.EqualValues(t, 1, engine.opens.Load())
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

func TestLazyOpen(t *testing.T) {
	engine := newCountingDB("lazy")
	newTestStore(t, engine)

	assert.EqualValues(t, 0, engine.opens.Load(), "constructing a store must not open the engine")
}

func TestConcurrentFirstCallsOpenOnce(t *testing.T) {
	const callers = 64

	engine := newCountingDB("concurrent-init")
	engine.gate = make(chan struct{})
	s := newTestStore(t, engine)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			key := fmt.Sprintf("k%d", i)
			if i%2 == 0 {
				errs <- s.SetItem(context.Background(), key, key)
				return
			}
			_, _, err := s.GetItem(context.Background(), key)
			errs <- err
		}(i)
	}

	close(start)
	time.Sleep(50 * time.Millisecond)
	close(engine.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, engine.opens.Load())

	// ready stores never open again
	require.NoError(t, s.SetItem(context.Background(), "after", "v"))
	assert.EqualValues(t, 1, engine.opens.Load())
}

func TestFailedInitIsRetriedOnNextCall(t *testing.T) {
	engine := newCountingDB("retry")
	engine.failOpen.Store(1)
	s := newTestStore(t, engine)
	ctx := context.Background()

	err := s.SetItem(ctx, "k", "v")
	requireCode(t, err, store.RetCInitFailed)
	assert.ErrorIs(t, err, errBoom)
	assert.EqualValues(t, 1, engine.opens.Load())

	// the failed attempt left the store uninitialized, this call tries again
	require.NoError(t, s.SetItem(ctx, "k", "v"))
	assert.EqualValues(t, 2, engine.opens.Load())

	value, loaded, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "v", value)
	assert.EqualValues(t, 2, engine.opens.Load())
}

func TestFailedInitIsShared(t *testing.T) {
	const callers = 32

	engine := newCountingDB("shared-failure")
	engine.failOpen.Store(-1)
	engine.gate = make(chan struct{})
	s := newTestStore(t, engine)

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.GetItem(context.Background(), "k")
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(engine.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		requireCode(t, err, store.RetCInitFailed)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Less(t, engine.opens.Load(), int32(callers), "callers waiting on the same attempt must share it")
}

func TestCallerCancellationDoesNotAbortInit(t *testing.T) {
	engine := newCountingDB("cancel")
	engine.gate = make(chan struct{})
	s := newTestStore(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := s.GetItem(ctx, "k")
	requireCode(t, err, store.RetCInitFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(engine.gate)
	require.NoError(t, s.SetItem(context.Background(), "k", "v"))
	assert.EqualValues(t, 1, engine.opens.Load())
}

// --------------------------------------------------------------------------
// Real engines
// --------------------------------------------------------------------------

func TestDurabilityAcrossRestart(t *testing.T) {
	engines := map[string]func(dir string) store.DBFactory{
		"bolt": func(dir string) store.DBFactory {
			return func(namespace string) db.KVDB {
				return bolt.NewBoltDB(namespace, &bolt.DBOptions{DataDir: dir})
			}
		},
		"sqlite": func(dir string) store.DBFactory {
			return func(namespace string) db.KVDB {
				return sqlite.NewSQLiteDB(namespace, &sqlite.DBOptions{DataDir: dir})
			}
		},
	}

	for name, factoryFor := range engines {
		t.Run(name, func(t *testing.T) {
			factory := factoryFor(t.TempDir())
			ctx := context.Background()

			first := NewLocalStore("restart", factory)
			require.NoError(t, first.SetItem(ctx, "k", "v"))
			require.NoError(t, first.SetItem(ctx, "empty", ""))
			require.NoError(t, first.Close())

			second := NewLocalStore("restart", factory)
			defer second.Close()

			value, loaded, err := second.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.True(t, loaded)
			assert.Equal(t, "v", value)

			value, loaded, err = second.GetItem(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, loaded)
			assert.Equal(t, "", value)

			_, loaded, err = second.GetItem(ctx, "never")
			require.NoError(t, err)
			assert.False(t, loaded)
		})
	}
}

func TestInitFailureFromRealEngine(t *testing.T) {
	s := NewLocalStore("../outside", func(namespace string) db.KVDB {
		return bolt.NewBoltDB(namespace, &bolt.DBOptions{DataDir: t.TempDir()})
	})
	defer s.Close()

	err := s.SetItem(context.Background(), "k", "v")
	requireCode(t, err, store.RetCInitFailed)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

func TestMetrics(t *testing.T) {
	// counters are process global, only the change made by this test is checked
	series := []string{
		`kvshim_store_init_total{namespace="metrics-ns",result="ok"}`,
		`kvshim_store_ops_total{namespace="metrics-ns",op="set"}`,
		`kvshim_store_ops_total{namespace="metrics-ns",op="get"}`,
		`kvshim_store_op_errors_total{namespace="metrics-ns",op="get"}`,
	}
	before := make(map[string]uint64, len(series))
	for _, name := range series {
		before[name] = metrics.GetOrCreateCounter(name).Get()
	}

	s := newTestStore(t, newCountingDB("metrics-ns"))
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "k", "v"))
	_, _, _ = s.GetItem(ctx, "k")
	_, _, _ = s.GetItem(ctx, "")

	delta := func(name string) uint64 {
		return metrics.GetOrCreateCounter(name).Get() - before[name]
	}
	assert.EqualValues(t, 1, delta(series[0]))
	assert.EqualValues(t, 1, delta(series[1]))
	assert.EqualValues(t, 2, delta(series[2]))
	assert.EqualValues(t, 1, delta(series[3]))
}
