package testing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvshim/lib/db"
)

// DBFactory creates a new engine instance for a namespace. Two calls with the
// same namespace must address the same underlying storage (for durable engines).
type DBFactory func(namespace string) db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, open(t, factory, "set-get"))
		})

		t.Run("Absent", func(t *testing.T) {
			testAbsent(t, open(t, factory, "absent"))
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, open(t, factory, "empty-value"))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, open(t, factory, "overwrite"))
		})

		t.Run("OpenIdempotent", func(t *testing.T) {
			testOpenIdempotent(t, factory)
		})

		t.Run("NotOpen", func(t *testing.T) {
			testNotOpen(t, factory)
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory)
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, open(t, factory, "edge-cases"))
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, open(t, factory, "concurrent"))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, open(t, factory, "info"))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, open(t, factory, "realistic"))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// open creates and opens an engine, closing it when the test ends
func open(t testing.TB, factory DBFactory, namespace string) db.KVDB {
	t.Helper()
	database := factory(namespace)
	if err := database.Open(context.Background()); err != nil {
		t.Fatalf("Open(%s) failed: %v", namespace, err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("Close(%s) failed: %v", namespace, err)
		}
	})
	return database
}

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skipf("feature %s not supported", feature)
	}
}

func mustSet(t testing.TB, database db.KVDB, key, value string) {
	t.Helper()
	if err := database.Set(context.Background(), key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mustGet(t testing.TB, database db.KVDB, key string) (string, bool) {
	t.Helper()
	value, loaded, err := database.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, loaded
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	mustSet(t, database, "test-key", "test-value")

	result, exists := mustGet(t, database, "test-key")
	if !exists {
		t.Errorf("Expected key %s to exist after Set", "test-key")
	}
	if result != "test-value" {
		t.Errorf("Expected value %s, got %s", "test-value", result)
	}
}

func testAbsent(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureGet)

	result, exists := mustGet(t, database, "nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}
	if result != "" {
		t.Errorf("Expected zero value for nonexistent key, got %q", result)
	}
}

func testEmptyValue(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	mustSet(t, database, "empty", "")

	result, exists := mustGet(t, database, "empty")
	if !exists {
		t.Fatalf("An empty value must be reported as present")
	}
	if result != "" {
		t.Errorf("Expected empty value, got %q", result)
	}

	// a neighbouring key must still be absent
	if _, exists := mustGet(t, database, "empty-not-set"); exists {
		t.Errorf("Expected key empty-not-set to be absent")
	}
}

func testOverwrite(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	mustSet(t, database, "key", "value1")
	mustSet(t, database, "key", "value2")

	result, exists := mustGet(t, database, "key")
	if !exists {
		t.Fatalf("Expected key to exist after overwrite")
	}
	if result != "value2" {
		t.Errorf("Expected last written value %q, got %q", "value2", result)
	}

	// shorter value must fully replace the longer one
	mustSet(t, database, "key", "v")
	if result, _ := mustGet(t, database, "key"); result != "v" {
		t.Errorf("Expected %q after shrinking overwrite, got %q", "v", result)
	}
}

func testOpenIdempotent(t *testing.T, factory DBFactory) {
	database := open(t, factory, "open-idempotent")
	mustSet(t, database, "key", "value")

	// a second Open on the same instance must neither fail nor lose data
	if err := database.Open(context.Background()); err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	if result, exists := mustGet(t, database, "key"); !exists || result != "value" {
		t.Errorf("Expected value to survive a second Open, got %q (exists=%v)", result, exists)
	}
}

func testNotOpen(t *testing.T, factory DBFactory) {
	database := factory("not-open")
	defer database.Close()

	if _, _, err := database.Get(context.Background(), "key"); !errors.Is(err, db.ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen from Get before Open, got %v", err)
	}
	if err := database.Set(context.Background(), "key", "value"); !errors.Is(err, db.ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen from Set before Open, got %v", err)
	}
}

func testClosed(t *testing.T, factory DBFactory) {
	database := factory("closed")
	if err := database.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, _, err := database.Get(context.Background(), "key"); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed from Get after Close, got %v", err)
	}
	if err := database.Set(context.Background(), "key", "value"); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed from Set after Close, got %v", err)
	}
	if err := database.Open(context.Background()); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed from Open after Close, got %v", err)
	}

	// closing twice is fine
	if err := database.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func testReopen(t *testing.T, factory DBFactory) {
	first := factory("reopen")
	requireFeature(t, first, db.FeatureDurable)

	if err := first.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustSet(t, first, "persisted", "value")
	mustSet(t, first, "persisted-empty", "")
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// simulate a process restart: new instance, same namespace
	second := open(t, factory, "reopen")

	if result, exists := mustGet(t, second, "persisted"); !exists || result != "value" {
		t.Errorf("Expected persisted value after reopen, got %q (exists=%v)", result, exists)
	}
	if result, exists := mustGet(t, second, "persisted-empty"); !exists || result != "" {
		t.Errorf("Expected persisted empty value after reopen, got %q (exists=%v)", result, exists)
	}
	if _, exists := mustGet(t, second, "never-written"); exists {
		t.Errorf("Expected never written key to be absent after reopen")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	// Very long key
	longKey := strings.Repeat("k", 1000)
	mustSet(t, database, longKey, "long-key-value")
	if result, exists := mustGet(t, database, longKey); !exists || result != "long-key-value" {
		t.Errorf("Long key failed: got %q (exists=%v)", result, exists)
	}

	// Large value
	largeValue := strings.Repeat("v", 1024*1024)
	mustSet(t, database, "large-value", largeValue)
	if result, exists := mustGet(t, database, "large-value"); !exists || result != largeValue {
		t.Errorf("Large value failed (len=%d, exists=%v)", len(result), exists)
	}

	// Unicode and special characters
	specials := map[string]string{
		"ключ":             "значение",
		"key with spaces":  "value with spaces",
		"quote'\"key":      `{"json": "document", "n": 1}`,
		"emoji-🔑":          "✓",
		"newline\nkey":     "multi\nline\nvalue",
		"sql'; DROP kv;--": "still here",
	}
	for k, v := range specials {
		mustSet(t, database, k, v)
	}
	for k, v := range specials {
		if result, exists := mustGet(t, database, k); !exists || result != v {
			t.Errorf("Special key %q: expected %q, got %q (exists=%v)", k, v, result, exists)
		}
	}

	// Keys that are prefixes of each other stay separate
	mustSet(t, database, "prefix", "a")
	mustSet(t, database, "prefix-longer", "b")
	if result, _ := mustGet(t, database, "prefix"); result != "a" {
		t.Errorf("Prefix key: expected %q, got %q", "a", result)
	}
	if _, exists := mustGet(t, database, "pre"); exists {
		t.Errorf("Expected shorter prefix key to be absent")
	}
}

func testConcurrent(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	const (
		workers = 8
		perKeys = 50
	)

	var wg sync.WaitGroup
	errs := make(chan error, workers*perKeys)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perKeys; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				if err := database.Set(context.Background(), key, key); err != nil {
					errs <- err
					return
				}
				value, loaded, err := database.Get(context.Background(), key)
				if err != nil {
					errs <- err
					return
				}
				if !loaded || value != key {
					errs <- fmt.Errorf("read own write %s: got %q (loaded=%v)", key, value, loaded)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	mustSet(t, database, "key", "value")

	info := database.GetInfo()
	if info.Namespace != "info" {
		t.Errorf("Expected namespace %q in info, got %q", "info", info.Namespace)
	}
	if info.DbType == "" {
		t.Errorf("Expected db type to be set")
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Info lists feature %s the engine does not support", f)
		}
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	// documents written by a sync engine: a few keys rewritten many times
	want := make(map[string]string)
	for round := 0; round < 20; round++ {
		for doc := 0; doc < 10; doc++ {
			key := fmt.Sprintf("querySubs/%d", doc)
			value := fmt.Sprintf(`{"doc":%d,"round":%d}`, doc, round)
			mustSet(t, database, key, value)
			want[key] = value
		}
	}

	for key, value := range want {
		if result, exists := mustGet(t, database, key); !exists || result != value {
			t.Errorf("Key %s: expected %s, got %s (exists=%v)", key, value, result, exists)
		}
	}
}
