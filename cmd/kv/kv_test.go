package kv

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/lib/store/lstore"
	"github.com/ValentinKolb/kvshim/lib/store/selector"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		Namespace:         "querySubs",
		Path:              "/data/querySubs.db",
		SizeBytes:         2048,
		DbType:            db.ImplBolt,
		SupportedFeatures: db.FeatureList(db.FeatureGet | db.FeatureSet | db.FeatureDurable),
		Metadata:          map[string]any{"keys": 3},
	}
}

func TestWriteInfoText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInfo(&buf, testInfo(), "text"))

	out := buf.String()
	assert.Contains(t, out, "querySubs")
	assert.Contains(t, out, "bolt")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "[Get Set Durable]")
	assert.Contains(t, out, "keys:")
}

func TestWriteInfoYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInfo(&buf, testInfo(), "yaml"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "querySubs", decoded["namespace"])
	assert.Equal(t, "bolt", decoded["db_type"])
	assert.Equal(t, []any{"Get", "Set", "Durable"}, decoded["supported_features"])
}

func TestWriteInfoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInfo(&buf, testInfo(), "json"))
	assert.Contains(t, buf.String(), `"db_type": "bolt"`)
}

func TestWriteInfoInvalidFormat(t *testing.T) {
	assert.Error(t, writeInfo(&bytes.Buffer{}, testInfo(), "xml"))
}

func useMemoryStore(t *testing.T) store.IStore {
	t.Helper()
	st := lstore.NewLocalStore("perf", selector.MustFactory(db.ImplMemory, selector.Options{}))
	prev := kvStore
	kvStore = st
	t.Cleanup(func() {
		kvStore = prev
		_ = st.Close()
	})
	return st
}

func TestRunPerfTest(t *testing.T) {
	st := useMemoryStore(t)
	perfOps, perfNumThreads, perfKeySpread, perfSkip = 200, 4, 10, nil

	test := perfTest{
		name:      "set",
		valueSize: 4,
		op: func(ctx context.Context, s store.IStore, key string, _ int) error {
			return s.SetItem(ctx, key, "test")
		},
	}

	result, err := runPerfTest(context.Background(), gometrics.NewRegistry(), "__perf-test", test)
	require.NoError(t, err)
	assert.False(t, result.skipped)
	assert.Equal(t, int64(200), result.timer.Count())
	assert.Zero(t, result.errors)
	assert.Equal(t, int64(800), result.bytes)

	value, loaded, err := st.GetItem(context.Background(), "__perf-test-set-0")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "test", value)
}

func TestRunPerfTestCountsErrorsAndSkips(t *testing.T) {
	useMemoryStore(t)
	perfOps, perfNumThreads, perfKeySpread, perfSkip = 20, 2, 5, []string{"skipped"}

	failing := perfTest{
		name: "empty-key",
		op: func(ctx context.Context, s store.IStore, _ string, _ int) error {
			return s.SetItem(ctx, "", "v")
		},
	}
	result, err := runPerfTest(context.Background(), gometrics.NewRegistry(), "p", failing)
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.errors)

	result, err = runPerfTest(context.Background(), gometrics.NewRegistry(), "p", perfTest{name: "skipped"})
	require.NoError(t, err)
	assert.True(t, result.skipped)
}

func TestWriteResultsCSV(t *testing.T) {
	timer := gometrics.NewTimer()
	timer.Update(1000)

	var buf bytes.Buffer
	require.NoError(t, writeResultsCSV(&buf, []perfResult{
		{name: "get", timer: timer},
		{name: "set", skipped: true, timer: gometrics.NewTimer()},
	}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test", rows[0][0])
	assert.Equal(t, "get", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "true", rows[2][8])
}
