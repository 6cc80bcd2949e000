package sqlite

import (
	"testing"

	"github.com/ValentinKolb/kvshim/lib/db"
	dbtesting "github.com/ValentinKolb/kvshim/lib/db/testing"
)

func Test(t *testing.T) {
	dir := t.TempDir()
	dbtesting.RunKVDBTests(t, "SQLiteDB", func(namespace string) db.KVDB {
		return NewSQLiteDB(namespace, &DBOptions{DataDir: dir})
	})
}

func Benchmark(b *testing.B) {
	dir := b.TempDir()
	dbtesting.RunKVDBBenchmarks(b, "SQLiteDB", func(namespace string) db.KVDB {
		// NORMAL keeps the benchmark from measuring fsync latency only
		return NewSQLiteDB(namespace, &DBOptions{DataDir: dir, Synchronous: "NORMAL"})
	})
}
