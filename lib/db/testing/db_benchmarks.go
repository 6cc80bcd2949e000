package testing

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory)
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory)
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, factory)
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory)
		})

		b.Run("Get(absent)", func(b *testing.B) {
			benchmarkGetAbsent(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory)
		})
	})
}

func benchmarkSet(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-set")
	ctx := context.Background()
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter.Add(1))
			if err := database.Set(ctx, key, "value"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkSetExisting(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-set-existing")
	ctx := context.Background()
	mustSet(b, database, "existing", "value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := database.Set(ctx, "existing", "value"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkSetLargeValue(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-set-large")
	ctx := context.Background()
	largeValue := strings.Repeat("x", 100*1024)
	var counter atomic.Int64

	b.SetBytes(int64(len(largeValue)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("large-%d", counter.Add(1)%100)
			if err := database.Set(ctx, key, largeValue); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkGet(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-get")
	ctx := context.Background()

	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		mustSet(b, database, fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, _, err := database.Get(ctx, fmt.Sprintf("key-%d", r.Intn(numKeys))); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkGetAbsent(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-get-absent")
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := database.Get(ctx, "missing"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkMixedUsage(b *testing.B, factory DBFactory) {
	database := open(b, factory, "bench-mixed")
	ctx := context.Background()

	const numKeys = 100
	for i := 0; i < numKeys; i++ {
		mustSet(b, database, fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", r.Intn(numKeys))
			// 80% reads, 20% writes
			if r.Intn(10) < 8 {
				_, _, err := database.Get(ctx, key)
				if err != nil {
					b.Error(err)
					return
				}
			} else if err := database.Set(ctx, key, "updated"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
