package selector

import (
	"context"
	"testing"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/ValentinKolb/kvshim/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImplementation(t *testing.T) {
	impl, err := ParseImplementation("")
	require.NoError(t, err)
	assert.Equal(t, DefaultImplementation, impl)

	impl, err = ParseImplementation(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, db.ImplSQLite, impl)

	impl, err = ParseImplementation("bolt")
	require.NoError(t, err)
	assert.Equal(t, db.ImplBolt, impl)

	_, err = ParseImplementation("leveldb")
	assert.Error(t, err)
}

func TestFactoryUnknown(t *testing.T) {
	_, err := Factory("leveldb", Options{})
	assert.Error(t, err)
	assert.Panics(t, func() { MustFactory("leveldb", Options{}) })
}

func TestFactoryDefault(t *testing.T) {
	factory, err := Factory("", Options{DataDir: t.TempDir()})
	require.NoError(t, err)

	engine := factory("default")
	assert.Equal(t, DefaultImplementation, engine.GetInfo().DbType)
}

// Every engine must be a drop-in replacement behind the same store
func TestSubstitutability(t *testing.T) {
	for _, impl := range Implementations {
		t.Run(string(impl), func(t *testing.T) {
			factory, err := Factory(impl, Options{DataDir: t.TempDir()})
			require.NoError(t, err)

			s := lstore.NewLocalStore("substitute", factory)
			defer s.Close()
			ctx := context.Background()

			_, loaded, err := s.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.False(t, loaded)

			require.NoError(t, s.SetItem(ctx, "k", "first"))
			require.NoError(t, s.SetItem(ctx, "k", "second"))
			require.NoError(t, s.SetItem(ctx, "empty", ""))

			value, loaded, err := s.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.True(t, loaded)
			assert.Equal(t, "second", value)

			value, loaded, err = s.GetItem(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, loaded)
			assert.Equal(t, "", value)

			info, err := s.GetDBInfo()
			require.NoError(t, err)
			assert.Equal(t, impl, info.DbType)
		})
	}
}

func TestDurableEnginesSurviveRestart(t *testing.T) {
	for _, impl := range []db.Implementation{db.ImplBolt, db.ImplSQLite} {
		t.Run(string(impl), func(t *testing.T) {
			factory := MustFactory(impl, Options{DataDir: t.TempDir()})
			ctx := context.Background()

			before := lstore.NewLocalStore("durable", factory)
			require.NoError(t, before.SetItem(ctx, "k", "v"))
			require.NoError(t, before.Close())

			after := lstore.NewLocalStore("durable", factory)
			defer after.Close()
			value, loaded, err := after.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.True(t, loaded)
			assert.Equal(t, "v", value)
		})
	}
}
