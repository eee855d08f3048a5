package kv_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/kv"
	"github.com/colonyops/markreview/internal/data/db"
	"github.com/colonyops/markreview/internal/data/stores"
)

func newTestKV(t *testing.T) kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

type server struct {
	Host string `json:"host"`
	User string `json:"user"`
}

func TestTypedKV(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips struct values", func(t *testing.T) {
		typed := kv.Scoped[server](newTestKV(t), "servers")

		require.NoError(t, typed.Set(ctx, "default", server{Host: "cvv.local", User: "service"}))

		got, err := typed.Get(ctx, "default")
		require.NoError(t, err)
		assert.Equal(t, server{Host: "cvv.local", User: "service"}, got)
	})

	t.Run("namespaces do not collide", func(t *testing.T) {
		store := newTestKV(t)
		alpha := kv.Scoped[int](store, "alpha")
		beta := kv.Scoped[int](store, "beta")

		require.NoError(t, alpha.Set(ctx, "count", 10))
		require.NoError(t, beta.Set(ctx, "count", 20))

		a, err := alpha.Get(ctx, "count")
		require.NoError(t, err)
		b, err := beta.Get(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, 10, a)
		assert.Equal(t, 20, b)

		keys, err := store.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha:count", "beta:count"}, keys)
	})

	t.Run("delete and has", func(t *testing.T) {
		typed := kv.Scoped[string](newTestKV(t), "ns")

		has, err := typed.Has(ctx, "key")
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, typed.Set(ctx, "key", "val"))
		has, err = typed.Has(ctx, "key")
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, typed.Delete(ctx, "key"))
		has, err = typed.Has(ctx, "key")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("expired values are missing", func(t *testing.T) {
		typed := kv.Scoped[string](newTestKV(t), "ttl")

		require.NoError(t, typed.SetTTL(ctx, "temp", "gone", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := typed.Get(ctx, "temp")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
