package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/data/db"
	"github.com/hay-kot/quire/internal/data/stores"
)

// backends runs fn against every KV implementation.
func backends(t *testing.T, fn func(t *testing.T, store kv.KV)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close() })
		fn(t, stores.NewKVStore(database))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, kv.NewMemory())
	})
}

func TestTypedKV_SetAndGet(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "test")

		require.NoError(t, typed.Set(ctx, "greeting", "hello"))

		got, err := typed.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})
}

func TestTypedKV_ScopedPrefix(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		alpha := kv.Scoped[int](store, "alpha")
		beta := kv.Scoped[int](store, "beta")

		require.NoError(t, alpha.Set(ctx, "count", 10))
		require.NoError(t, beta.Set(ctx, "count", 20))

		a, err := alpha.Get(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, 10, a)

		b, err := beta.Get(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, 20, b)

		keys, err := store.ListKeys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha:count", "beta:count"}, keys)

		scoped, err := alpha.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"count"}, scoped)
	})
}

func TestTypedKV_Delete(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "ns")

		require.NoError(t, typed.Set(ctx, "key", "val"))
		require.NoError(t, typed.Delete(ctx, "key"))

		has, err := typed.Has(ctx, "key")
		require.NoError(t, err)
		assert.False(t, has)

		_, err = typed.Get(ctx, "key")
		assert.True(t, kv.IsNotFound(err))
	})
}

func TestTypedKV_GetOr(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[float64](store, "prefs")

		got, err := typed.GetOr(ctx, "zoom", 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 0.001)

		require.NoError(t, typed.Set(ctx, "zoom", 1.5))
		got, err = typed.GetOr(ctx, "zoom", 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, got, 0.001)
	})
}

func TestTypedKV_TTL(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "ttl")

		require.NoError(t, typed.SetTTL(ctx, "temp", "gone", time.Millisecond))
		require.NoError(t, typed.Set(ctx, "kept", "here"))
		time.Sleep(5 * time.Millisecond)

		_, err := typed.Get(ctx, "temp")
		require.ErrorIs(t, err, kv.ErrNotFound)

		keys, err := typed.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, keys)
	})
}

func TestMemory_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, store.SetTTL(ctx, "search:a", "old", time.Millisecond))
	require.NoError(t, store.SetTTL(ctx, "search:b", "new", time.Hour))
	require.NoError(t, store.Set(ctx, "prefs:zoom", 1.5))
	time.Sleep(5 * time.Millisecond)

	n, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	keys, err := store.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefs:zoom", "search:b"}, keys)
}

func TestTypedKV_StructValue(t *testing.T) {
	backends(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()

		type position struct {
			Offset int    `json:"offset"`
			Page   int    `json:"page"`
			Query  string `json:"query"`
		}

		typed := kv.Scoped[position](store, "position")
		require.NoError(t, typed.Set(ctx, "book.md", position{Offset: 5100, Page: 3}))

		got, err := typed.Get(ctx, "book.md")
		require.NoError(t, err)
		assert.Equal(t, position{Offset: 5100, Page: 3}, got)
	})
}
