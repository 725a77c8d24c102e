package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiers(t *testing.T, maxEntries int) map[string]TransientCache {
	t.Helper()
	sqliteTier, err := NewSQLiteTier(context.Background(), filepath.Join(t.TempDir(), "cache.db"), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { sqliteTier.Close() })

	return map[string]TransientCache{
		"memory": NewMemoryTier(maxEntries),
		"sqlite": sqliteTier,
	}
}

func TestTransientCache_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, tier := range tiers(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := tier.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, tier.Put(ctx, "page:a:doc", []byte("one")))
			require.NoError(t, tier.Put(ctx, "page:a:doc", []byte("two")))

			data, ok, err := tier.Get(ctx, "page:a:doc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "two", string(data))
		})
	}
}

func TestTransientCache_DeleteAllByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, tier := range tiers(t, 0) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"page:a:doc", "page:a:history", "page:ab:doc", "search:a%_"} {
				require.NoError(t, tier.Put(ctx, key, []byte("x")))
			}

			require.NoError(t, tier.DeleteAll(ctx, "page:a:"))
			require.NoError(t, tier.DeleteAll(ctx, "search:a%"))

			for key, want := range map[string]bool{
				"page:a:doc":     false,
				"page:a:history": false,
				"page:ab:doc":    true,
				"search:a%_":     false,
			} {
				_, ok, err := tier.Get(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, want, ok, key)
			}
		})
	}
}

func TestTransientCache_Quota(t *testing.T) {
	ctx := context.Background()
	for name, tier := range tiers(t, 2) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tier.Put(ctx, "a", []byte("1")))
			require.NoError(t, tier.Put(ctx, "b", []byte("2")))

			assert.ErrorIs(t, tier.Put(ctx, "c", []byte("3")), ErrQuotaExceeded)
			assert.NoError(t, tier.Put(ctx, "a", []byte("overwrite")), "overwrites fit within quota")

			require.NoError(t, tier.DeleteAll(ctx, "b"))
			assert.NoError(t, tier.Put(ctx, "c", []byte("3")))
		})
	}
}
