package steamnames

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteCache(t *testing.T, resolver Resolver) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "names.db"), resolver, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestSQLiteCacheResolveAndCache(t *testing.T) {
	resolver := &StaticResolver{Names: map[uint32]string{413150: "Stardew Valley"}}
	cache := newTestSQLiteCache(t, resolver)

	assert.Equal(t, "Stardew Valley", cache.GetOrResolve(context.Background(), 413150))
	assert.Equal(t, 1, cache.Len())

	// Second call is served from the table.
	cache.resolver = &StaticResolver{}
	assert.Equal(t, "Stardew Valley", cache.GetOrResolve(context.Background(), 413150))
}

func TestSQLiteCachePlaceholderAndRefresh(t *testing.T) {
	cache := newTestSQLiteCache(t, &StaticResolver{})

	assert.Equal(t, "Unknown Game 42", cache.GetOrResolve(context.Background(), 42))

	cache.resolver = &StaticResolver{Names: map[uint32]string{42: "Found Later"}}
	updated := cache.RefreshIncorrectNames(context.Background())
	assert.Equal(t, 1, updated)
	assert.Equal(t, "Found Later", cache.GetOrResolve(context.Background(), 42))
}

func TestSQLiteCacheSeedAndClear(t *testing.T) {
	cache := newTestSQLiteCache(t, &StaticResolver{})

	cache.Seed(map[uint32]string{570: "Dota 2", 440: "Team Fortress 2"})
	assert.Equal(t, 2, cache.Len())

	// Seeding again does not overwrite trusted entries.
	cache.Seed(map[uint32]string{570: "Renamed"})
	assert.Equal(t, "Dota 2", cache.GetOrResolve(context.Background(), 570))

	require.NoError(t, cache.Clear())
	assert.Zero(t, cache.Len())
}
