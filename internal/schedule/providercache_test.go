package schedule

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderCache(t *testing.T) {
	cache := NewMemoryProviderCache()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "ext-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "ext-1", ProviderRef{InternalID: "emp-1", Name: "Dr. Okun"}))

	ref, ok, err := cache.Get(ctx, "ext-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "emp-1", ref.InternalID)
	assert.Equal(t, "Dr. Okun", ref.Name)
}

func TestRedisProviderCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisProviderCache(client)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "ext-9")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "ext-9", ProviderRef{InternalID: "emp-9", Name: "Dr. Silberman"}))

	ref, ok, err := cache.Get(ctx, "ext-9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "emp-9", ref.InternalID)

	// Entries are immutable mappings and carry no TTL.
	ttl := mr.TTL(redisProviderKeyPrefix + "ext-9")
	assert.Zero(t, ttl)
}

func TestRedisProviderCacheWithResolver(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisProviderCache(client)

	lookup := &fakeLookup{refs: map[string]ProviderRef{
		"ext-77": {InternalID: "emp-12", Name: "Dr. Silberman"},
	}}
	resolver := NewResolver(lookup, cache, nil, nil)

	_, err := resolver.ResolvePreview(context.Background(), previewFixture())
	require.NoError(t, err)
	_, err = resolver.ResolvePreview(context.Background(), previewFixture())
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.callCount(), "replica-shared cache must absorb the second resolution")
}
