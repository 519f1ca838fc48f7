package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ProviderRef is the resolved identity cached for an external provider id.
type ProviderRef struct {
	InternalID string `json:"internalId"`
	Name       string `json:"name,omitempty"`
}

// ProviderIDCache maps external provider ids to resolved internal identities.
// Entries are treated as immutable for the process lifetime; negative results
// are never stored, so a failed resolution may retry later.
type ProviderIDCache interface {
	Get(ctx context.Context, externalID string) (ProviderRef, bool, error)
	Put(ctx context.Context, externalID string, ref ProviderRef) error
}

// MemoryProviderCache is the default append-only in-process cache.
type MemoryProviderCache struct {
	mu      sync.RWMutex
	entries map[string]ProviderRef
}

// NewMemoryProviderCache creates an empty in-process cache.
func NewMemoryProviderCache() *MemoryProviderCache {
	return &MemoryProviderCache{entries: make(map[string]ProviderRef)}
}

var _ ProviderIDCache = (*MemoryProviderCache)(nil)

func (c *MemoryProviderCache) Get(_ context.Context, externalID string) (ProviderRef, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.entries[externalID]
	return ref, ok, nil
}

func (c *MemoryProviderCache) Put(_ context.Context, externalID string, ref ProviderRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[externalID] = ref
	return nil
}

const redisProviderKeyPrefix = "provider_xid:"

// RedisProviderCache shares resolved provider ids across replicas. Entries
// carry no TTL; the external/internal mapping is immutable.
type RedisProviderCache struct {
	client *redis.Client
}

// NewRedisProviderCache creates a cache backed by the given redis client.
func NewRedisProviderCache(client *redis.Client) *RedisProviderCache {
	if client == nil {
		panic("schedule: redis client required")
	}
	return &RedisProviderCache{client: client}
}

var _ ProviderIDCache = (*RedisProviderCache)(nil)

func (c *RedisProviderCache) Get(ctx context.Context, externalID string) (ProviderRef, bool, error) {
	data, err := c.client.Get(ctx, redisProviderKeyPrefix+externalID).Bytes()
	if err == redis.Nil {
		return ProviderRef{}, false, nil
	}
	if err != nil {
		return ProviderRef{}, false, fmt.Errorf("schedule: cache get: %w", err)
	}
	var ref ProviderRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return ProviderRef{}, false, fmt.Errorf("schedule: cache decode: %w", err)
	}
	return ref, true, nil
}

func (c *RedisProviderCache) Put(ctx context.Context, externalID string, ref ProviderRef) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("schedule: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, redisProviderKeyPrefix+externalID, data, 0).Err(); err != nil {
		return fmt.Errorf("schedule: cache set: %w", err)
	}
	return nil
}
