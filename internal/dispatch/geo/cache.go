package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ZipCacheTTL is the freshness window for cached ZIP centroids. Centroids
// for a fixed ZIP are stable, so a long window is safe and re-computation
// is idempotent.
const ZipCacheTTL = 30 * 24 * time.Hour

// Cache stores geocode results keyed by 5-digit ZIP. Implementations must
// be safe for concurrent use; last write wins.
type Cache interface {
	GetZip(ctx context.Context, zip5 string) (*LatLng, bool, error)
	SetZip(ctx context.Context, zip5 string, loc LatLng, ttl time.Duration) error
}

func zipKey(zip5 string) string {
	return fmt.Sprintf("geo:zip:%s", zip5)
}

// RedisCache implements Cache on go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Ping checks connectivity. Cache outage is non-fatal for callers; they
// fall through to the geocoding provider.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetZip(ctx context.Context, zip5 string) (*LatLng, bool, error) {
	val, err := c.client.Get(ctx, zipKey(zip5)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var loc LatLng
	if err := json.Unmarshal(val, &loc); err != nil {
		return nil, false, err
	}
	return &loc, true, nil
}

func (c *RedisCache) SetZip(ctx context.Context, zip5 string, loc LatLng, ttl time.Duration) error {
	val, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, zipKey(zip5), val, ttl).Err()
}

// MemoryCache is an in-process Cache used when no Redis URL is configured
// and in tests. Expired entries are dropped on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	loc       LatLng
	expiresAt time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) GetZip(_ context.Context, zip5 string) (*LatLng, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[zipKey(zip5)]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	loc := entry.loc
	return &loc, true, nil
}

func (c *MemoryCache) SetZip(_ context.Context, zip5 string, loc LatLng, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[zipKey(zip5)] = memoryEntry{loc: loc, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
