package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/selfcaststudios/studio-cms/internal/config"
)

// ContentCache caches serialized public content list responses, keyed by
// collection and tenant. Writes to a tenant's collection invalidate the
// exact key, so stale published content lives at most one write apart.
type ContentCache struct {
	backend Cache
	ttl     time.Duration
}

// NewContentCache builds a ContentCache from configuration, preferring Redis
// when configured and falling back to memory when the connection fails.
func NewContentCache(cfg *config.Config) *ContentCache {
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	if cfg.UseRedisCache() {
		backend, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: ttl,
		})
		if err == nil {
			slog.Info("content cache initialized", "backend", "redis")
			return &ContentCache{backend: backend, ttl: ttl}
		}
		slog.Warn("redis unavailable, using memory cache", "error", err)
	}

	backend := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		MaxSize:         cfg.CacheMax,
		CleanupInterval: time.Minute,
	})
	slog.Info("content cache initialized", "backend", "memory")
	return &ContentCache{backend: backend, ttl: ttl}
}

func contentKey(collection, ownerID string) string {
	return "public:" + collection + ":" + ownerID
}

// GetList returns the cached public list payload for a tenant's collection.
func (c *ContentCache) GetList(ctx context.Context, collection, ownerID string) ([]byte, bool) {
	payload, err := c.backend.Get(ctx, contentKey(collection, ownerID))
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SetList caches the public list payload for a tenant's collection.
func (c *ContentCache) SetList(ctx context.Context, collection, ownerID string, payload []byte) {
	if err := c.backend.Set(ctx, contentKey(collection, ownerID), payload, c.ttl); err != nil {
		slog.Debug("content cache set failed", "error", err)
	}
}

// Invalidate drops the cached payload for a tenant's collection.
func (c *ContentCache) Invalidate(ctx context.Context, collection, ownerID string) {
	if err := c.backend.Delete(ctx, contentKey(collection, ownerID)); err != nil {
		slog.Debug("content cache invalidation failed", "error", err)
	}
}

// Close releases the cache backend.
func (c *ContentCache) Close() error {
	return c.backend.Close()
}
