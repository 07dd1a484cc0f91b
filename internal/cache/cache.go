// Package cache provides a tiered key/value cache: a remote Redis primary
// with an in-process fallback map. A deployment without Redis still works,
// with the weaker guarantee that entries are not shared across processes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TieredCache is a best-effort TTL cache. Cache failures never propagate:
// any Redis runtime error degrades to a miss on reads and a no-op on writes.
type TieredCache struct {
	client *redis.Client // nil when running memory-only

	mu      sync.RWMutex
	entries map[string]memoryEntry

	logger *zap.Logger
	now    func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// New connects to Redis at redisURL and returns a cache backed by it. If the
// URL is empty or the initial ping fails, the cache runs on the in-process
// map for the remainder of the process lifetime; there is no reconnection
// attempt.
func New(ctx context.Context, redisURL string, logger *zap.Logger) *TieredCache {
	c := &TieredCache{
		entries: make(map[string]memoryEntry),
		logger:  logger,
		now:     time.Now,
	}

	if redisURL == "" {
		logger.Info("no Redis URL provided, using memory cache")
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid Redis URL, falling back to memory cache", zap.Error(err))
		return c
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to Redis, falling back to memory cache", zap.Error(err))
		_ = client.Close()
		return c
	}

	logger.Info("Redis connected successfully")
	c.client = client
	return c
}

// Get returns the cached value for key, or ok=false on a miss. An expired
// entry is a miss. Remote errors are treated as misses.
func (c *TieredCache) Get(ctx context.Context, key string) (string, bool) {
	if c.client != nil {
		value, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return value, true
		}
		if err != redis.Nil {
			c.logger.Debug("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, ok := c.entries[key]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

// Set stores value under key for ttl. Remote errors are swallowed.
func (c *TieredCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.client != nil {
		if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
			c.logger.Debug("redis set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key from the cache. Remote errors are swallowed.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.Debug("redis delete failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Close releases the Redis connection if one is held.
func (c *TieredCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
