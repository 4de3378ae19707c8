package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/middleware"
	"quill/internal/observability"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// PagePrefix namespaces every page cache key.
const PagePrefix = "quill:page:"

// IndexPageKey is the cache key for one page of the global feed.
func IndexPageKey(page int) string {
	return fmt.Sprintf("%sindex:%d", PagePrefix, page)
}

// PageCache stores fully composed page bodies. Entries expire after their
// TTL; nothing else invalidates them except Clear.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// RedisPageCache keeps pages in Redis so every server process shares them.
type RedisPageCache struct {
	rdb *redis.Client
}

// NewRedisPageCache wraps a connected client.
func NewRedisPageCache(rdb *redis.Client) *RedisPageCache {
	return &RedisPageCache{rdb: rdb}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisPageCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Clear deletes every key under PagePrefix.
func (c *RedisPageCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, PagePrefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryPageCache is a bounded in-process LRU used when Redis is unavailable.
// Entries expire against clock; an expired entry stays until it is evicted or
// overwritten.
type MemoryPageCache struct {
	lru   *lru.Cache[string, memoryEntry]
	clock func() time.Time
}

// NewMemoryPageCache holds at most size pages.
func NewMemoryPageCache(size int) *MemoryPageCache {
	if size <= 0 {
		size = 256
	}
	l, err := lru.New[string, memoryEntry](size)
	if err != nil {
		panic(err) // size is positive
	}
	return &MemoryPageCache{lru: l, clock: time.Now}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok || !c.clock().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryPageCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.lru.Add(key, memoryEntry{value: value, expiresAt: c.clock().Add(ttl)})
	return nil
}

func (c *MemoryPageCache) Clear(context.Context) error {
	c.lru.Purge()
	return nil
}

// NewPageCache picks the Redis cache when a client is available and the
// in-memory cache otherwise.
func NewPageCache(rdb *redis.Client, memorySize int) PageCache {
	if rdb != nil {
		return NewRedisPageCache(rdb)
	}
	return NewMemoryPageCache(memorySize)
}

// Aside returns the cached page for key or computes, stores and returns it.
// Cache failures are logged and the page is served uncached. Concurrent
// misses each compute; the last Put wins.
func Aside(ctx context.Context, c PageCache, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if b, ok, err := c.Get(ctx, key); err != nil {
		observability.PageCacheRequests.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "page cache get failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		observability.PageCacheRequests.WithLabelValues("hit").Inc()
		return b, true, nil
	} else {
		observability.PageCacheRequests.WithLabelValues("miss").Inc()
	}

	b, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(ctx, key, b, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache put failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return b, false, nil
}
