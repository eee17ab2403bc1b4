package segment

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "termrank:seg:"

// Cache stores serialized segmentation results.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cached memoizes another Segmenter. Identical texts segmented concurrently
// share one call to the wrapped segmenter. Cache failures are logged and
// never fail a segmentation. Returned tokens may be shared between callers
// and must not be modified.
type Cached struct {
	next   Segmenter
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps next with cache. A zero ttl keeps entries without expiry.
func NewCached(next Segmenter, cache Cache, ttl time.Duration) *Cached {
	return &Cached{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: slog.Default().With("component", "segment-cache"),
	}
}

// Segment implements Segmenter.
func (c *Cached) Segment(ctx context.Context, text string) ([]Token, error) {
	key := cacheKey(text)
	if tokens, ok := c.lookup(ctx, key, true); ok {
		return tokens, nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have stored the result since the first lookup.
		if tokens, ok := c.lookup(ctx, key, false); ok {
			return tokens, nil
		}
		tokens, err := c.next.Segment(ctx, text)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, tokens)
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]Token), nil
}

// Stats returns cache hit and miss counts.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// lookup reads key from the cache. Only lookups with count set update the
// hit and miss counters.
func (c *Cached) lookup(ctx context.Context, key string, count bool) ([]Token, bool) {
	tokens, ok := c.get(ctx, key)
	if count {
		if ok {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
		}
	}
	return tokens, ok
}

func (c *Cached) get(ctx context.Context, key string) ([]Token, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var tokens []Token
	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return tokens, true
}

func (c *Cached) store(ctx context.Context, key string, tokens []Token) {
	data, err := json.Marshal(tokens)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// RedisOptions configures RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with a PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
