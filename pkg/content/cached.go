package content

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "content:published:"

// CachedClient keeps published query results in an in-process cache and,
// when a redis client is supplied, in a shared redis cache so that every
// instance serves the same revision until it is invalidated.
type CachedClient struct {
	inner Client
	local *cache.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedClient{
		inner: inner,
		local: cache.New(ttl, 2*ttl),
		rdb:   rdb,
		ttl:   ttl,
	}
}

func (c *CachedClient) Name() string {
	return c.inner.Name()
}

func (c *CachedClient) Config() Config {
	return c.inner.Config()
}

func (c *CachedClient) key(q QueryDescriptor) string {
	sum := sha1.Sum([]byte(c.inner.Config().Dataset + "\x00" + q.CacheKey()))
	return hex.EncodeToString(sum[:])
}

func (c *CachedClient) Fetch(ctx context.Context, q QueryDescriptor) (json.RawMessage, error) {
	key := c.key(q)

	if v, found := c.local.Get(key); found {
		return v.(json.RawMessage), nil
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
		if err == nil {
			raw := json.RawMessage(data)
			c.local.Set(key, raw, cache.DefaultExpiration)
			return raw, nil
		}
		if err != redis.Nil {
			log.Printf("[content/%s] redis get failed: %v", c.Name(), err)
		}
	}

	raw, err := c.inner.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	c.local.Set(key, raw, cache.DefaultExpiration)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, redisKeyPrefix+key, []byte(raw), c.ttl).Err(); err != nil {
			log.Printf("[content/%s] redis set failed: %v", c.Name(), err)
		}
	}
	return raw, nil
}

// Listen is never cached.
func (c *CachedClient) Listen(ctx context.Context, q QueryDescriptor, opts ListenOptions) (<-chan ListenEvent, error) {
	return c.inner.Listen(ctx, q, opts)
}

// Invalidate drops every cached result, locally and in redis.
func (c *CachedClient) Invalidate(ctx context.Context) error {
	c.local.Flush()
	if c.rdb == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ItemCount reports the number of locally cached results.
func (c *CachedClient) ItemCount() int {
	return c.local.ItemCount()
}
