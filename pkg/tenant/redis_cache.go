package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "tenancy:tenant:"

type redisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a Cache shared across instances through Redis.
// Values are stored as JSON under prefix+key; an empty prefix selects "tenancy:tenant:".
func NewRedisCache(client redis.UniversalClient, prefix string) Cache {
	if client == nil {
		panic("tenant: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) error {
	if t == nil {
		return nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Clear removes every key under the cache prefix.
// On a cluster client only the node serving the scan is cleared.
func (c *redisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}
