package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
)

// Cache stores directory lookups keyed by lookup kind and value.
type Cache interface {
	Get(ctx context.Context, key string) (*Tenant, bool)
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

const (
	// DefaultCacheTTL bounds how long a deactivated tenant can keep resolving from cache.
	DefaultCacheTTL = time.Minute
	// DefaultCacheSize is the default maximum number of tenants held in process.
	DefaultCacheSize = 1000
)

// CachedDirectory decorates a Directory with a read-through cache.
// Only active tenants are cached, and cached entries are re-checked on read.
type CachedDirectory struct {
	next  Directory
	cache Cache
	ttl   time.Duration
}

// NewCachedDirectory wraps next. A non-positive ttl selects DefaultCacheTTL.
func NewCachedDirectory(next Directory, c Cache, ttl time.Duration) *CachedDirectory {
	if next == nil || c == nil {
		panic("tenant: cached directory requires a directory and a cache")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{next: next, cache: c, ttl: ttl}
}

func (d *CachedDirectory) FindActiveBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	return d.load(ctx, subdomainKey(subdomain), func() (*Tenant, error) {
		return d.next.FindActiveBySubdomain(ctx, subdomain)
	})
}

func (d *CachedDirectory) FindActiveByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return d.load(ctx, idKey(id), func() (*Tenant, error) {
		return d.next.FindActiveByID(ctx, id)
	})
}

func (d *CachedDirectory) FindActiveBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return d.load(ctx, slugKey(slug), func() (*Tenant, error) {
		return d.next.FindActiveBySlug(ctx, slug)
	})
}

// Invalidate drops every cache key that can point at t.
// Call it after deactivating or renaming a tenant.
func (d *CachedDirectory) Invalidate(ctx context.Context, t Tenant) error {
	keys := []string{idKey(t.ID), slugKey(t.Slug)}
	if t.Subdomain != "" {
		keys = append(keys, subdomainKey(t.Subdomain))
	}
	return d.cache.Delete(ctx, keys...)
}

// Purge drops every cached tenant. Use it when individual changes may have been missed.
func (d *CachedDirectory) Purge(ctx context.Context) error {
	return d.cache.Clear(ctx)
}

func (d *CachedDirectory) load(ctx context.Context, key string, find func() (*Tenant, error)) (*Tenant, error) {
	if t, ok := d.cache.Get(ctx, key); ok {
		if t != nil && t.Active {
			cp := *t
			return &cp, nil
		}
		_ = d.cache.Delete(ctx, key)
	}

	t, err := find()
	if err != nil {
		return nil, err
	}
	if t == nil || !t.Active {
		return nil, ErrTenantNotFound
	}

	cp := *t
	// cache failures degrade to uncached lookups
	_ = d.cache.Set(ctx, key, &cp, d.ttl)
	return t, nil
}

func subdomainKey(v string) string { return "sub:" + v }
func slugKey(v string) string      { return "slug:" + v }
func idKey(id uuid.UUID) string    { return "id:" + id.String() }

// memoryCache is the in-process cache backed by ristretto.
type memoryCache struct {
	items *ristretto.Cache[string, Tenant]
}

// NewMemoryCache creates an in-process cache holding at most size tenants.
func NewMemoryCache(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	items, err := ristretto.NewCache(&ristretto.Config[string, Tenant]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Join(ErrCacheConfig, err)
	}
	return &memoryCache{items: items}, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (*Tenant, bool) {
	t, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	return &t, true
}

func (c *memoryCache) Set(_ context.Context, key string, t *Tenant, ttl time.Duration) error {
	if t == nil || ttl <= 0 {
		return nil
	}
	c.items.SetWithTTL(key, *t, 1, ttl)
	// make the entry visible to the next Get
	c.items.Wait()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Del(k)
	}
	return nil
}

func (c *memoryCache) Clear(context.Context) error {
	c.items.Clear()
	return nil
}
