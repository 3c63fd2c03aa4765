package tenant

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process Directory for tests and local development.
type MemoryDirectory struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]Tenant
}

func NewMemoryDirectory(tenants ...Tenant) *MemoryDirectory {
	d := &MemoryDirectory{tenants: make(map[uuid.UUID]Tenant, len(tenants))}
	for _, t := range tenants {
		d.Put(t)
	}
	return d
}

// Put inserts or replaces t.
func (d *MemoryDirectory) Put(t Tenant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants[t.ID] = t
}

// SetActive flips the activation flag of the tenant with id.
func (d *MemoryDirectory) SetActive(id uuid.UUID, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tenants[id]; ok {
		t.Active = active
		d.tenants[id] = t
	}
}

func (d *MemoryDirectory) FindActiveBySubdomain(_ context.Context, subdomain string) (*Tenant, error) {
	return d.find(func(t Tenant) bool {
		return t.Subdomain != "" && strings.EqualFold(t.Subdomain, subdomain)
	})
}

func (d *MemoryDirectory) FindActiveByID(_ context.Context, id uuid.UUID) (*Tenant, error) {
	return d.find(func(t Tenant) bool { return t.ID == id })
}

func (d *MemoryDirectory) FindActiveBySlug(_ context.Context, slug string) (*Tenant, error) {
	return d.find(func(t Tenant) bool { return strings.EqualFold(t.Slug, slug) })
}

func (d *MemoryDirectory) find(match func(Tenant) bool) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, t := range d.tenants {
		if t.Active && match(t) {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}
