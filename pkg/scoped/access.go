package scoped

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/tenant"
)

// Access is the only sanctioned entry point for tenant-scoped persistence.
// The tenant is taken from the request Scope in ctx; reads without one return nothing
// and writes without one fail with ErrTenantRequired.
type Access[T Record] struct {
	store    Store[T]
	resource string
	logger   *slog.Logger
	audit    audit.Logger
}

type options struct {
	resource string
	logger   *slog.Logger
	audit    audit.Logger
}

// Option configures Access.
type Option func(*options)

// WithResource names the record type in logs and audit events.
func WithResource(name string) Option {
	return func(o *options) {
		if name != "" {
			o.resource = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAuditLogger records every cross-tenant override in the audit trail.
func WithAuditLogger(l audit.Logger) Option {
	return func(o *options) {
		o.audit = l
	}
}

// New wraps store with tenant enforcement.
func New[T Record](store Store[T], opts ...Option) *Access[T] {
	if store == nil {
		panic("scoped: store cannot be nil")
	}
	o := &options{resource: "record", logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return &Access[T]{store: store, resource: o.resource, logger: o.logger, audit: o.audit}
}

// List returns the records of the current tenant matching q.
// Without a resolved tenant it returns an empty result and no error.
func (a *Access[T]) List(ctx context.Context, q Query) ([]T, error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return []T{}, nil
	}
	return a.store.Find(ctx, tenantID, q)
}

// Get returns the record with id if it belongs to the current tenant.
func (a *Access[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return a.store.Get(ctx, tenantID, id)
}

// Create persists rec under the current tenant, overriding any tenant set by the caller.
func (a *Access[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		a.logger.WarnContext(ctx, "create rejected without tenant", slog.String("resource", a.resource))
		return zero, ErrTenantRequired
	}

	if supplied := rec.GetTenantID(); supplied != uuid.Nil && supplied != tenantID {
		a.logger.WarnContext(ctx, "caller-supplied tenant overridden",
			slog.String("resource", a.resource),
			slog.String("supplied_tenant_id", supplied.String()),
		)
	}
	rec.SetTenantID(tenantID)

	if err := a.store.Insert(ctx, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update applies fn to the record with id within the current tenant.
// Records of other tenants are reported as ErrNotFound; changing the tenant fails
// with ErrTenantImmutable and leaves the record untouched.
func (a *Access[T]) Update(ctx context.Context, id uuid.UUID, fn func(T) error) (T, error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		var zero T
		return zero, ErrTenantRequired
	}
	return a.store.Update(ctx, tenantID, id, guardTenant(tenantID, fn))
}

// Delete removes the record with id within the current tenant.
func (a *Access[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return ErrTenantRequired
	}
	return a.store.Delete(ctx, tenantID, id)
}

func guardTenant[T Record](tenantID uuid.UUID, fn func(T) error) func(T) error {
	return func(rec T) error {
		if fn != nil {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if rec.GetTenantID() != tenantID {
			return ErrTenantImmutable
		}
		return nil
	}
}
