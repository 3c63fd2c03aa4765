package scoped

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/tenant"
)

// Override is the cross-tenant escape hatch for super principals.
// Obtain it with Access.Override; every call is logged and audited before it runs.
type Override[T Record] struct {
	access    *Access[T]
	principal tenant.Principal
	reason    string
}

// Override grants p explicit cross-tenant access to the collection.
// It fails with ErrNotSuperPrincipal for anyone but a super principal.
func (a *Access[T]) Override(ctx context.Context, p tenant.Principal, reason string) (*Override[T], error) {
	if p == nil || !p.IsSuper() {
		principalID := audit.AnonymousPrincipalID
		if p != nil {
			principalID = p.PrincipalID()
		}
		a.logger.WarnContext(ctx, "cross-tenant access denied",
			slog.String("resource", a.resource),
			slog.String("principal_id", principalID),
		)
		if a.audit != nil {
			_ = a.audit.LogError(ctx, "tenant.override.denied", ErrNotSuperPrincipal,
				audit.WithPrincipalID(principalID),
				audit.WithResource(a.resource, ""),
			)
		}
		return nil, ErrNotSuperPrincipal
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrOverrideReason
	}
	return &Override[T]{access: a, principal: p, reason: reason}, nil
}

// ListAll reads matching records across every tenant.
func (o *Override[T]) ListAll(ctx context.Context, q Query) ([]T, error) {
	if err := o.record(ctx, "list_all", uuid.Nil, uuid.Nil); err != nil {
		return nil, err
	}
	return o.access.store.FindAll(ctx, q)
}

// ListTenant reads the records of target.
func (o *Override[T]) ListTenant(ctx context.Context, target uuid.UUID, q Query) ([]T, error) {
	if err := o.record(ctx, "list", target, uuid.Nil); err != nil {
		return nil, err
	}
	return o.access.store.Find(ctx, target, q)
}

// GetTenant reads one record of target.
func (o *Override[T]) GetTenant(ctx context.Context, target, id uuid.UUID) (T, error) {
	if err := o.record(ctx, "get", target, id); err != nil {
		var zero T
		return zero, err
	}
	return o.access.store.Get(ctx, target, id)
}

// UpdateTenant mutates one record of target. The tenant reference stays immutable.
func (o *Override[T]) UpdateTenant(ctx context.Context, target, id uuid.UUID, fn func(T) error) (T, error) {
	if err := o.record(ctx, "update", target, id); err != nil {
		var zero T
		return zero, err
	}
	return o.access.store.Update(ctx, target, id, guardTenant(target, fn))
}

// DeleteTenant removes one record of target.
func (o *Override[T]) DeleteTenant(ctx context.Context, target, id uuid.UUID) error {
	if err := o.record(ctx, "delete", target, id); err != nil {
		return err
	}
	return o.access.store.Delete(ctx, target, id)
}

func (o *Override[T]) record(ctx context.Context, action string, target, id uuid.UUID) error {
	a := o.access
	attrs := []any{
		slog.String("action", action),
		slog.String("resource", a.resource),
		slog.String("principal_id", o.principal.PrincipalID()),
		slog.String("reason", o.reason),
	}
	if target != uuid.Nil {
		attrs = append(attrs, slog.String("target_tenant_id", target.String()))
	}
	if id != uuid.Nil {
		attrs = append(attrs, slog.String("record_id", id.String()))
	}
	a.logger.WarnContext(ctx, "cross-tenant access", attrs...)

	if a.audit == nil {
		return nil
	}

	opts := []audit.EventOption{
		audit.WithPrincipalID(o.principal.PrincipalID()),
		audit.WithMetadata("reason", o.reason),
	}
	if id != uuid.Nil {
		opts = append(opts, audit.WithResource(a.resource, id.String()))
	} else {
		opts = append(opts, audit.WithResource(a.resource, ""))
	}
	if target != uuid.Nil {
		opts = append(opts, audit.WithTenantID(target.String()))
	} else {
		opts = append(opts, audit.WithTenantID("*"))
	}
	if own, ok := tenant.IDFromContext(ctx); ok {
		opts = append(opts, audit.WithMetadata("request_tenant_id", own.String()))
	}

	if err := a.audit.Log(ctx, "tenant.override."+action, opts...); err != nil {
		return errors.Join(ErrAuditUnavailable, err)
	}
	return nil
}
