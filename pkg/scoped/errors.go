package scoped

import (
	"errors"

	"github.com/fieldops/tenancy/pkg/tenant"
)

var (
	// ErrTenantRequired is returned by writes attempted without a resolved tenant.
	ErrTenantRequired = tenant.ErrTenantRequired

	// ErrNotFound is returned for missing records and for records owned by another tenant.
	ErrNotFound = errors.New("record not found")

	// ErrTenantImmutable is returned when an update tries to move a record to another tenant.
	ErrTenantImmutable = errors.New("tenant reference is immutable")

	// ErrDuplicate is returned when a per-tenant unique field already exists in the tenant.
	ErrDuplicate = errors.New("record already exists in tenant")

	// ErrNotSuperPrincipal is returned when a non-super principal requests the cross-tenant override.
	ErrNotSuperPrincipal = errors.New("cross-tenant access requires a super principal")

	// ErrOverrideReason is returned when the cross-tenant override is requested without a reason.
	ErrOverrideReason = errors.New("cross-tenant access requires a reason")

	// ErrAuditUnavailable is returned when an override action cannot be recorded; the action is not performed.
	ErrAuditUnavailable = errors.New("cross-tenant access could not be audited")

	// ErrInvalidRecord is returned for records without an id or whose id changes on update.
	ErrInvalidRecord = errors.New("invalid record")
)
