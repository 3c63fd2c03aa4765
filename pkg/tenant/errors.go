package tenant

import "errors"

var (
	// ErrTenantNotFound is returned by a Directory when no active tenant matches.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when a subdomain, slug or id has an invalid format.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrTenantRequired is returned when an operation needs a resolved tenant and there is none.
	ErrTenantRequired = errors.New("tenant context required")

	// ErrPrincipalMismatch is returned when the request tenant differs from the principal's home tenant.
	ErrPrincipalMismatch = errors.New("principal does not belong to the requested tenant")

	// ErrCacheConfig is returned when the in-process cache cannot be created.
	ErrCacheConfig = errors.New("invalid tenant cache configuration")
)
