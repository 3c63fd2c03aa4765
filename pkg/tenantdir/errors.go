package tenantdir

import "errors"

var (
	// ErrConflict is returned when an active tenant already uses the slug or subdomain.
	ErrConflict = errors.New("tenant slug or subdomain already in use")

	// ErrInvalidTenant is returned for onboarding input that cannot form a valid tenant.
	ErrInvalidTenant = errors.New("invalid tenant")

	// ErrTenantInactive is returned when assigning a principal to a deactivated tenant.
	ErrTenantInactive = errors.New("tenant is not active")

	// ErrPrincipalNotFound is returned when the principal to assign does not exist.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrInvalidChange is returned for a tenant change notification that cannot be decoded.
	ErrInvalidChange = errors.New("invalid tenant change")
)
