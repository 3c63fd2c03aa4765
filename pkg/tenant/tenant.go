package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated customer organization owning a disjoint partition of data.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Subdomain string    `json:"subdomain,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated end user behind a request.
// A principal has at most one home tenant; it may have none during migration windows.
type Principal interface {
	PrincipalID() string
	HomeTenantID() (uuid.UUID, bool)
	// IsSuper reports whether the principal may use the cross-tenant override.
	IsSuper() bool
}

// Directory looks up active tenants.
// Every method returns ErrTenantNotFound when no active tenant matches.
type Directory interface {
	FindActiveBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindActiveBySlug(ctx context.Context, slug string) (*Tenant, error)
}
