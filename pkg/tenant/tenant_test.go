package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/tenant"
)

// Helper function to create test tenants
func createTestTenant(slug string, active bool) tenant.Tenant {
	now := time.Now()
	return tenant.Tenant{
		ID:        uuid.New(),
		Name:      slug + " Corp",
		Slug:      slug,
		Subdomain: slug,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type testPrincipal struct {
	id    string
	home  uuid.UUID
	super bool
}

func (p testPrincipal) PrincipalID() string { return p.id }

func (p testPrincipal) HomeTenantID() (uuid.UUID, bool) {
	return p.home, p.home != uuid.Nil
}

func (p testPrincipal) IsSuper() bool { return p.super }

// mockDirectory records lookups so tests can assert which tiers ran.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FindActiveBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *mockDirectory) FindActiveByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *mockDirectory) FindActiveBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func newMemoryCache(t *testing.T) tenant.Cache {
	t.Helper()
	c, err := tenant.NewMemoryCache(100)
	require.NoError(t, err)
	return c
}
