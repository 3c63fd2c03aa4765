package scoped_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/tenant"
)

type testJob struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Priority int       `json:"priority"`
}

func (j *testJob) GetID() uuid.UUID         { return j.ID }
func (j *testJob) GetTenantID() uuid.UUID   { return j.TenantID }
func (j *testJob) SetTenantID(id uuid.UUID) { j.TenantID = id }

func newJob(name string) *testJob {
	return &testJob{ID: uuid.New(), Name: name}
}

type testPrincipal struct {
	id    string
	home  uuid.UUID
	super bool
}

func (p testPrincipal) PrincipalID() string { return p.id }
func (p testPrincipal) IsSuper() bool       { return p.super }
func (p testPrincipal) HomeTenantID() (uuid.UUID, bool) {
	return p.home, p.home != uuid.Nil
}

func createTestTenant(slug string) tenant.Tenant {
	now := time.Now()
	return tenant.Tenant{
		ID:        uuid.New(),
		Name:      slug + " Corp",
		Slug:      slug,
		Subdomain: slug,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func scopedContext(t *testing.T, tn tenant.Tenant) context.Context {
	t.Helper()
	ctx := tenant.WithScope(context.Background(), tenant.Resolved(tn, tenant.SourceHost))
	id, ok := tenant.IDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, tn.ID, id)
	return ctx
}
