package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/tenant"
)

func TestScope(t *testing.T) {
	t.Parallel()

	t.Run("zero value is unresolved", func(t *testing.T) {
		t.Parallel()

		var s tenant.Scope
		assert.False(t, s.IsResolved())
		_, ok := s.Tenant()
		assert.False(t, ok)
		id, ok := s.TenantID()
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, id)
		assert.Equal(t, tenant.SourceNone, s.Source())
	})

	t.Run("resolved holds a copy", func(t *testing.T) {
		t.Parallel()

		original := createTestTenant("acme", true)
		s := tenant.Resolved(original, tenant.SourceHost)

		original.Name = "changed"
		got, ok := s.Tenant()
		require.True(t, ok)
		assert.Equal(t, "acme Corp", got.Name)

		got.Name = "changed again"
		again, _ := s.Tenant()
		assert.Equal(t, "acme Corp", again.Name)
	})

	t.Run("source names", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "host", tenant.SourceHost.String())
		assert.Equal(t, "header_id", tenant.SourceHeaderID.String())
		assert.Equal(t, "header_slug", tenant.SourceHeaderSlug.String())
		assert.Equal(t, "principal", tenant.SourcePrincipal.String())
		assert.Equal(t, "none", tenant.SourceNone.String())
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("missing scope is unresolved", func(t *testing.T) {
		t.Parallel()

		assert.False(t, tenant.ScopeFromContext(context.Background()).IsResolved())
		//nolint:staticcheck // nil context is tolerated on purpose
		assert.False(t, tenant.ScopeFromContext(nil).IsResolved())
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		acme := createTestTenant("acme", true)
		ctx := tenant.WithScope(context.Background(), tenant.Resolved(acme, tenant.SourceHeaderSlug))

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, acme.ID, id)
		assert.Equal(t, tenant.SourceHeaderSlug, tenant.ScopeFromContext(ctx).Source())
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		acme := createTestTenant("acme", true)
		attr, ok := extract(tenant.WithScope(context.Background(), tenant.Resolved(acme, tenant.SourceHost)))
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, acme.ID.String(), attr.Value.String())
	})
}

func TestWithScopeRecorder(t *testing.T) {
	t.Parallel()

	acme := createTestTenant("acme", true)

	t.Run("reports scope set by inner code", func(t *testing.T) {
		t.Parallel()

		ctx, recorded := tenant.WithScopeRecorder(context.Background())
		assert.False(t, recorded().IsResolved())

		_ = tenant.WithScope(ctx, tenant.Resolved(acme, tenant.SourceHeaderSlug))
		assert.Equal(t, tenant.SourceHeaderSlug, recorded().Source())
	})

	t.Run("starts from the scope already in context", func(t *testing.T) {
		t.Parallel()

		parent := tenant.WithScope(context.Background(), tenant.Resolved(acme, tenant.SourceHost))
		_, recorded := tenant.WithScopeRecorder(parent)
		assert.Equal(t, tenant.SourceHost, recorded().Source())
	})

	t.Run("middleware records rejected scope", func(t *testing.T) {
		t.Parallel()

		other := createTestTenant("globex", true)
		resolver := tenant.NewResolver(tenant.NewMemoryDirectory(acme, other))
		h := tenant.Middleware(resolver, tenant.WithPrincipalFunc(func(*http.Request) tenant.Principal {
			return testPrincipal{id: "u-1", home: other.ID}
		}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler must not run")
		}))

		ctx, recorded := tenant.WithScopeRecorder(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		req.Host = "acme.service.example"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, tenant.SourceHost, recorded().Source())
	})
}
