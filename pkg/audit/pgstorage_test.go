package audit_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/tenantdir"
)

func setupPgStorage(t *testing.T) *audit.PgStorage {
	t.Helper()
	conn := os.Getenv("PG_CONN_URL")
	if conn == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: conn, MaxOpenConns: 4, RetryAttempts: 1, MigrationsTable: "tenancy_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, tenantdir.Migrations, tenantdir.MigrationsDir, cfg, slog.New(slog.DiscardHandler)))
	return audit.NewPgStorage(pool)
}

func TestPgStorage(t *testing.T) {
	storage := setupPgStorage(t)
	ctx := context.Background()

	// unique ids keep runs against a shared database apart
	tenantID := uuid.NewString()
	otherTenant := uuid.NewString()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)

	events := []audit.Event{
		{
			ID: uuid.NewString(), TenantID: tenantID, PrincipalID: "u-1", RequestID: "req-1",
			Action: "tenant.override.list_all", Resource: "job", Result: audit.ResultSuccess,
			Metadata:  map[string]any{"reason": "billing reconciliation", "count": float64(2)},
			CreatedAt: base,
		},
		{
			ID: uuid.NewString(), TenantID: tenantID, PrincipalID: "u-2",
			Action: "tenant.override.denied", Resource: "job", Result: audit.ResultError,
			Error: "principal is not super", CreatedAt: base.Add(10 * time.Minute),
		},
		{
			ID: uuid.NewString(), TenantID: tenantID, PrincipalID: "u-1",
			Action: "tenant.override.update", Resource: "job", ResourceID: uuid.NewString(),
			Result: audit.ResultSuccess, CreatedAt: base.Add(20 * time.Minute),
		},
		{
			ID: uuid.NewString(), TenantID: otherTenant, PrincipalID: "u-1",
			Action: "tenant.override.list_all", Resource: "job", Result: audit.ResultSuccess,
			CreatedAt: base.Add(30 * time.Minute),
		},
	}
	for _, e := range events {
		require.NoError(t, storage.Store(ctx, e))
	}

	t.Run("round trips every field", func(t *testing.T) {
		got, err := storage.Query(ctx, audit.Criteria{TenantID: tenantID, Action: "tenant.override.list_all"})
		require.NoError(t, err)
		require.Len(t, got, 1)

		want := events[0]
		assert.Equal(t, want.ID, got[0].ID)
		assert.Equal(t, want.PrincipalID, got[0].PrincipalID)
		assert.Equal(t, want.RequestID, got[0].RequestID)
		assert.Equal(t, want.Resource, got[0].Resource)
		assert.Equal(t, want.Result, got[0].Result)
		assert.Equal(t, want.Metadata, got[0].Metadata)
		assert.True(t, want.CreatedAt.Equal(got[0].CreatedAt))
	})

	t.Run("keeps error and resource id", func(t *testing.T) {
		got, err := storage.Query(ctx, audit.Criteria{TenantID: tenantID, PrincipalID: "u-2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "principal is not super", got[0].Error)
		assert.Equal(t, audit.ResultError, got[0].Result)
		assert.Empty(t, got[0].Metadata)

		got, err = storage.Query(ctx, audit.Criteria{TenantID: tenantID, Action: "tenant.override.update"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, events[2].ResourceID, got[0].ResourceID)
	})

	t.Run("filters by tenant newest first", func(t *testing.T) {
		got, err := storage.Query(ctx, audit.Criteria{TenantID: tenantID})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, events[2].ID, got[0].ID)
		assert.Equal(t, events[0].ID, got[2].ID)
	})

	t.Run("filters by principal across tenants", func(t *testing.T) {
		got, err := storage.Query(ctx, audit.Criteria{PrincipalID: "u-1", Since: base})
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		assert.Contains(t, ids, events[0].ID)
		assert.Contains(t, ids, events[3].ID)
		assert.NotContains(t, ids, events[1].ID)
	})

	t.Run("since and limit", func(t *testing.T) {
		got, err := storage.Query(ctx, audit.Criteria{TenantID: tenantID, Since: base.Add(5 * time.Minute)})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = storage.Query(ctx, audit.Criteria{TenantID: tenantID, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, events[2].ID, got[0].ID)
	})
}
