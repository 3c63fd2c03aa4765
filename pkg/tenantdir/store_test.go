package tenantdir_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/tenant"
	"github.com/fieldops/tenancy/pkg/tenantdir"
)

func setupStore(t *testing.T, opts ...tenantdir.Option) *tenantdir.Store {
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
	return tenantdir.New(pool, opts...)
}

func uniqueName(prefix string) string {
	return prefix + " " + uuid.NewString()[:8]
}

func TestStore_Onboard(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	t.Run("derives slug and subdomain", func(t *testing.T) {
		name := uniqueName("Acme Roofing")
		created, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: name})
		require.NoError(t, err)
		assert.True(t, created.Active)
		assert.NotEmpty(t, created.Slug)
		assert.Equal(t, created.Slug, created.Subdomain)

		found, err := store.FindActiveBySubdomain(ctx, created.Subdomain)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)

		found, err = store.FindActiveBySlug(ctx, created.Slug)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("active slug conflict", func(t *testing.T) {
		name := uniqueName("Globex")
		_, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: name})
		require.NoError(t, err)
		_, err = store.Onboard(ctx, tenantdir.OnboardParams{Name: name})
		assert.ErrorIs(t, err, tenantdir.ErrConflict)
	})

	t.Run("deactivation frees slug and stops resolution", func(t *testing.T) {
		name := uniqueName("Initech")
		first, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: name})
		require.NoError(t, err)

		deactivated, err := store.Deactivate(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, deactivated.Active)

		_, err = store.FindActiveByID(ctx, first.ID)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

		second, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: name})
		require.NoError(t, err)
		assert.Equal(t, first.Slug, second.Slug)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: "  "})
		assert.ErrorIs(t, err, tenantdir.ErrInvalidTenant)

		_, err = store.Onboard(ctx, tenantdir.OnboardParams{Name: "ok", Slug: "not a label"})
		assert.ErrorIs(t, err, tenantdir.ErrInvalidTenant)

		_, err = store.Onboard(ctx, tenantdir.OnboardParams{Name: "Admin Services", Subdomain: "admin"})
		assert.ErrorIs(t, err, tenantdir.ErrInvalidTenant)
	})
}

func TestStore_AssignPrincipal(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	t.Run("unknown principal", func(t *testing.T) {
		created, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: uniqueName("Umbrella")})
		require.NoError(t, err)
		err = store.AssignPrincipal(ctx, "missing-"+uuid.NewString(), created.ID)
		assert.ErrorIs(t, err, tenantdir.ErrPrincipalNotFound)
	})

	t.Run("inactive tenant", func(t *testing.T) {
		created, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: uniqueName("Hooli")})
		require.NoError(t, err)
		_, err = store.Deactivate(ctx, created.ID)
		require.NoError(t, err)

		err = store.AssignPrincipal(ctx, "anyone", created.ID)
		assert.ErrorIs(t, err, tenantdir.ErrTenantInactive)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		err := store.AssignPrincipal(ctx, "anyone", uuid.New())
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}

func TestStore_ReservedSubdomains(t *testing.T) {
	store := setupStore(t, tenantdir.WithReservedSubdomains("Dispatch", " portal "))
	ctx := context.Background()

	for _, label := range []string{"dispatch", "portal"} {
		_, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: uniqueName("Reserved"), Subdomain: label})
		assert.ErrorIs(t, err, tenantdir.ErrInvalidTenant, label)
	}

	// the configured set replaces the defaults
	created, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: uniqueName("Admin Services"), Subdomain: "admin"})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = store.Deactivate(context.Background(), created.ID) })
	assert.Equal(t, "admin", created.Subdomain)
}

// purgeSignal reports when the listener is subscribed.
type purgeSignal struct {
	*tenant.CachedDirectory
	ready chan struct{}
	once  sync.Once
}

func (p *purgeSignal) Purge(ctx context.Context) error {
	defer p.once.Do(func() { close(p.ready) })
	return p.CachedDirectory.Purge(ctx)
}

func TestStore_WatchChanges(t *testing.T) {
	store := setupStore(t, tenantdir.WithReconnectInterval(50*time.Millisecond))
	ctx := context.Background()

	created, err := store.Onboard(ctx, tenantdir.OnboardParams{Name: uniqueName("Vandelay")})
	require.NoError(t, err)

	cache, err := tenant.NewMemoryCache(16)
	require.NoError(t, err)
	cached := tenant.NewCachedDirectory(store, cache, time.Hour)
	handler := &purgeSignal{CachedDirectory: cached, ready: make(chan struct{})}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- store.WatchChanges(watchCtx, handler) }()

	select {
	case <-handler.ready:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("listener did not subscribe")
	}

	_, err = cached.FindActiveBySubdomain(ctx, created.Subdomain)
	require.NoError(t, err)

	_, err = store.Deactivate(ctx, created.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := cached.FindActiveBySubdomain(ctx, created.Subdomain)
		return errors.Is(err, tenant.ErrTenantNotFound)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchChanges did not return after cancellation")
	}
}
