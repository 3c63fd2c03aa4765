package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/audit"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Store(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockStorage) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	args := m.Called(ctx, c)
	events, _ := args.Get(0).([]audit.Event)
	return events, args.Error(1)
}

type ctxKey string

func fromCtx(key ctxKey) audit.Extractor {
	return func(ctx context.Context) (string, bool) {
		v, ok := ctx.Value(key).(string)
		return v, ok && v != ""
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil storage", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewLogger(nil) })
	})
}

func TestLogger_Log(t *testing.T) {
	t.Parallel()

	t.Run("stores event with options applied", func(t *testing.T) {
		t.Parallel()
		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage)

		err := l.Log(context.Background(), "tenant.override.get",
			audit.WithPrincipalID("admin-1"),
			audit.WithTenantID("tenant-a"),
			audit.WithResource("job", "job-1"),
			audit.WithMetadata("reason", "ticket 12"),
		)
		require.NoError(t, err)

		events, err := storage.Query(context.Background(), audit.Criteria{})
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "tenant.override.get", e.Action)
		assert.Equal(t, "admin-1", e.PrincipalID)
		assert.Equal(t, "tenant-a", e.TenantID)
		assert.Equal(t, "job", e.Resource)
		assert.Equal(t, "job-1", e.ResourceID)
		assert.Equal(t, audit.ResultSuccess, e.Result)
		assert.Equal(t, "ticket 12", e.Metadata["reason"])
		assert.False(t, e.CreatedAt.IsZero())
	})

	t.Run("fills identifiers from context", func(t *testing.T) {
		t.Parallel()
		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage,
			audit.WithPrincipalIDExtractor(fromCtx("principal")),
			audit.WithTenantIDExtractor(fromCtx("tenant")),
			audit.WithRequestIDExtractor(fromCtx("request")),
		)

		ctx := context.WithValue(context.Background(), ctxKey("principal"), "user-9")
		ctx = context.WithValue(ctx, ctxKey("tenant"), "tenant-b")
		ctx = context.WithValue(ctx, ctxKey("request"), "req-1")

		require.NoError(t, l.Log(ctx, "job.create"))

		events, _ := storage.Query(ctx, audit.Criteria{})
		require.Len(t, events, 1)
		assert.Equal(t, "user-9", events[0].PrincipalID)
		assert.Equal(t, "tenant-b", events[0].TenantID)
		assert.Equal(t, "req-1", events[0].RequestID)
	})

	t.Run("explicit option wins over context", func(t *testing.T) {
		t.Parallel()
		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage, audit.WithTenantIDExtractor(fromCtx("tenant")))

		ctx := context.WithValue(context.Background(), ctxKey("tenant"), "tenant-b")
		require.NoError(t, l.Log(ctx, "tenant.override.list_all",
			audit.WithPrincipalID("admin"),
			audit.WithTenantID("*"),
		))

		events, _ := storage.Query(ctx, audit.Criteria{})
		require.Len(t, events, 1)
		assert.Equal(t, "*", events[0].TenantID)
	})

	t.Run("rejects event without principal", func(t *testing.T) {
		t.Parallel()
		storage := &mockStorage{}
		l := audit.NewLogger(storage)

		err := l.Log(context.Background(), "job.create")
		assert.ErrorIs(t, err, audit.ErrEventValidation)
		storage.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("returns storage error", func(t *testing.T) {
		t.Parallel()
		storage := &mockStorage{}
		storage.On("Store", mock.Anything, mock.Anything).Return(audit.ErrStorageNotAvailable)
		l := audit.NewLogger(storage)

		err := l.Log(context.Background(), "job.create", audit.WithPrincipalID("u1"))
		assert.ErrorIs(t, err, audit.ErrStorageNotAvailable)
		storage.AssertExpectations(t)
	})
}

func TestLogger_LogError(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{}
	storage.On("Store", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Result == audit.ResultError && e.Error == "denied" && e.Action == "tenant.override.denied"
	})).Return(nil)

	l := audit.NewLogger(storage)
	err := l.LogError(context.Background(), "tenant.override.denied", errors.New("denied"),
		audit.WithPrincipalID("user-1"))
	require.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestMemoryStorage_Query(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	l := audit.NewLogger(storage)
	ctx := context.Background()

	require.NoError(t, l.Log(ctx, "a", audit.WithPrincipalID("p1"), audit.WithTenantID("t1")))
	require.NoError(t, l.Log(ctx, "b", audit.WithPrincipalID("p2"), audit.WithTenantID("t1")))
	require.NoError(t, l.Log(ctx, "a", audit.WithPrincipalID("p1"), audit.WithTenantID("t2")))

	tests := []struct {
		name     string
		criteria audit.Criteria
		want     []string
	}{
		{"all newest first", audit.Criteria{}, []string{"t2", "t1", "t1"}},
		{"by tenant", audit.Criteria{TenantID: "t1"}, []string{"t1", "t1"}},
		{"by principal and action", audit.Criteria{PrincipalID: "p1", Action: "a"}, []string{"t2", "t1"}},
		{"limit", audit.Criteria{Limit: 1}, []string{"t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			events, err := storage.Query(ctx, tt.criteria)
			require.NoError(t, err)

			got := make([]string, 0, len(events))
			for _, e := range events {
				got = append(got, e.TenantID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
