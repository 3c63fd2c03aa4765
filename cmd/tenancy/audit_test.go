package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/tenant"
)

func TestParseSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("", now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseSince("24h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), got)

	got, err = parseSince("2026-02-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"-1h", "yesterday", "2026-02-01"} {
		_, err := parseSince(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestAuditTenantID(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Subdomain: "acme", Active: true}
	gone := tenant.Tenant{ID: uuid.New(), Slug: "gone", Subdomain: "gone", Active: false}
	dir := tenant.NewMemoryDirectory(acme, gone)
	ctx := context.Background()

	for ref, want := range map[string]string{
		"":               "",
		"*":              "*",
		"acme":           acme.ID.String(),
		gone.ID.String(): gone.ID.String(),
		" acme ":         acme.ID.String(),
	} {
		got, err := auditTenantID(ctx, dir, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, got, ref)
	}

	_, err := auditTenantID(ctx, dir, "gone")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestPrintEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printEvents(&buf, []audit.Event{
		{
			TenantID: "*", PrincipalID: "admin-1", Action: "tenant.override.list_all",
			Resource: "job", Result: audit.ResultSuccess,
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			PrincipalID: audit.AnonymousPrincipalID, Action: "tenant.override.denied",
			Resource: "job", ResourceID: "j-1", Result: audit.ResultError, Error: "not super",
			CreatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"TIME", "ACTION", "RESULT", "TENANT", "PRINCIPAL", "RESOURCE", "ERROR"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2026-03-01T12:00:00Z", "tenant.override.list_all", "success", "*", "admin-1", "job", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2026-03-01T11:00:00Z", "tenant.override.denied", "error", "-", "anonymous", "job/j-1", "not", "super"}, strings.Fields(lines[2]))
}
