// Package tenantdir stores tenants and principals in Postgres.
//
// Store implements tenant.Directory for the resolver and carries the operator surface:
// Onboard, Deactivate and AssignPrincipal. Slug and subdomain are unique among active
// tenants only, enforced by partial unique indexes, so a deactivated tenant frees its
// names. Migrations are embedded and applied with pg.Migrate.
package tenantdir
