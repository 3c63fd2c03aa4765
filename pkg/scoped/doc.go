// Package scoped enforces tenant isolation for every read and write of tenant-scoped records.
//
// Record types opt in by implementing Record. Access wraps a Store and takes the tenant from
// the request Scope (see package tenant), so handlers never pass tenant ids around:
//
//	jobs := scoped.New[*Job](sqlstore.New[*Job](db, jobsTable), scoped.WithResource("job"))
//
//	list, err := jobs.List(ctx, scoped.Query{OrderBy: "created_at DESC", Limit: 50})
//	job, err := jobs.Create(ctx, &Job{ID: uuid.New(), Name: "Gutter cleaning"})
//
// The rules are fail closed:
//
//   - reads without a resolved tenant return an empty result, never the whole collection
//   - writes without a resolved tenant fail with ErrTenantRequired and persist nothing
//   - Create always stamps the current tenant, whatever the caller put in the record
//   - records of other tenants are invisible: Get, Update and Delete report ErrNotFound
//   - the tenant reference never changes after creation (ErrTenantImmutable)
//   - unique fields are unique per tenant (ErrDuplicate)
//
// # Cross-tenant access
//
// Super principals may bypass narrowing only through Access.Override, which requires a
// reason and writes a slog warning plus an audit event before each call:
//
//	o, err := jobs.Override(ctx, principal, "support ticket 4411")
//	all, err := o.ListAll(ctx, scoped.Query{})
package scoped
