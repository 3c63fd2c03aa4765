package backfill

import "github.com/google/uuid"

// DefaultTargets returns the tables of the bundled schema in dependency order.
// Contacts are claimed first so jobs can be matched through them; with claimAllJobs
// every orphan job is claimed instead.
func DefaultTargets(tenantID uuid.UUID, claimAllJobs bool) []Target {
	jobs := Target{Table: "jobs"}
	if !claimAllJobs {
		jobs.Where = "contact_id IN (SELECT id FROM contacts WHERE tenant_id = ?)"
		jobs.Args = []any{tenantID}
	}
	return []Target{
		{Table: "contacts"},
		jobs,
	}
}
