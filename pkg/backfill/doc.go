// Package backfill claims pre-tenancy rows for a tenant during the migration to
// multi-tenancy. It is meant to run once per tenant from the operator CLI, ideally
// with a dry run first.
//
//	res, err := backfill.Run(ctx, db, acme.ID, backfill.DefaultTargets(acme.ID, false),
//		backfill.Options{DryRun: true})
package backfill
