package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldops/tenancy/pkg/backfill"
	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/pg"
)

func newBackfillCommand(flags *rootFlags) *cobra.Command {
	var (
		tenantSlug   string
		dryRun       bool
		claimAllJobs bool
	)
	cmd := &cobra.Command{
		Use:   "backfill --tenant-slug SLUG",
		Short: "Assign records that predate tenancy to a tenant",
		Long: `Claims contacts with no tenant for the given tenant, then the jobs that belong
to those contacts. With --claim-all-jobs every unassigned job is claimed.
All changes run in one transaction; --dry-run reports counts and rolls back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				ctx := cmd.Context()
				t, err := a.dir.FindActiveBySlug(ctx, tenantSlug)
				if err != nil {
					return fmt.Errorf("tenant %q: %w", tenantSlug, err)
				}

				db := pg.SQLX(a.pool)
				defer db.Close()

				results, err := backfill.Run(ctx, db, t.ID, backfill.DefaultTargets(t.ID, claimAllJobs), backfill.Options{
					DryRun: dryRun,
					Logger: a.log.With(logger.Component("backfill")),
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, r := range results {
					fmt.Fprintf(out, "%s: %d\n", r.Target, r.Rows)
				}
				verb := "claimed"
				if dryRun {
					verb = "would claim"
				}
				fmt.Fprintf(out, "%s %d rows for %s\n", verb, backfill.Total(results), t.Slug)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantSlug, "tenant-slug", "", "slug of the tenant receiving the records")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report counts without committing")
	cmd.Flags().BoolVar(&claimAllJobs, "claim-all-jobs", false, "claim every unassigned job, not only those of claimed contacts")
	_ = cmd.MarkFlagRequired("tenant-slug")
	return cmd
}
