package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/tenant"
)

func newAuditCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	cmd.AddCommand(newAuditListCommand(flags))
	return cmd
}

type auditListFlags struct {
	tenant    string
	principal string
	action    string
	since     string
	limit     int
}

func newAuditListCommand(flags *rootFlags) *cobra.Command {
	var f auditListFlags
	cmd := &cobra.Command{
		Use:   "list [--tenant SLUG|ID|*] [--principal ID] [--action NAME] [--since 24h|RFC3339] [--limit N]",
		Short: "List audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, err := parseSince(f.since, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				ctx := cmd.Context()
				tenantID, err := auditTenantID(ctx, a.dir, f.tenant)
				if err != nil {
					return err
				}
				events, err := audit.NewReader(audit.NewPgStorage(a.pool)).Find(ctx, audit.Criteria{
					TenantID:    tenantID,
					PrincipalID: f.principal,
					Action:      f.action,
					Since:       since,
					Limit:       f.limit,
				})
				if err != nil {
					return err
				}
				return printEvents(cmd.OutOrStdout(), events)
			})
		},
	}
	cmd.Flags().StringVar(&f.tenant, "tenant", "", `tenant slug or id; "*" selects cross-tenant actions`)
	cmd.Flags().StringVar(&f.principal, "principal", "", "acting principal id")
	cmd.Flags().StringVar(&f.action, "action", "", "action name, e.g. tenant.override.denied")
	cmd.Flags().StringVar(&f.since, "since", "", "only events newer than a duration ago or an RFC3339 time")
	cmd.Flags().IntVar(&f.limit, "limit", audit.DefaultFindLimit, "maximum number of events")
	return cmd
}

// auditTenantID maps the --tenant flag to the stored tenant id. Ids and "*" pass through
// so deactivated tenants stay searchable; slugs must name an active tenant.
func auditTenantID(ctx context.Context, dir tenant.Directory, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "*" {
		return ref, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id.String(), nil
	}
	t, err := dir.FindActiveBySlug(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("tenant %q: %w", ref, err)
	}
	return t.ID.String(), nil
}

func parseSince(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("invalid --since %q: duration must be positive", v)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or an RFC3339 time", v)
	}
	return t, nil
}

func printEvents(w io.Writer, events []audit.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tRESULT\tTENANT\tPRINCIPAL\tRESOURCE\tERROR")
	for _, e := range events {
		resource := e.Resource
		if e.ResourceID != "" {
			resource += "/" + e.ResourceID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.Result,
			dash(e.TenantID), e.PrincipalID, dash(resource), dash(e.Error))
	}
	return tw.Flush()
}

func dash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
