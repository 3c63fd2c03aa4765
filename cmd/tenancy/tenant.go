package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/redis"
	"github.com/fieldops/tenancy/pkg/tenant"
	"github.com/fieldops/tenancy/pkg/tenantdir"
)

func newTenantCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(newTenantCreateCommand(flags), newTenantDeactivateCommand(flags))
	return cmd
}

func newTenantCreateCommand(flags *rootFlags) *cobra.Command {
	var params tenantdir.OnboardParams
	cmd := &cobra.Command{
		Use:   "create --name NAME [--slug SLUG] [--subdomain LABEL]",
		Short: "Onboard a new active tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				t, err := a.dir.Onboard(cmd.Context(), params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created tenant %s slug=%s subdomain=%s\n", t.ID, t.Slug, t.Subdomain)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().StringVar(&params.Slug, "slug", "", "slug; derived from the name when empty")
	cmd.Flags().StringVar(&params.Subdomain, "subdomain", "", "host label the tenant is served under")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTenantDeactivateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate SLUG|ID",
		Short: "Deactivate a tenant so it no longer resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				ctx := cmd.Context()
				t, err := findTenant(ctx, a.dir, args[0])
				if err != nil {
					return err
				}
				t, err = a.dir.Deactivate(ctx, t.ID)
				if err != nil {
					return err
				}
				if err := invalidateShared(ctx, a, *t); err != nil {
					a.log.WarnContext(ctx, "shared tenant cache not invalidated; entries expire with their TTL",
						logger.TenantID(t.ID), logger.Error(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deactivated tenant %s (%s)\n", t.ID, t.Slug)
				return nil
			})
		},
	}
}

// findTenant accepts either an id or a slug.
func findTenant(ctx context.Context, dir tenant.Directory, ref string) (*tenant.Tenant, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return dir.FindActiveByID(ctx, id)
	}
	return dir.FindActiveBySlug(ctx, ref)
}

// invalidateShared drops t from the Redis cache other instances read.
func invalidateShared(ctx context.Context, a *app, t tenant.Tenant) error {
	if !a.cfg.Redis.Enabled() {
		return nil
	}
	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	cached := tenant.NewCachedDirectory(a.dir, tenant.NewRedisCache(client, a.cfg.Redis.KeyPrefix), a.cfg.Tenant.CacheTTL)
	return cached.Invalidate(ctx, t)
}
