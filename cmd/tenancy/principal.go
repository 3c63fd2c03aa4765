package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrincipalCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "principal",
		Short: "Manage principals",
	}

	var tenantRef string
	assign := &cobra.Command{
		Use:   "assign PRINCIPAL_ID --tenant SLUG|ID",
		Short: "Set a principal's home tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				ctx := cmd.Context()
				t, err := findTenant(ctx, a.dir, tenantRef)
				if err != nil {
					return err
				}
				if err := a.dir.AssignPrincipal(ctx, args[0], t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "principal %s now belongs to %s\n", args[0], t.Slug)
				return nil
			})
		},
	}
	assign.Flags().StringVar(&tenantRef, "tenant", "", "tenant slug or id")
	_ = assign.MarkFlagRequired("tenant")

	cmd.AddCommand(assign)
	return cmd
}
