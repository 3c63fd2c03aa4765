package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	envFiles []string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "tenancy",
		Short:         "Multi-tenant field service API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	cmd.AddCommand(
		newServeCommand(flags),
		newMigrateCommand(flags),
		newTenantCommand(flags),
		newPrincipalCommand(flags),
		newBackfillCommand(flags),
		newAuditCommand(flags),
	)
	return cmd
}

// withApp loads configuration, connects Postgres and runs fn with the result.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(a *app) error) error {
	a, err := loadApp(cmd.Context(), flags.envFiles)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
