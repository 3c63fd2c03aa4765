package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				return a.migrate(cmd.Context())
			})
		},
	}
}
