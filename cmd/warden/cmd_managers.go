package main

import (
	"github.com/spf13/cobra"
)

// newManagersCmd creates the "warden managers" subcommand.
func newManagersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "managers",
		Short: "Show active managers, workers, and recent escalations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.coordinator().ManagerStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}
