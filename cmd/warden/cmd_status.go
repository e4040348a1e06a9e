package main

import (
	"github.com/spf13/cobra"
)

// newStatusCmd creates the "warden status" subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active locks, the wait queue, and availability",
		Long: "Displays all active module locks with remaining TTL, queued\nwaiters with wait times, domain locks, and per-module/per-domain\navailability. Logically expired locks are filtered from the view.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.lockManager().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}
