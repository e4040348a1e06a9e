package main

import (
	"github.com/spf13/cobra"

	"warden/pkg/deadlock"
)

// newDeadlockCmd creates the "warden deadlock" subcommand.
func newDeadlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deadlock",
		Short: "Detect wait-for cycles among agents",
		Long: "Builds the wait-for graph from the current queue and active locks\nand reports whether any cycle of mutually waiting agents exists.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.lockManager().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), deadlock.Detect(doc))
		},
	}
}
