package main

import (
	"github.com/spf13/cobra"
)

// newCompleteCmd creates the "warden complete" subcommand.
func newCompleteCmd() *cobra.Command {
	var managerID string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a manager's workflow",
		Long: "Removes the manager's record, prunes its assignments from every\nworker it touched, and deletes workers left with no assignments.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coordinator().CompleteWorkflow(cmd.Context(), managerID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "manager id to complete")
	_ = cmd.MarkFlagRequired("manager")
	return cmd
}
