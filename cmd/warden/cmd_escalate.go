package main

import (
	"github.com/spf13/cobra"
)

// newEscalateCmd creates the "warden escalate" subcommand.
func newEscalateCmd() *cobra.Command {
	var (
		managerID string
		reason    string
		context   string
	)
	cmd := &cobra.Command{
		Use:   "escalate",
		Short: "Escalate an unresolved situation to the primary coordinator",
		Long: "Appends an escalation record to the capped history (oldest dropped\nfirst) and returns a snapshot including the manager's bookkeeping state\nfor diagnostic context.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coordinator().EscalateToPrimary(cmd.Context(), managerID, reason, context)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "escalating manager id")
	cmd.Flags().StringVar(&reason, "reason", "", "why this is being escalated")
	cmd.Flags().StringVar(&context, "context", "", "free-form diagnostic context")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
