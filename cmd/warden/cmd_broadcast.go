package main

import (
	"github.com/spf13/cobra"
)

// newBroadcastCmd creates the "warden broadcast" subcommand.
func newBroadcastCmd() *cobra.Command {
	var (
		managerID string
		workerIDs []string
		message   string
	)
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Record an advisory notification to workers",
		Long: "Models an advisory fan-out, not a transactional send: no delivery\nis guaranteed or tracked. Returns a summary with a truncated message\npreview and the recipient count.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coordinator().Broadcast(cmd.Context(), managerID, workerIDs, message)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "broadcasting manager id")
	cmd.Flags().StringArrayVar(&workerIDs, "worker", nil, "recipient worker id (repeatable)")
	cmd.Flags().StringVar(&message, "message", "", "message text")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
