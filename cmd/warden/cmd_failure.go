package main

import (
	"github.com/spf13/cobra"

	"warden/pkg/coordinator"
)

// newHandleFailureCmd creates the "warden handle-failure" subcommand.
func newHandleFailureCmd() *cobra.Command {
	var (
		managerID string
		workerID  string
		critical  bool
		severity  string
		message   string
	)
	cmd := &cobra.Command{
		Use:   "handle-failure",
		Short: "Classify a worker failure as retry, reassign, or escalate",
		Long: `Records a worker failure and recommends a response. Critical
failures escalate regardless of history; a worker with two or more prior
failed assignments is reassigned; otherwise the task is retried.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coordinator().HandleWorkerFailure(cmd.Context(), managerID, workerID,
				coordinator.FailureInfo{
					Critical: critical,
					Severity: severity,
					Message:  message,
				})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "reporting manager id")
	cmd.Flags().StringVar(&workerID, "worker", "", "failing worker id")
	cmd.Flags().BoolVar(&critical, "critical", false, "mark the failure critical")
	cmd.Flags().StringVar(&severity, "severity", "", `failure severity ("critical" forces escalation)`)
	cmd.Flags().StringVar(&message, "message", "", "failure description")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}
