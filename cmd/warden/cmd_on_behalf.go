package main

import (
	"time"

	"github.com/spf13/cobra"

	"warden/pkg/lockmgr"
	"warden/pkg/protocol"
)

// newAcquireForWorkerCmd creates the "warden acquire-for-worker" subcommand.
func newAcquireForWorkerCmd() *cobra.Command {
	var (
		managerID string
		workerID  string
		moduleRef string
		operation string
		duration  time.Duration
		purpose   string
	)
	cmd := &cobra.Command{
		Use:   "acquire-for-worker",
		Short: "Acquire a module lock on a worker's behalf",
		Long: `Delegated acquisition: a manager takes a module lock under a
worker's identity. Managers may never touch primary-only modules. The
resulting lock is tagged with the manager id for observability.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().AcquireOnBehalf(cmd.Context(), managerID, workerID, moduleRef,
				lockmgr.AcquireOptions{
					Operation:         protocol.LockOperation(operation),
					EstimatedDuration: duration,
					Purpose:           purpose,
				})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "delegating manager id")
	cmd.Flags().StringVar(&workerID, "worker", "", "worker the lock is acquired for")
	cmd.Flags().StringVar(&moduleRef, "module", "", "module name or path containing one")
	cmd.Flags().StringVar(&operation, "operation", string(protocol.OpWrite), "lock operation: read or write")
	cmd.Flags().DurationVar(&duration, "duration", lockmgr.DefaultEstimatedDuration, "estimated hold duration")
	cmd.Flags().StringVar(&purpose, "purpose", "", "human-readable reason for the lock")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("worker")
	_ = cmd.MarkFlagRequired("module")
	return cmd
}
