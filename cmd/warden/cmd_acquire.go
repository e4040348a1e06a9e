package main

import (
	"time"

	"github.com/spf13/cobra"

	"warden/pkg/lockmgr"
	"warden/pkg/protocol"
)

// newAcquireCmd creates the "warden acquire" subcommand.
func newAcquireCmd() *cobra.Command {
	var (
		agentID   string
		moduleRef string
		operation string
		duration  time.Duration
		purpose   string
	)
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire a module lock",
		Long: `Attempts to take the named module's lock for an agent.
If another agent holds the lock, the caller is appended to the wait queue
and told its position; queued agents must retry acquisition themselves.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().Acquire(cmd.Context(), lockmgr.AcquireRequest{
				AgentID:           agentID,
				ModuleRef:         moduleRef,
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
	cmd.Flags().StringVar(&agentID, "agent", "", "acquiring agent id")
	cmd.Flags().StringVar(&moduleRef, "module", "", "module name or path containing one")
	cmd.Flags().StringVar(&operation, "operation", string(protocol.OpWrite), "lock operation: read or write")
	cmd.Flags().DurationVar(&duration, "duration", lockmgr.DefaultEstimatedDuration, "estimated hold duration")
	cmd.Flags().StringVar(&purpose, "purpose", "", "human-readable reason for the lock")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("module")
	return cmd
}
