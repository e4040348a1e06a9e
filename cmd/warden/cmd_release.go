package main

import (
	"errors"

	"github.com/spf13/cobra"

	"warden/pkg/lockmgr"
)

// newReleaseCmd creates the "warden release" subcommand.
func newReleaseCmd() *cobra.Command {
	var (
		agentID   string
		moduleRef string
		lockID    string
	)
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release a module lock",
		Long: `Releases a lock located by --lock-id, or by --module plus the
calling agent. Only the lock's holder or the primary coordinator may
release. The next queued waiter is reported but not granted anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if moduleRef == "" && lockID == "" {
				return errors.New("one of --module or --lock-id is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().Release(cmd.Context(), lockmgr.ReleaseRequest{
				AgentID:   agentID,
				ModuleRef: moduleRef,
				LockID:    lockID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "releasing agent id")
	cmd.Flags().StringVar(&moduleRef, "module", "", "module whose lock to release")
	cmd.Flags().StringVar(&lockID, "lock-id", "", "lock id to release")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
