package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newForceReleaseCmd creates the "warden force-release" subcommand.
// Privileged bypass for breaking deadlocks: removes one lock by id,
// regardless of holder. Restricted to the primary coordinator.
func newForceReleaseCmd() *cobra.Command {
	var (
		agentID string
		lockID  string
		reason  string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "force-release",
		Short: "Forcibly release one lock by id (primary only)",
		Long: `Removes a module or domain lock by lock id, bypassing holder
authorization. Produces an audit record of what was cleared and why.
Requires an interactive terminal (TTY) or --force with WARDEN_CONFIRMED=1.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &confirmConfig{
				w:      cmd.OutOrStdout(),
				stdin:  os.Stdin,
				isTTY:  isStdinTTY,
				force:  force,
				prompt: "Force-release lock " + lockID + "?",
			}
			if err := confirmDestructive(cfg); err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().ForceRelease(cmd.Context(), agentID, lockID, reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "calling agent id (must be the primary coordinator)")
	cmd.Flags().StringVar(&lockID, "lock-id", "", "lock id to clear")
	cmd.Flags().StringVar(&reason, "reason", "", "why the lock is being cleared")
	cmd.Flags().BoolVar(&force, "force", false, "skip interactive confirmation (requires WARDEN_CONFIRMED=1)")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("lock-id")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// newReleaseAllCmd creates the "warden release-all" subcommand.
func newReleaseAllCmd() *cobra.Command {
	var (
		agentID string
		reason  string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "release-all",
		Short: "Clear all locks and the wait queue (primary only)",
		Long: `Removes every module lock, domain lock, and queue entry, and
produces an audit record of everything cleared. Used to reset state.
Requires an interactive terminal (TTY) or --force with WARDEN_CONFIRMED=1.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &confirmConfig{
				w:      cmd.OutOrStdout(),
				stdin:  os.Stdin,
				isTTY:  isStdinTTY,
				force:  force,
				prompt: "Release ALL locks and clear the queue?",
			}
			if err := confirmDestructive(cfg); err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().ReleaseAll(cmd.Context(), agentID, reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "calling agent id (must be the primary coordinator)")
	cmd.Flags().StringVar(&reason, "reason", "", "why state is being reset")
	cmd.Flags().BoolVar(&force, "force", false, "skip interactive confirmation (requires WARDEN_CONFIRMED=1)")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
