package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/appversion"
)

// newRootCmd creates the root warden command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "warden",
		Short:         "Cooperative resource locking and agent coordination",
		Long:          "warden serializes agent access to named modules and domains,\nand coordinates manager/worker task assignment, failure handling,\nand escalation through a shared persisted state store.",
		Version:       fmt.Sprintf("warden %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newAcquireCmd(),
		newReleaseCmd(),
		newAcquireManagerCmd(),
		newReleaseManagerCmd(),
		newAcquireForWorkerCmd(),
		newStatusCmd(),
		newDeadlockCmd(),
		newForceReleaseCmd(),
		newReleaseAllCmd(),
		newAssignCmd(),
		newBroadcastCmd(),
		newAggregateCmd(),
		newHandleFailureCmd(),
		newEscalateCmd(),
		newCompleteCmd(),
		newManagersCmd(),
		newAuditCmd(),
		newWatchCmd(),
	)

	return cmd
}
