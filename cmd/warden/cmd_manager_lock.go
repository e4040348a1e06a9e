package main

import (
	"time"

	"github.com/spf13/cobra"

	"warden/pkg/lockmgr"
)

// newAcquireManagerCmd creates the "warden acquire-manager" subcommand.
func newAcquireManagerCmd() *cobra.Command {
	var (
		managerID string
		domain    string
		duration  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "acquire-manager",
		Short: "Acquire a domain lock for a manager",
		Long: `Takes a domain-level lock. Only managers listed in the domain's
authorized-manager set may hold its lock; at most one manager holds a
domain at any time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().AcquireDomain(cmd.Context(), managerID, domain, duration)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "manager agent id")
	cmd.Flags().StringVar(&domain, "domain", "", "domain to lock")
	cmd.Flags().DurationVar(&duration, "duration", lockmgr.DefaultEstimatedDuration, "estimated hold duration")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

// newReleaseManagerCmd creates the "warden release-manager" subcommand.
func newReleaseManagerCmd() *cobra.Command {
	var (
		managerID string
		domain    string
	)
	cmd := &cobra.Command{
		Use:   "release-manager",
		Short: "Release a domain lock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.lockManager().ReleaseDomain(cmd.Context(), managerID, domain)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "manager agent id")
	cmd.Flags().StringVar(&domain, "domain", "", "domain to release")
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}
