package main

import (
	"time"

	"github.com/spf13/cobra"

	"warden/pkg/eventlog"
)

// newAuditCmd creates the "warden audit" subcommand.
func newAuditCmd() *cobra.Command {
	var (
		agentID   string
		eventType string
		since     time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit event log",
		Long:  "Lists audit events (acquisitions, releases, force releases,\nescalations, recoveries), newest first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := eventlog.QueryOpts{
				AgentID:   agentID,
				EventType: eventType,
				Limit:     limit,
			}
			if since > 0 {
				after := time.Now().Add(-since)
				opts.After = &after
			}

			events, err := a.events.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if events == nil {
				events = []eventlog.Event{}
			}
			return printJSON(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "filter by agent id")
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this age (e.g. 1h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum events to return (0 = no limit)")
	return cmd
}
