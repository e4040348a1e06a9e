package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"warden/pkg/protocol"
)

// newAggregateCmd creates the "warden aggregate" subcommand.
func newAggregateCmd() *cobra.Command {
	var (
		managerID   string
		resultsJSON string
	)
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate worker results into an overall status",
		Long: `Classifies a batch of worker results (completed, failed,
in_progress, pending) into success/failure buckets, an overall status,
and a progress percentage. Pass the results as a JSON array via
--results, or "-" to read the array from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := resultsJSON
			if raw == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read results from stdin: %w", err)
				}
				raw = string(data)
			}
			var results []protocol.WorkerResult
			if err := json.Unmarshal([]byte(raw), &results); err != nil {
				return fmt.Errorf("parse --results: %w", err)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(cmd.OutOrStdout(), a.coordinator().Aggregate(managerID, results))
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "aggregating manager id")
	cmd.Flags().StringVar(&resultsJSON, "results", "", `worker results as a JSON array, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("manager")
	_ = cmd.MarkFlagRequired("results")
	return cmd
}
