package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"warden/pkg/coordinator"
)

// newAssignCmd creates the "warden assign" subcommand.
func newAssignCmd() *cobra.Command {
	var (
		managerID    string
		taskSpecs    []string
		subtasksJSON string
	)
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign subtasks to workers",
		Long: `Creates (or reuses) the manager's workflow record and appends one
assignment per subtask. Subtasks come from repeated --task flags in the
form "name" or "name@worker", or from a JSON array via --subtasks.
Assignment is purely additive; other managers' assignments are untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subtasks, err := parseSubtasks(taskSpecs, subtasksJSON)
			if err != nil {
				return err
			}
			if len(subtasks) == 0 {
				return errors.New("at least one --task or a --subtasks array is required")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coordinator().AssignWorkers(cmd.Context(), managerID, subtasks)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&managerID, "manager", "", "assigning manager id")
	cmd.Flags().StringArrayVar(&taskSpecs, "task", nil, `subtask as "name" or "name@worker" (repeatable)`)
	cmd.Flags().StringVar(&subtasksJSON, "subtasks", "", "subtasks as a JSON array")
	_ = cmd.MarkFlagRequired("manager")
	return cmd
}

// parseSubtasks merges --task shorthand specs and the --subtasks JSON array.
func parseSubtasks(specs []string, subtasksJSON string) ([]coordinator.Subtask, error) {
	var subtasks []coordinator.Subtask
	for _, spec := range specs {
		name, worker, _ := strings.Cut(spec, "@")
		if name == "" {
			return nil, fmt.Errorf("invalid --task %q: empty name", spec)
		}
		subtasks = append(subtasks, coordinator.Subtask{Name: name, Agent: worker})
	}
	if subtasksJSON != "" {
		var parsed []coordinator.Subtask
		if err := json.Unmarshal([]byte(subtasksJSON), &parsed); err != nil {
			return nil, fmt.Errorf("parse --subtasks: %w", err)
		}
		subtasks = append(subtasks, parsed...)
	}
	return subtasks, nil
}
