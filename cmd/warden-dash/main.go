// Package main implements the warden-dash interactive dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	robot := flag.Bool("robot", false, "print a JSON snapshot and exit (no TUI)")
	flag.Parse()

	if *robot {
		data, err := robotSnapshot(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}

// robotSnapshot outputs a JSON snapshot of locks and managers for scripts.
func robotSnapshot(ctx context.Context) ([]byte, error) {
	snap, err := fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(map[string]any{
		"locks":    snap.Locks,
		"managers": snap.Managers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}
