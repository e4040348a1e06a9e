package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses bursts of file events (SQLite touches the db,
// -wal and -shm files on every write) into one refresh.
const watchDebounce = 500 * time.Millisecond

// newWatchCmd creates the "warden watch" subcommand.
func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously print the status snapshot on state changes",
		Long: "Re-renders the status snapshot whenever the state directory\nchanges, with a periodic poll as fallback. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return runWatch(cmd.Context(), a, cmd.OutOrStdout(), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "polling fallback interval")
	return cmd
}

// runWatch prints a snapshot immediately, then again on every debounced
// filesystem event or poll tick, until ctx is done.
func runWatch(ctx context.Context, a *app, w io.Writer, interval time.Duration) error {
	printSnapshot := func() {
		snap, err := a.lockManager().Status(ctx)
		if err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
			return
		}
		if err := printJSON(w, snap); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}
	printSnapshot()

	// A watcher failure is not fatal; polling still works.
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := watcher.Add(a.paths.WardenHome); addErr != nil {
			_ = watcher.Close()
			watcher = nil
		}
	} else {
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Close()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	var events <-chan fsnotify.Event
	var errors <-chan error
	if watcher != nil {
		events = watcher.Events
		errors = watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printSnapshot()
		case <-debounce.C:
			printSnapshot()
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			debounce.Reset(watchDebounce)
		case watchErr, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			fmt.Fprintf(w, "warning: watcher: %v\n", watchErr)
		}
	}
}
