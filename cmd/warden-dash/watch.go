package main

import (
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// fsChangeMsg is sent when a file change is detected in the state dir.
type fsChangeMsg struct{}

// watchDebounce collapses SQLite's multi-file write bursts (db, -wal,
// -shm) into one refresh.
const watchDebounce = 300 * time.Millisecond

// initWatcher creates and initializes a file system watcher for the
// warden state directory. Returns nil if the directory doesn't exist or
// watcher creation fails (the dashboard falls back to polling-only mode).
func initWatcher(dir string) *fsnotify.Watcher {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: failed to watch %s: %v (falling back to polling)", dir, err)
		return nil
	}
	return watcher
}

// runWatcher returns a tea.Cmd that monitors file system events and
// returns fsChangeMsg when changes settle.
func runWatcher(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		debounce := time.NewTimer(watchDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		defer debounce.Stop()

		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				debounce.Reset(watchDebounce)
			case <-debounce.C:
				return fsChangeMsg{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}
