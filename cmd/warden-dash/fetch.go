package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"warden/pkg/coordinator"
	"warden/pkg/docstore"
	"warden/pkg/eventlog"
	"warden/pkg/lockmgr"
	"warden/pkg/protocol"
	"warden/pkg/registry"
)

// Snapshot bundles everything the dashboard renders in one fetch.
type Snapshot struct {
	Locks    *protocol.StatusSnapshot
	Managers *protocol.ManagerStatusSnapshot
	Events   []eventlog.Event
}

// wardenHome returns the state directory from WARDEN_HOME or ~/.warden.
func wardenHome() string {
	if v := os.Getenv("WARDEN_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, protocol.WardenDir)
}

// stateDBPath returns the database path from WARDEN_DB_PATH or the default.
func stateDBPath() string {
	if v := os.Getenv("WARDEN_DB_PATH"); v != "" {
		return v
	}
	return filepath.Join(wardenHome(), "state.db")
}

// fetchSnapshot opens the state database, builds the lock and manager
// projections plus recent audit events, and closes it again. The dashboard
// holds no connection between refreshes.
func fetchSnapshot(ctx context.Context) (*Snapshot, error) {
	dbPath := stateDBPath()
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("state database not found: %w", err)
	}

	db, err := docstore.Open(dbPath, protocol.SchemaDDL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	registryPath := os.Getenv("WARDEN_REGISTRY_PATH")
	if registryPath == "" {
		registryPath = filepath.Join(wardenHome(), "registry.toml")
	}
	reg, err := registry.Load(registryPath)
	if err != nil {
		return nil, err
	}

	store := docstore.NewSQLite(db)
	locks, err := lockmgr.New(store, reg, lockmgr.Options{}).Status(ctx)
	if err != nil {
		return nil, err
	}
	managers, err := coordinator.New(store, coordinator.Options{}).ManagerStatus(ctx)
	if err != nil {
		return nil, err
	}
	events, err := eventlog.New(db).Query(ctx, eventlog.QueryOpts{Limit: 10})
	if err != nil {
		return nil, err
	}

	return &Snapshot{Locks: locks, Managers: managers, Events: events}, nil
}
