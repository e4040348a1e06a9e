package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"warden/pkg/coordinator"
	"warden/pkg/docstore"
	"warden/pkg/eventlog"
	"warden/pkg/lockmgr"
	"warden/pkg/protocol"
	"warden/pkg/registry"
)

// app wires the shared dependencies of every subcommand: resolved paths,
// the state database, the document store, the audit log, the registry,
// and settings. Commands build it per invocation and Close it when done.
type app struct {
	paths    *Paths
	db       *sql.DB
	store    *docstore.SQLite
	events   *eventlog.Log
	reg      *registry.Registry
	settings Settings
}

// openApp resolves paths, opens the state database (creating the state
// directory and schema as needed), and loads registry + settings.
func openApp() (*app, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := os.MkdirAll(paths.WardenHome, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := docstore.Open(paths.StateDBPath, protocol.SchemaDDL)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	reg, err := registry.Load(paths.RegistryPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	settings, err := LoadSettings(paths.ConfigPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		paths:    paths,
		db:       db,
		store:    docstore.NewSQLite(db),
		events:   eventlog.New(db),
		reg:      reg,
		settings: settings,
	}, nil
}

// Close releases the database connection.
func (a *app) Close() error {
	return a.db.Close()
}

// lockManager builds the lock manager over the app's store and registry.
func (a *app) lockManager() *lockmgr.Manager {
	return lockmgr.New(a.store, a.reg, lockmgr.Options{
		Grace:  a.settings.GracePeriod(),
		Events: a.events,
	})
}

// coordinator builds the manager coordinator over the app's store.
func (a *app) coordinator() *coordinator.Coordinator {
	return coordinator.New(a.store, coordinator.Options{
		Events:        a.events,
		DefaultWorker: a.settings.DefaultWorker,
	})
}

// printJSON writes v as indented JSON. Every operation result, success or
// failure, is rendered this way; failure codes never become process errors.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
