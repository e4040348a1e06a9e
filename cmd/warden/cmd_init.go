package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"warden/pkg/docstore"
	"warden/pkg/protocol"
	"warden/pkg/registry"
)

// newInitCmd creates the "warden init" subcommand.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the state directory, registry, settings, and database",
		Long: "Creates $WARDEN_HOME, writes a starter registry.toml and config.yaml\n(existing files are left untouched), and applies the database schema.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			out := cmd.OutOrStdout()

			if err := os.MkdirAll(paths.WardenHome, 0o755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}
			fmt.Fprintf(out, "state dir: %s\n", paths.WardenHome)

			if err := writeIfMissing(paths.RegistryPath, registry.StarterTOML()); err != nil {
				return err
			}
			fmt.Fprintf(out, "registry:  %s\n", paths.RegistryPath)

			if err := writeIfMissing(paths.ConfigPath, starterSettingsYAML); err != nil {
				return err
			}
			fmt.Fprintf(out, "settings:  %s\n", paths.ConfigPath)

			db, err := docstore.Open(paths.StateDBPath, protocol.SchemaDDL)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(out, "database:  %s\n", paths.StateDBPath)
			return nil
		},
	}
}

// writeIfMissing creates path with content unless it already exists.
func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
