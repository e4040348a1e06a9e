package main

import (
	"fmt"
	"os"
	"path/filepath"

	"warden/pkg/protocol"
)

// Paths holds all resolved warden state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	WardenHome   string // ~/.warden or WARDEN_HOME
	StateDBPath  string // state.db or WARDEN_DB_PATH
	RegistryPath string // registry.toml or WARDEN_REGISTRY_PATH
	ConfigPath   string // config.yaml or WARDEN_CONFIG_PATH
}

// ResolvePaths returns all warden paths, respecting env var overrides.
// Environment variables:
//   - WARDEN_HOME: base directory for all warden state (default: ~/.warden)
//   - WARDEN_DB_PATH: state database (default: $WARDEN_HOME/state.db)
//   - WARDEN_REGISTRY_PATH: resource registry (default: $WARDEN_HOME/registry.toml)
//   - WARDEN_CONFIG_PATH: settings file (default: $WARDEN_HOME/config.yaml)
func ResolvePaths() (*Paths, error) {
	home, err := resolveWardenHome()
	if err != nil {
		return nil, err
	}
	return &Paths{
		WardenHome:   home,
		StateDBPath:  resolvePathWithEnv("WARDEN_DB_PATH", home, "state.db"),
		RegistryPath: resolvePathWithEnv("WARDEN_REGISTRY_PATH", home, "registry.toml"),
		ConfigPath:   resolvePathWithEnv("WARDEN_CONFIG_PATH", home, "config.yaml"),
	}, nil
}

// resolveWardenHome returns the state directory from WARDEN_HOME or ~/.warden.
func resolveWardenHome() (string, error) {
	if v := os.Getenv("WARDEN_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.WardenDir), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
