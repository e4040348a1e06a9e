package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"warden/pkg/protocol"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.GracePeriod() != protocol.DefaultGracePeriod {
		t.Errorf("GracePeriod = %v, want default %v", s.GracePeriod(), protocol.DefaultGracePeriod)
	}
	if s.DefaultWorker != "" {
		t.Errorf("DefaultWorker = %q, want empty", s.DefaultWorker)
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "grace_period_ms: 60000\ndefault_worker: batch-pool\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.GracePeriod() != time.Minute {
		t.Errorf("GracePeriod = %v, want 1m", s.GracePeriod())
	}
	if s.DefaultWorker != "batch-pool" {
		t.Errorf("DefaultWorker = %q", s.DefaultWorker)
	}
}

func TestLoadSettingsRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("grace_period_ms: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStarterSettingsParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(starterSettingsYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("starter settings do not parse: %v", err)
	}
	if s.GracePeriod() != protocol.DefaultGracePeriod {
		t.Errorf("starter grace = %v, want %v", s.GracePeriod(), protocol.DefaultGracePeriod)
	}
	if s.DefaultWorker != "worker-pool" {
		t.Errorf("starter default worker = %q", s.DefaultWorker)
	}
}

func TestResolvePathsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WARDEN_HOME", home)
	t.Setenv("WARDEN_DB_PATH", "")
	t.Setenv("WARDEN_REGISTRY_PATH", "")
	t.Setenv("WARDEN_CONFIG_PATH", "")

	p, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if p.WardenHome != home {
		t.Errorf("WardenHome = %q", p.WardenHome)
	}
	if p.StateDBPath != filepath.Join(home, "state.db") {
		t.Errorf("StateDBPath = %q", p.StateDBPath)
	}
	if p.RegistryPath != filepath.Join(home, "registry.toml") {
		t.Errorf("RegistryPath = %q", p.RegistryPath)
	}
	if p.ConfigPath != filepath.Join(home, "config.yaml") {
		t.Errorf("ConfigPath = %q", p.ConfigPath)
	}
}

func TestResolvePathsEnvOverrides(t *testing.T) {
	t.Setenv("WARDEN_HOME", t.TempDir())
	t.Setenv("WARDEN_DB_PATH", "/custom/state.db")
	t.Setenv("WARDEN_REGISTRY_PATH", "/custom/registry.toml")
	t.Setenv("WARDEN_CONFIG_PATH", "/custom/config.yaml")

	p, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if p.StateDBPath != "/custom/state.db" {
		t.Errorf("StateDBPath = %q", p.StateDBPath)
	}
	if p.RegistryPath != "/custom/registry.toml" {
		t.Errorf("RegistryPath = %q", p.RegistryPath)
	}
	if p.ConfigPath != "/custom/config.yaml" {
		t.Errorf("ConfigPath = %q", p.ConfigPath)
	}
}
