package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"warden/pkg/protocol"
)

// Settings is the config.yaml structure. All fields are optional; zero
// values select defaults.
type Settings struct {
	// GracePeriodMs extends every lock's estimated duration before the
	// expiry sweep considers it stale.
	GracePeriodMs int64 `yaml:"grace_period_ms,omitempty"`
	// DefaultWorker receives subtasks that name no explicit agent.
	DefaultWorker string `yaml:"default_worker,omitempty"`
}

// GracePeriod returns the configured grace period, or the default.
func (s Settings) GracePeriod() time.Duration {
	if s.GracePeriodMs <= 0 {
		return protocol.DefaultGracePeriod
	}
	return time.Duration(s.GracePeriodMs) * time.Millisecond
}

// LoadSettings reads config.yaml from path. A missing file yields zero
// settings (all defaults).
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// starterSettingsYAML is written by `warden init` for the operator to edit.
const starterSettingsYAML = `# warden settings
# grace_period_ms extends every lock's estimated duration before the
# expiry sweep treats it as stale.
grace_period_ms: 120000

# default_worker receives subtasks that name no explicit agent.
default_worker: worker-pool
`
