package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the registry.toml structure.
type fileConfig struct {
	PrimaryAgent string                `toml:"primary_agent"`
	Modules      map[string]ModuleInfo `toml:"modules"`
	Domains      map[string]DomainInfo `toml:"domains"`
}

// Load reads a registry.toml overlay from path and merges it over the
// compiled-in defaults. A missing file yields the defaults unchanged.
// Modules and domains declared in the file are added to (or replace) the
// default entries; primary_agent replaces the default identity when set.
func Load(path string) (*Registry, error) {
	reg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	if cfg.PrimaryAgent != "" {
		reg.PrimaryAgent = cfg.PrimaryAgent
	}
	for name, info := range cfg.Modules {
		reg.Modules[name] = info
	}
	for name, info := range cfg.Domains {
		reg.Domains[name] = info
	}
	return reg, nil
}

// StarterTOML renders a registry.toml seeded from the compiled-in defaults,
// written by `warden init` for the operator to edit.
func StarterTOML() string {
	reg := Default()
	var b strings.Builder

	b.WriteString("# warden resource registry\n")
	b.WriteString("# Modules are the lockable units; domains group them under manager teams.\n\n")
	fmt.Fprintf(&b, "primary_agent = %q\n", reg.PrimaryAgent)

	for _, name := range reg.ModuleNames() {
		info := reg.Modules[name]
		fmt.Fprintf(&b, "\n[modules.%q]\n", name)
		fmt.Fprintf(&b, "type = %q\n", info.Type)
		if info.PrimaryOnly {
			b.WriteString("primary_only = true\n")
		}
	}

	for _, name := range reg.DomainNames() {
		info := reg.Domains[name]
		fmt.Fprintf(&b, "\n[domains.%q]\n", name)
		fmt.Fprintf(&b, "description = %q\n", info.Description)
		fmt.Fprintf(&b, "managers = [")
		for i, m := range info.Managers {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", m)
		}
		b.WriteString("]\n")
	}
	return b.String()
}
