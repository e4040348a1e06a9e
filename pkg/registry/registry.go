// Package registry holds the static catalog of lockable units: modules,
// domains, the canonical acquisition ordering, and the primary coordinator
// identity. The catalog ships with compiled-in defaults and is overlaid by
// an optional TOML file (see Load).
package registry

import (
	"sort"
	"strings"
)

// ModuleInfo describes one lockable module.
type ModuleInfo struct {
	// Type is a free-form classification (service, library, schema, ...).
	Type string `toml:"type"`
	// PrimaryOnly restricts acquisition to the primary coordinator.
	PrimaryOnly bool `toml:"primary_only"`
}

// DomainInfo describes one lockable domain: a higher-level scope governing
// several managers' joint access to a category of modules.
type DomainInfo struct {
	Description string   `toml:"description"`
	Managers    []string `toml:"managers"`
}

// Registry is the resolved catalog. Immutable after Load.
type Registry struct {
	// PrimaryAgent is the distinguished agent id allowed to acquire
	// primary-only modules and to force-release locks.
	PrimaryAgent string
	Modules      map[string]ModuleInfo
	Domains      map[string]DomainInfo
}

// Default returns the compiled-in catalog. Deployments are expected to
// replace modules and domains via registry.toml; the defaults exist so a
// fresh install is usable out of the box.
func Default() *Registry {
	return &Registry{
		PrimaryAgent: "primary",
		Modules: map[string]ModuleInfo{
			"api":        {Type: "service"},
			"core":       {Type: "library"},
			"storage":    {Type: "service"},
			"ui":         {Type: "frontend"},
			"docs":       {Type: "content"},
			"migrations": {Type: "schema", PrimaryOnly: true},
			"release":    {Type: "pipeline", PrimaryOnly: true},
		},
		Domains: map[string]DomainInfo{
			"backend": {
				Description: "api, core and storage modules",
				Managers:    []string{"manager-backend"},
			},
			"frontend": {
				Description: "ui and docs modules",
				Managers:    []string{"manager-frontend"},
			},
			"infra": {
				Description: "schema and release pipeline",
				Managers:    []string{"manager-infra"},
			},
		},
	}
}

// Resolve maps a module reference to a registered module name. Exact match
// wins; otherwise ref is treated as a path and each segment is compared
// case-insensitively against the known module names. Raw substring matching
// is deliberately not supported: a module name embedded in a longer path
// segment does not match.
func (r *Registry) Resolve(ref string) (string, ModuleInfo, bool) {
	if info, ok := r.Modules[ref]; ok {
		return ref, info, true
	}
	for _, seg := range strings.Split(ref, "/") {
		if seg == "" {
			continue
		}
		for name, info := range r.Modules {
			if strings.EqualFold(seg, name) {
				return name, info, true
			}
		}
	}
	return "", ModuleInfo{}, false
}

// Domain looks up a domain by exact name.
func (r *Registry) Domain(name string) (DomainInfo, bool) {
	info, ok := r.Domains[name]
	return info, ok
}

// IsAuthorizedManager reports whether managerID appears in the domain's
// authorized-manager set. Unknown domains authorize nobody.
func (r *Registry) IsAuthorizedManager(domain, managerID string) bool {
	info, ok := r.Domains[domain]
	if !ok {
		return false
	}
	for _, m := range info.Managers {
		if m == managerID {
			return true
		}
	}
	return false
}

// IsPrimary reports whether agentID is the primary coordinator.
func (r *Registry) IsPrimary(agentID string) bool {
	return agentID != "" && agentID == r.PrimaryAgent
}

// CanonicalOrder returns the advisory lock-acquisition ordering: module
// names sorted lexicographically. Agents that acquire multiple modules are
// expected to do so in this order to avoid deadlock by convention.
func (r *Registry) CanonicalOrder() []string {
	names := make([]string, 0, len(r.Modules))
	for name := range r.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModuleNames returns the registered module names, sorted.
func (r *Registry) ModuleNames() []string {
	return r.CanonicalOrder()
}

// DomainNames returns the registered domain names, sorted.
func (r *Registry) DomainNames() []string {
	names := make([]string, 0, len(r.Domains))
	for name := range r.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
