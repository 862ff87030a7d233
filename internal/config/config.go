package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"govkernel/internal/api"
)

// fileDefinition is the on-disk shape of a ModuleDefinition.
type fileDefinition struct {
	ID          string              `yaml:"id"`
	Version     string              `yaml:"version"`
	Permissions []filePermission    `yaml:"permissions"`
	Audits      []fileAudit         `yaml:"audits"`
	Properties  map[string]string   `yaml:"properties"`
}

type filePermission struct {
	Pattern string `yaml:"pattern"`
	Access  string `yaml:"access"`
}

type fileAudit struct {
	Pattern string `yaml:"pattern"`
	Action  string `yaml:"action"`
	Enabled bool   `yaml:"enabled"`
}

func (f *fileDefinition) toDefinition() (*api.ModuleDefinition, error) {
	def := &api.ModuleDefinition{
		ID:         api.ModuleId(f.ID),
		Version:    api.Version(f.Version),
		Properties: f.Properties,
	}

	for _, p := range f.Permissions {
		kind, err := parseAccessKind(p.Access)
		if err != nil {
			return nil, fmt.Errorf("permission %q: %w", p.Pattern, err)
		}
		def.Permissions = append(def.Permissions, api.PermissionGrant{Pattern: p.Pattern, AccessKind: kind})
	}
	for _, a := range f.Audits {
		def.Audits = append(def.Audits, api.AuditRule{Pattern: a.Pattern, Action: a.Action, Enabled: a.Enabled})
	}

	if err := api.ValidateModuleId(def.ID); err != nil {
		return nil, err
	}
	if err := api.ValidateVersion(def.Version); err != nil {
		return nil, err
	}
	return def, nil
}

func parseAccessKind(s string) (api.AccessKind, error) {
	switch strings.ToUpper(s) {
	case "", string(api.AccessExecute):
		return api.AccessExecute, nil
	case string(api.AccessRead):
		return api.AccessRead, nil
	case string(api.AccessWrite):
		return api.AccessWrite, nil
	default:
		return "", fmt.Errorf("unknown access kind %q", s)
	}
}

// LoadDefinition reads and parses a single module definition file.
func LoadDefinition(path string) (*api.ModuleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fd fileDefinition
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	def, err := fd.toDefinition()
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return def, nil
}

// LoadDir parses every *.yaml/*.yml file directly under dir into a
// ModuleDefinition, keyed by its ID. A malformed file aborts the whole
// load rather than silently skipping it, since a partially-loaded
// definition set is worse than a loud failure at startup.
func LoadDir(dir string) (map[api.ModuleId]*api.ModuleDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: reading directory %s: %w", dir, err)
	}

	defs := make(map[api.ModuleId]*api.ModuleDefinition)
	for _, e := range entries {
		if e.IsDir() || !isYAMLFile(e.Name()) {
			continue
		}
		def, err := LoadDefinition(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		defs[def.ID] = def
	}
	return defs, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
