// Package config loads crackerjack's three configuration surfaces (spec §6):
// the project manifest (TOML), hook configuration (YAML), and environment
// variables (read once at init). Grounded on the teacher's own config
// loading style in githubnext-gh-aw/pkg/cli/compile_cache.go (load-or-default,
// corrupted-file-is-recoverable) generalized to a strongly typed manifest.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
)

var manifestLog = logger.New("config:manifest")

// DependencyGroup is a named set of package dependencies in the manifest.
type DependencyGroup struct {
	Name         string   `toml:"name"`
	Dependencies []string `toml:"dependencies"`
}

// Project holds the `[project]` scalar identity fields that smart-merge must
// never overwrite (spec §4.10, §8.9).
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ToolSection is an opaque per-tool configuration block (e.g. `[tool.ruff]`),
// kept as a generic map since crackerjack does not need to understand every
// tool's schema, only merge and pass it through.
type ToolSection map[string]any

// Manifest is the parsed project manifest (spec §6: "dependency groups, tool
// sections, test markers, coverage threshold, hook enable/disable flags").
type Manifest struct {
	Project            Project                `toml:"project"`
	DependencyGroups    []DependencyGroup      `toml:"dependency_groups"`
	Tool               map[string]ToolSection `toml:"tool"`
	TestMarkers        []string               `toml:"test_markers"`
	CoverageThreshold  float64                `toml:"coverage_threshold"`
	HookEnabled        map[string]bool        `toml:"hook_enabled"`

	path string
}

// LoadManifest parses the project manifest at path. A missing file is a
// config error (fatal per spec §7); a parse error is likewise fatal, since
// the orchestrator cannot proceed without a coverage threshold / hook set.
func LoadManifest(path string) (*Manifest, error) {
	manifestLog.Printf("Loading manifest from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "parse manifest %s: %w", path, err)
	}
	m.path = path
	manifestLog.Printf("Loaded manifest: project=%s coverage_threshold=%.1f", m.Project.Name, m.CoverageThreshold)
	return &m, nil
}

// WriteCoverageThreshold persists only the coverage threshold field back to
// the manifest file (spec §6: "Writes back only the coverage threshold (by
// C9)"). It round-trips the rest of the file unchanged by re-parsing the raw
// TOML as a generic table, patching one key, and re-encoding.
func WriteCoverageThreshold(path string, threshold float64) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassConfig, "read manifest %s: %w", path, err)
	}

	var generic map[string]any
	if err := toml.Unmarshal(raw, &generic); err != nil {
		return crkerr.Wrapf(crkerr.ClassConfig, "parse manifest %s: %w", path, err)
	}
	generic["coverage_threshold"] = threshold

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "open manifest %s for write: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(generic); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "encode manifest %s: %w", path, err)
	}
	manifestLog.Printf("Updated coverage threshold to %.1f in %s", threshold, path)
	return nil
}

// Path returns the filesystem path this manifest was loaded from.
func (m *Manifest) Path() string { return m.path }
