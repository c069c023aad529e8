package config

import (
	"os"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/goccy/go-yaml"
)

var hooksLog = logger.New("config:hooks")

// HookCategory mirrors hookengine.Category without importing it, to keep
// config a leaf package with no dependency on the engine it configures.
type HookCategory string

const (
	CategoryFast          HookCategory = "fast"
	CategoryComprehensive HookCategory = "comprehensive"
)

// HookSpec is one hook's declarative configuration (spec §4.2): id, argv
// template, category, filesystem touch declarations, conflicts, and timeout.
type HookSpec struct {
	ID          string       `yaml:"id"`
	Command     []string     `yaml:"command"`
	Category    HookCategory `yaml:"category"`
	ReadsFS     bool         `yaml:"reads_fs"`
	MutatesFS   bool         `yaml:"mutates_fs"`
	Conflicts   []string     `yaml:"conflicts"`
	Extensions  []string     `yaml:"extensions"`
	Expensive   bool         `yaml:"expensive"`
	TimeoutSecs int          `yaml:"timeout_seconds"`
	Enabled     bool         `yaml:"enabled"`
}

// HookConfig is the parsed hook-configuration file (spec §6: read-only during
// a run, merged at init time only).
type HookConfig struct {
	Hooks []HookSpec `yaml:"hooks"`
}

// LoadHookConfig parses the YAML hook configuration at path.
func LoadHookConfig(path string) (*HookConfig, error) {
	hooksLog.Printf("Loading hook config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "read hook config %s: %w", path, err)
	}

	var cfg HookConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "parse hook config %s: %w", path, err)
	}

	hooksLog.Printf("Loaded %d hook specs from %s", len(cfg.Hooks), path)
	return &cfg, nil
}

// DefaultHookConfig returns crackerjack's built-in Python-tooling hook set.
// LoadHookConfig does not fall back to it: a missing hook-configuration file
// is still a config error, and callers use this set explicitly. Commands shell
// out to the standard Python quality-tool binaries by name; they are never
// imported as Go packages (spec §4.2, §9 — hooks run as external processes).
func DefaultHookConfig() *HookConfig {
	return &HookConfig{
		Hooks: []HookSpec{
			{ID: "ruff-format", Command: []string{"ruff", "format", "{files}"}, Category: CategoryFast, MutatesFS: true, Extensions: []string{".py"}, TimeoutSecs: 60, Enabled: true},
			{ID: "ruff-check", Command: []string{"ruff", "check", "{files}"}, Category: CategoryFast, ReadsFS: true, Conflicts: []string{"ruff-format"}, Extensions: []string{".py"}, TimeoutSecs: 60, Enabled: true},
			{ID: "isort", Command: []string{"isort", "{files}"}, Category: CategoryFast, MutatesFS: true, Extensions: []string{".py"}, TimeoutSecs: 60, Enabled: true},
			{ID: "mypy", Command: []string{"mypy", "{files}"}, Category: CategoryComprehensive, ReadsFS: true, Extensions: []string{".py"}, Expensive: true, TimeoutSecs: 300, Enabled: true},
			{ID: "bandit", Command: []string{"bandit", "-r", "{files}"}, Category: CategoryComprehensive, ReadsFS: true, Extensions: []string{".py"}, Expensive: true, TimeoutSecs: 300, Enabled: true},
			{ID: "radon", Command: []string{"radon", "cc", "{files}"}, Category: CategoryComprehensive, ReadsFS: true, Extensions: []string{".py"}, Expensive: true, TimeoutSecs: 120, Enabled: true},
			{ID: "vulture", Command: []string{"vulture", "{files}"}, Category: CategoryComprehensive, ReadsFS: true, Extensions: []string{".py"}, Expensive: true, TimeoutSecs: 120, Enabled: true},
		},
	}
}
