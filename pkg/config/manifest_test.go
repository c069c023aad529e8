package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
coverage_threshold = 85.0
test_markers = ["slow", "integration"]

[project]
name = "demo"
version = "1.2.3"

[hook_enabled]
mypy = true
bandit = false
`

func writeTempManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeTempManifest(t, sampleManifest)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Project.Name)
	assert.Equal(t, "1.2.3", m.Project.Version)
	assert.Equal(t, 85.0, m.CoverageThreshold)
	assert.True(t, m.HookEnabled["mypy"])
	assert.False(t, m.HookEnabled["bandit"])
	assert.Equal(t, path, m.Path())
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestLoadManifestParseError(t *testing.T) {
	path := writeTempManifest(t, "not === valid toml [[[")
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestWriteCoverageThresholdRoundTrips(t *testing.T) {
	path := writeTempManifest(t, sampleManifest)

	require.NoError(t, WriteCoverageThreshold(path, 92.5))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 92.5, m.CoverageThreshold)
	assert.Equal(t, "demo", m.Project.Name, "project identity must survive a coverage-threshold write")
}
