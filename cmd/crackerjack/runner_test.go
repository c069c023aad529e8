package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMinimalConfig(t *testing.T, dir string) (manifest, hookConfig string) {
	t.Helper()
	manifest = filepath.Join(dir, "pyproject.toml")
	hookConfig = filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("[project]\nname = \"demo\"\ncoverage_threshold = 80.0\n"), 0o644))
	require.NoError(t, os.WriteFile(hookConfig, []byte("hooks: []\n"), 0o644))
	return manifest, hookConfig
}

func TestNewReloadingRunnerBuildsAndRuns(t *testing.T) {
	dir := t.TempDir()
	manifest, hookConfig := writeMinimalConfig(t, dir)

	runner, err := newReloadingRunner(dir, manifest, hookConfig)
	require.NoError(t, err)
	defer runner.Close()

	result, err := runner.Run(context.Background(), orchestrator.Options{RunTests: false})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
}

func TestReloadingRunnerReloadsAfterExternalEdit(t *testing.T) {
	dir := t.TempDir()
	manifest, hookConfig := writeMinimalConfig(t, dir)

	runner, err := newReloadingRunner(dir, manifest, hookConfig)
	require.NoError(t, err)
	defer runner.Close()

	require.NoError(t, os.WriteFile(manifest, []byte("[project]\nname = \"demo\"\ncoverage_threshold = 95.0\n"), 0o644))

	assert.Eventually(t, func() bool {
		return runner.watcher != nil && runner.watcher.Stale()
	}, time.Second, 5*time.Millisecond)

	_, err = runner.Run(context.Background(), orchestrator.Options{RunTests: false})
	require.NoError(t, err)
	assert.False(t, runner.watcher.Stale(), "Run should reset the watcher after reloading")
}
