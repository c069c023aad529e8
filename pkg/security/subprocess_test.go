package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubprocessRunCapturesStdout(t *testing.T) {
	root := t.TempDir()
	sp := NewSubprocess(root)

	res, err := sp.Run(context.Background(), []string{"echo", "hello"}, SubprocessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "hello")
}

func TestSubprocessRunRejectsEmptyArgv(t *testing.T) {
	sp := NewSubprocess(t.TempDir())
	_, err := sp.Run(context.Background(), nil, SubprocessOptions{})
	assert.Error(t, err)
}

func TestSubprocessRunRejectsDirOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	sp := NewSubprocess(root)

	_, err := sp.Run(context.Background(), []string{"true"}, SubprocessOptions{Dir: outside})
	assert.Error(t, err)
}

func TestSubprocessRunRejectsUnresolvableBinary(t *testing.T) {
	sp := NewSubprocess(t.TempDir())
	_, err := sp.Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, SubprocessOptions{})
	assert.Error(t, err)
}

func TestSubprocessRunTimesOutAndKills(t *testing.T) {
	root := t.TempDir()
	sp := NewSubprocess(root)

	_, err := sp.Run(context.Background(), []string{"sleep", "5"}, SubprocessOptions{
		Timeout:   50 * time.Millisecond,
		GraceKill: 50 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestSubprocessRunNonZeroExit(t *testing.T) {
	root := t.TempDir()
	sp := NewSubprocess(root)

	res, err := sp.Run(context.Background(), []string{"false"}, SubprocessOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestSanitizedEnvDropsUnlistedKeys(t *testing.T) {
	t.Setenv("PATH", os.Getenv("PATH"))
	t.Setenv("CRACKERJACK_SECRET_TOKEN", "super-secret")

	env := sanitizedEnv(nil)
	for _, kv := range env {
		assert.NotContains(t, kv, "CRACKERJACK_SECRET_TOKEN")
	}
}

func TestSanitizedEnvIncludesExtra(t *testing.T) {
	env := sanitizedEnv([]string{"CRACKERJACK_RUN_ID=abc123"})
	found := false
	for _, kv := range env {
		if kv == "CRACKERJACK_RUN_ID=abc123" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSubprocessRunUsesProjectRootByDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.txt"), []byte("x"), 0o644))
	sp := NewSubprocess(root)

	res, err := sp.Run(context.Background(), []string{"ls"}, SubprocessOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "marker.txt")
}
