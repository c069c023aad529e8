package configmerge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcherDetectsExternalEdit(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("[project]\n"), 0o644))

	cw, err := WatchConfigFiles(manifest)
	require.NoError(t, err)
	defer cw.Close()

	assert.False(t, cw.Stale())

	require.NoError(t, os.WriteFile(manifest, []byte("[project]\nname = \"x\"\n"), 0o644))

	assert.Eventually(t, func() bool { return cw.Stale() }, time.Second, 5*time.Millisecond)

	cw.Reset()
	assert.False(t, cw.Stale())
}
