package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathAcceptsInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	assert.NoError(t, ValidatePath(root, filepath.Join(root, "src", "main.py")))
}

func TestValidatePathRejectsEscape(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "elsewhere.py")
	assert.Error(t, ValidatePath(root, outside))
}

func TestValidatePathRejectsForbiddenPattern(t *testing.T) {
	root := t.TempDir()
	cases := []string{
		filepath.Join(root, ".git", "config"),
		filepath.Join(root, ".env"),
		filepath.Join(root, "id_rsa"),
		filepath.Join(root, "server.pem"),
		filepath.Join(root, "secrets.yaml"),
	}
	for _, c := range cases {
		assert.Error(t, ValidatePath(root, c), "expected %s to be rejected", c)
	}
}

func TestValidatePathRejectsSymlinkAncestor(t *testing.T) {
	root := t.TempDir()
	realDir := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(realDir, 0o755))

	outsideDir := t.TempDir()
	linkedDir := filepath.Join(root, "linked")
	require.NoError(t, os.Symlink(outsideDir, linkedDir))

	assert.Error(t, ValidatePath(root, filepath.Join(linkedDir, "file.py")))
}

func TestValidatePathRejectsDirectSymlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.py")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(root, "link.py")
	require.NoError(t, os.Symlink(target, link))

	assert.Error(t, ValidatePath(root, link))
}

func TestValidateSize(t *testing.T) {
	assert.NoError(t, ValidateSize(1024))
	assert.Error(t, ValidateSize(MaxFileSize+1))
}
