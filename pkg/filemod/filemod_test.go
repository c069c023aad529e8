package filemod

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) (*Modifier, string) {
	t.Helper()
	root := t.TempDir()
	backupDir := filepath.Join(t.TempDir(), "backups")
	return New(root, backupDir), root
}

func TestWriteCreatesNewFile(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "new.py")

	res, err := w.Apply(path, []byte("print('hi')\n"), ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", res.BackupPath)
	assert.Equal(t, 12, res.BytesWritten)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(content))
}

func TestWriteOverwritesAndBacksUp(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "existing.py")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	res, err := w.Apply(path, []byte("new content"), ApplyOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, res.BackupPath)

	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(backup))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(current))
}

func TestWriteDryRunSkipsMutation(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "existing.py")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	res, err := w.Apply(path, []byte("new content"), ApplyOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(current))
}

func TestWriteRejectsPathOutsideRoot(t *testing.T) {
	w, _ := newTestWriter(t)
	outside := filepath.Join(t.TempDir(), "escape.py")

	_, err := w.Apply(outside, []byte("x"), ApplyOptions{})
	assert.Error(t, err)
}

func TestWriteRejectsZeroByteTruncationOfExistingFile(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "existing.py")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	_, err := w.Apply(path, []byte{}, ApplyOptions{})
	assert.Error(t, err)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(current), "rejected write must leave file untouched")
}

func TestRollbackRestoresOriginalContent(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "existing.py")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	res, err := w.Apply(path, []byte("modified"), ApplyOptions{})
	require.NoError(t, err)

	require.NoError(t, w.Rollback(path, res.BackupPath))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestRollbackOfNewFileRemovesIt(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "new.py")

	res, err := w.Apply(path, []byte("content"), ApplyOptions{})
	require.NoError(t, err)

	require.NoError(t, w.Rollback(path, res.BackupPath))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentWritesToDistinctFilesDoNotBlockEachOther(t *testing.T) {
	w, root := newTestWriter(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := filepath.Join(root, "file"+string(rune('a'+i))+".py")
			_, err := w.Apply(path, []byte("content"), ApplyOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestConcurrentWritesToSameFileAreSerialized(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "shared.py")
	require.NoError(t, os.WriteFile(path, []byte("init"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := w.Apply(path, []byte("content from writer"), ApplyOptions{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content from writer", string(content))
}

func TestSnapshotBackupDoesNotDuplicateIdenticalContent(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "existing.py")
	require.NoError(t, os.WriteFile(path, []byte("same content"), 0o644))

	res1, err := w.Apply(path, []byte("first change"), ApplyOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("same content"), 0o644))
	res2, err := w.Apply(path, []byte("second change"), ApplyOptions{})
	require.NoError(t, err)

	assert.Equal(t, res1.BackupPath, res2.BackupPath)
}

func TestPruneBackupsKeepsMostRecentOnly(t *testing.T) {
	w, root := newTestWriter(t)
	path := filepath.Join(root, "churned.py")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	for i := 1; i <= 8; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v"+string(rune('0'+i))), 0o644))
		_, err := w.Apply(path, []byte("v"+string(rune('0'+i))+"-new"), ApplyOptions{})
		require.NoError(t, err)
	}

	require.NoError(t, w.PruneBackups(path))

	entries, err := os.ReadDir(w.backupDir)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), w.maxBackups)
}
