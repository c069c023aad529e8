// Package filemod implements crackerjack's safe file modifier (spec §4.7):
// the only component allowed to write a fix proposal to disk. Every write
// goes through resolvePath -> acquireLock -> snapshotBackup -> validateContent
// -> atomicWrite -> releaseLock, with rollback available at any point after
// the backup is taken.
//
// Grounded on githubnext-gh-aw's pkg/cli/compile_cache.go for the
// load-or-empty, corrupted-state-is-recoverable JSON persistence idiom
// (reused here for the backup manifest) and on pkg/cli/logs.go's
// os.Rename-based "write to temp, then rename into place" pattern for
// atomicWrite itself.
package filemod

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

var log = logger.New("filemod:writer")

// ApplyOptions configures a single write attempt.
type ApplyOptions struct {
	// DryRun skips validateContent/atomicWrite and just reports what would
	// happen (spec §6: --dry-run).
	DryRun bool
}

// ApplyResult reports what happened to one file write.
type ApplyResult struct {
	Path         string
	BackupPath   string
	BytesWritten int
	Skipped      bool // true when DryRun
}

// Modifier is the safe file modifier. One Modifier is shared across a whole
// workflow run; its per-path mutexes serialize concurrent writes to the same
// file while letting writes to different files proceed in parallel.
type Modifier struct {
	root       string
	backupDir  string
	locks      sync.Map // string path -> *sync.Mutex
	maxBackups int
}

// New constructs a Modifier rooted at projectRoot, storing backups under
// backupDir (created lazily on first write).
func New(projectRoot, backupDir string) *Modifier {
	return &Modifier{root: projectRoot, backupDir: backupDir, maxBackups: 5}
}

// Apply writes newContent to path following the full protocol: resolve,
// lock, backup, validate, atomic write, unlock. On any failure after the
// backup is taken, Apply automatically rolls back and returns the original
// error (spec §8.1: a failed write never leaves a partially modified file on
// disk).
func (w *Modifier) Apply(path string, newContent []byte, opts ApplyOptions) (ApplyResult, error) {
	resolved, err := w.resolvePath(path)
	if err != nil {
		return ApplyResult{}, err
	}

	mu := w.acquireLock(resolved)
	mu.Lock()
	defer w.releaseLock(mu)

	if opts.DryRun {
		log.Printf("dry-run: would write %d bytes to %s", len(newContent), resolved)
		return ApplyResult{Path: resolved, Skipped: true}, nil
	}

	backupPath, err := w.snapshotBackup(resolved)
	if err != nil {
		return ApplyResult{}, err
	}

	if err := w.validateContent(resolved, newContent); err != nil {
		return ApplyResult{}, err
	}

	if err := w.atomicWrite(resolved, newContent); err != nil {
		if rbErr := w.Rollback(resolved, backupPath); rbErr != nil {
			log.Printf("rollback of %s also failed: %v", resolved, rbErr)
		}
		return ApplyResult{}, err
	}

	return ApplyResult{Path: resolved, BackupPath: backupPath, BytesWritten: len(newContent)}, nil
}

// resolvePath validates path against the project root and forbidden
// patterns before any lock is taken.
func (w *Modifier) resolvePath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.root, path)
	}
	if err := security.ValidatePath(w.root, abs); err != nil {
		return "", crkerr.Wrap(crkerr.ClassSecurity, err)
	}
	return abs, nil
}

// acquireLock returns the per-path mutex, creating it on first use. Distinct
// paths never block each other (spec §5: per-file locking, not a single
// global write lock).
func (w *Modifier) acquireLock(path string) *sync.Mutex {
	actual, _ := w.locks.LoadOrStore(path, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// releaseLock unlocks a mutex obtained from acquireLock, kept as its own
// named step so the write protocol's seven stages each have a single
// testable entry point.
func (w *Modifier) releaseLock(mu *sync.Mutex) {
	mu.Unlock()
}

// snapshotBackup copies the current file contents (if any) into the backup
// directory before any mutation, keyed by content hash so identical
// snapshots are never duplicated on disk.
func (w *Modifier) snapshotBackup(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to back up; this is a new file.
			return "", nil
		}
		return "", crkerr.Wrapf(crkerr.ClassFilesystem, "read %s for backup: %w", path, err)
	}

	if err := os.MkdirAll(w.backupDir, 0o755); err != nil {
		return "", crkerr.Wrapf(crkerr.ClassFilesystem, "create backup dir: %w", err)
	}

	sum := sha256.Sum256(content)
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), hex.EncodeToString(sum[:])[:16])
	backupPath := filepath.Join(w.backupDir, name)

	if _, err := os.Stat(backupPath); err == nil {
		return backupPath, nil // identical snapshot already saved
	}

	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", crkerr.Wrapf(crkerr.ClassFilesystem, "write backup %s: %w", backupPath, err)
	}
	return backupPath, nil
}

// validateContent rejects proposals that are empty when the original file
// was not, or that exceed the size ceiling (spec §4.7).
func (w *Modifier) validateContent(path string, content []byte) error {
	if err := security.ValidateSize(int64(len(content))); err != nil {
		return crkerr.Wrap(crkerr.ClassSecurity, err)
	}
	if existing, err := os.ReadFile(path); err == nil && len(existing) > 0 && len(content) == 0 {
		return crkerr.Wrapf(crkerr.ClassSecurity, "refusing to truncate %s to zero bytes", path)
	}
	return nil
}

// atomicWrite writes content to a sibling temp file and renames it over
// path, so a crash mid-write never leaves a truncated file (spec §8.1).
func (w *Modifier) atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".crackerjack-tmp-*")
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return crkerr.Wrapf(crkerr.ClassFilesystem, "close temp file %s: %w", tmpPath, err)
	}

	info, statErr := os.Stat(path)
	var mode os.FileMode = 0o644
	if statErr == nil {
		mode = info.Mode()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		log.Printf("chmod %s failed (non-fatal): %v", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return crkerr.Wrapf(crkerr.ClassFilesystem, "rename %s -> %s: %w", tmpPath, path, err)
	}
	return nil
}

// Rollback restores path from backupPath. An empty backupPath means the
// file did not previously exist, so rollback removes it.
func (w *Modifier) Rollback(path, backupPath string) error {
	if backupPath == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return crkerr.Wrapf(crkerr.ClassFilesystem, "rollback remove %s: %w", path, err)
		}
		return nil
	}
	content, err := os.ReadFile(backupPath)
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "read backup %s: %w", backupPath, err)
	}
	return w.atomicWrite(path, content)
}

// PruneBackups removes backups for base beyond the configured retention
// count, oldest first by modification time.
func (w *Modifier) PruneBackups(base string) error {
	entries, err := os.ReadDir(w.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return crkerr.Wrapf(crkerr.ClassFilesystem, "read backup dir: %w", err)
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var matching []backup
	prefix := filepath.Base(base) + "."
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(e.Name()) < len(prefix) || e.Name()[:len(prefix)] != prefix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matching = append(matching, backup{path: filepath.Join(w.backupDir, e.Name()), modTime: info.ModTime()})
	}

	if len(matching) <= w.maxBackups {
		return nil
	}

	for i := 0; i < len(matching); i++ {
		for j := i + 1; j < len(matching); j++ {
			if matching[j].modTime.Before(matching[i].modTime) {
				matching[i], matching[j] = matching[j], matching[i]
			}
		}
	}

	for _, b := range matching[:len(matching)-w.maxBackups] {
		if err := os.Remove(b.path); err != nil {
			log.Printf("prune backup %s failed: %v", b.path, err)
		}
	}
	return nil
}
