package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/crackerjack-go/crackerjack/pkg/logger"
)

var pathLog = logger.New("security:path")

// MaxFileSize is the default write-size ceiling (spec §4.7: 10 MiB).
const MaxFileSize = 10 * 1024 * 1024

// forbiddenPatterns reject writes to credential/internal files (spec §4.7).
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|/)\.git(/|$)`),
	regexp.MustCompile(`(^|/)\.env(\..*)?$`),
	regexp.MustCompile(`\.pem$`),
	regexp.MustCompile(`\.key$`),
	regexp.MustCompile(`(^|/)id_rsa(\.pub)?$`),
	regexp.MustCompile(`(^|/)\.netrc$`),
	regexp.MustCompile(`(^|/)credentials(\.json)?$`),
	regexp.MustCompile(`(^|/)secrets?\.(ya?ml|json|toml)$`),
}

// ValidatePath resolves path relative to root and rejects it if it escapes
// root, if any path component (not just the final target) is a symlink, or
// if it matches a forbidden pattern (spec §4.7 step 1, §8.8).
func ValidatePath(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes project root %q", path, root)
	}

	for _, pat := range forbiddenPatterns {
		if pat.MatchString(filepath.ToSlash(rel)) {
			return fmt.Errorf("path %q matches forbidden pattern %s", path, pat.String())
		}
	}

	if err := rejectSymlinkAncestry(absRoot, absPath); err != nil {
		return err
	}
	return nil
}

// rejectSymlinkAncestry walks every component between root and path,
// refusing to follow (or write through) any symlink, direct or ancestral
// (spec §4.7 step 1, §8.8).
func rejectSymlinkAncestry(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	current := root
	for _, part := range parts {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				// Not-yet-created components (the file being written) are fine.
				continue
			}
			return fmt.Errorf("stat %s: %w", current, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			pathLog.Printf("Rejecting write through symlink at %s", current)
			return fmt.Errorf("path component %q is a symlink, refusing to follow", current)
		}
	}
	return nil
}

// ValidateSize rejects content larger than MaxFileSize (spec §4.7).
func ValidateSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("content size %d exceeds max %d bytes", size, MaxFileSize)
	}
	return nil
}
