// Package configmerge implements the merge operation crackerjack applies to a
// project's .gitignore: merging a sentinel-marked block idempotently (spec
// §4.10, §8.10). It has no smart manifest merge; the only manifest write is
// config.WriteCoverageThreshold.
//
// Grounded on githubnext-gh-aw's pkg/cli/git.go (ensureGitAttributes): read
// existing lines, search for the managed entry, append only if absent,
// write back — the same idempotent text-block merge used here for
// .gitignore, generalized from a single line to a marker-delimited block.
package configmerge

import (
	"os"
	"strings"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
)

const (
	beginMarker = "# >>> crackerjack managed block >>>"
	endMarker   = "# <<< crackerjack managed block <<<"
)

// DefaultGitignoreEntries are the paths crackerjack's own cache/backup
// directories need ignored.
var DefaultGitignoreEntries = []string{
	".crackerjack-cache/",
	".crackerjack-backups/",
	"*.crackerjack-tmp-*",
}

// MergeGitignore ensures path contains a single managed block with entries,
// replacing any previously managed block in place and leaving everything
// else in the file untouched. Calling it twice with the same entries is a
// no-op on the second call (spec §8.10: idempotent merge).
func MergeGitignore(path string, entries []string) error {
	var lines []string
	if content, err := os.ReadFile(path); err == nil {
		lines = strings.Split(string(content), "\n")
	} else if !os.IsNotExist(err) {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "read %s: %w", path, err)
	}

	block := buildBlock(entries)
	newLines, replaced := replaceManagedBlock(lines, block)
	if !replaced {
		if len(newLines) > 0 && newLines[len(newLines)-1] != "" {
			newLines = append(newLines, "")
		}
		newLines = append(newLines, block...)
	}

	content := strings.Join(newLines, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write %s: %w", path, err)
	}
	return nil
}

func buildBlock(entries []string) []string {
	block := make([]string, 0, len(entries)+2)
	block = append(block, beginMarker)
	block = append(block, entries...)
	block = append(block, endMarker)
	return block
}

// replaceManagedBlock finds an existing begin/end marker pair in lines and
// replaces its contents with block, returning (result, true). If no marker
// pair is found it returns (lines, false) unchanged.
func replaceManagedBlock(lines []string, block []string) ([]string, bool) {
	start := -1
	end := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == beginMarker {
			start = i
		}
		if trimmed == endMarker && start != -1 {
			end = i
			break
		}
	}
	if start == -1 || end == -1 {
		return lines, false
	}
	out := make([]string, 0, len(lines)-(end-start+1)+len(block))
	out = append(out, lines[:start]...)
	out = append(out, block...)
	out = append(out, lines[end+1:]...)
	return out, true
}
