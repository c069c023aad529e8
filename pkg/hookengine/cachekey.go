package hookengine

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/baseline"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
)

// versionCache memoizes each hook's tool-version probe per process (spec
// §4.2 step 1: "cached per process").
var (
	versionCacheMu sync.Mutex
	versionCache   = map[string]string{}
)

func probeVersion(h Hook) (string, error) {
	if h.Probe == nil {
		return "unknown", nil
	}
	versionCacheMu.Lock()
	if v, ok := versionCache[h.ID]; ok {
		versionCacheMu.Unlock()
		return v, nil
	}
	versionCacheMu.Unlock()

	v, err := h.Probe()
	if err != nil {
		return "", crkerr.Wrapf(crkerr.ClassSubprocess, "version probe for %s: %w", h.ID, err)
	}

	versionCacheMu.Lock()
	versionCache[h.ID] = v
	versionCacheMu.Unlock()
	return v, nil
}

// resetVersionCache clears the per-process version memo; used by tests.
func resetVersionCache() {
	versionCacheMu.Lock()
	defer versionCacheMu.Unlock()
	versionCache = map[string]string{}
}

// fileHash computes the Merkle-like aggregate content hash for files,
// restricted to h.Extensions, as sha256 over the per-file "path:sha256"
// entries, sorted by path (spec §4.2 step 2). Files outside the hook's declared extensions, and
// files that no longer exist, are skipped rather than erroring: a hook's
// cache key should reflect what it actually reads.
func fileHash(h Hook, root string, files []string) (string, error) {
	relevant := make([]string, 0, len(files))
	for _, f := range files {
		if !hasRelevantExtension(h, f) {
			continue
		}
		relevant = append(relevant, f)
	}
	sort.Strings(relevant)

	sums := make([]string, 0, len(relevant))
	for _, f := range relevant {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, f)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", crkerr.Wrapf(crkerr.ClassFilesystem, "hash %s: %w", f, err)
		}
		sum := sha256.Sum256(data)
		sums = append(sums, f+":"+hex.EncodeToString(sum[:]))
	}

	agg := sha256.Sum256([]byte(strings.Join(sums, "|")))
	return hex.EncodeToString(agg[:]), nil
}

func hasRelevantExtension(h Hook, file string) bool {
	if len(h.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(file)
	for _, e := range h.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// cacheKeyFor computes the full cache lookup key for h over files, rooted
// at root (spec §4.2 steps 1-2).
func cacheKeyFor(h Hook, root string, files []string) (baseline.CacheKey, error) {
	version, err := probeVersion(h)
	if err != nil {
		return baseline.CacheKey{}, err
	}
	hash, err := fileHash(h, root, files)
	if err != nil {
		return baseline.CacheKey{}, err
	}
	return baseline.CacheKey{HookID: h.ID, FileHash: hash, ToolVersion: version}, nil
}
