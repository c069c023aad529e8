// Package hookengine runs crackerjack's quality-tool hooks (spec §4.2, C2):
// a dependency-aware scheduler that runs independent hooks in parallel,
// a Merkle-hash cache key matching pkg/baseline's two-tier cache, and a
// hardened subprocess runner with a one-shot retry policy.
//
// Grounded on githubnext-gh-aw/pkg/workflow's step-dependency handling for
// the mutation-conflict scheduling idea, generalized here from "workflow
// steps" to "hooks that read or mutate overlapping file sets".
package hookengine

import (
	"strings"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/config"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// Parser turns one hook invocation's raw output into classified issues.
// Implementations must tolerate partial output, interleaved progress lines,
// and non-UTF-8 bytes (spec §4.2 "Parsing").
type Parser func(stdout, stderr []byte, exitCode int) ([]issue.Issue, error)

// VersionProbe returns the installed tool's version string, used to key the
// cache so a binary upgrade invalidates stale entries (spec §4.2 step 1).
type VersionProbe func() (string, error)

// Hook is one quality-tool invocation descriptor (spec §4.2).
type Hook struct {
	ID         string
	Command    []string // argv template; "{files}" is expanded per invocation
	Category   config.HookCategory
	ReadsFS    bool
	MutatesFS  bool
	Conflicts  []string
	Extensions []string
	Expensive  bool
	Timeout    time.Duration
	Parser     Parser
	Probe      VersionProbe

	// NoCacheFlag, when non-empty, is appended to the retried invocation
	// after a parse failure (spec §4.2 "Retry": "one retry with
	// --no-cache-style hook-specific flag when available").
	NoCacheFlag string
}

// Argv expands the hook's command template against files: a token containing
// the "{files}" placeholder is replaced by the files as separate arguments
// (and dropped when files is empty). Hooks whose template has no placeholder
// (rare) get files appended instead.
func (h Hook) Argv(files []string) []string {
	joined := strings.Join(files, " ")
	out := make([]string, 0, len(h.Command)+len(files))
	expanded := false
	for _, tok := range h.Command {
		if strings.Contains(tok, "{files}") {
			expanded = true
			if len(files) == 0 {
				continue
			}
			out = append(out, files...)
			continue
		}
		out = append(out, strings.ReplaceAll(tok, "{files}", joined))
	}
	if !expanded {
		out = append(out, files...)
	}
	return out
}

// FromSpec builds a Hook from a declarative config.HookSpec plus the Go
// parser/version-probe registered for its ID, since neither can be expressed
// in YAML (spec §4.2: "each hook carries a parser").
func FromSpec(spec config.HookSpec, parser Parser, probe VersionProbe) Hook {
	timeout := time.Duration(spec.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Hook{
		ID:         spec.ID,
		Command:    append([]string(nil), spec.Command...),
		Category:   spec.Category,
		ReadsFS:    spec.ReadsFS,
		MutatesFS:  spec.MutatesFS,
		Conflicts:  append([]string(nil), spec.Conflicts...),
		Extensions: append([]string(nil), spec.Extensions...),
		Expensive:  spec.Expensive,
		Timeout:    timeout,
		Parser:     parser,
		Probe:      probe,
	}
}

// conflictsWith reports whether two hooks' declared conflicts or
// read/write flags mean they must not run concurrently (spec §4.2
// "dependency graph"): two hooks conflict iff either names the other in its
// Conflicts set, or both touch the filesystem and at least one mutates.
func (h Hook) conflictsWith(other Hook) bool {
	if h.ID == other.ID {
		return false
	}
	for _, id := range h.Conflicts {
		if id == other.ID {
			return true
		}
	}
	for _, id := range other.Conflicts {
		if id == h.ID {
			return true
		}
	}
	if !h.MutatesFS && !other.MutatesFS {
		return false
	}
	touches := func(a Hook) bool { return a.ReadsFS || a.MutatesFS }
	return touches(h) && touches(other)
}
