package baseline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
)

// Store is the append-only, git-commit-keyed quality history (spec §4.8,
// "baseline.json is append-only in memory, flushed as a whole file on each
// write").
type Store struct {
	mu      sync.Mutex
	path    string
	history []QualityMetrics
}

// LoadStore reads path (an empty/missing file yields an empty Store, per the
// teacher's "corrupted cache is recoverable" idiom).
func LoadStore(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, crkerr.Wrapf(crkerr.ClassFilesystem, "read baseline store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.history); err != nil {
		return s, nil // corrupted baseline file: start fresh rather than fail the run
	}
	return s, nil
}

// Append records m and flushes the full history to disk.
func (s *Store) Append(m QualityMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, m)
	return s.flush()
}

func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "marshal baseline store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write baseline store: %w", err)
	}
	return nil
}

// Latest returns the most recently appended snapshot, if any.
func (s *Store) Latest() (QualityMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return QualityMetrics{}, false
	}
	return s.history[len(s.history)-1], true
}

// ByCommit looks up a previously appended snapshot by commit hash.
func (s *Store) ByCommit(hash string) (QualityMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].CommitHash == hash {
			return s.history[i], true
		}
	}
	return QualityMetrics{}, false
}

// Compare diffs current against the snapshot named by baselineHash (or the
// latest recorded snapshot if baselineHash is empty), per spec §4.8:
// compare(current, baseline_hash?) -> {improvements, regressions, delta}.
func Compare(current QualityMetrics, s *Store, baselineHash string) (Comparison, error) {
	var base QualityMetrics
	var ok bool
	if baselineHash != "" {
		base, ok = s.ByCommit(baselineHash)
		if !ok {
			return Comparison{}, crkerr.Wrapf(crkerr.ClassConfig, "no baseline snapshot for commit %q", baselineHash)
		}
	} else {
		base, ok = s.Latest()
		if !ok {
			// No history yet: current is trivially the baseline, no deltas.
			return Comparison{Delta: map[string]float64{}}, nil
		}
	}

	cmp := Comparison{Delta: map[string]float64{}}
	scalarDelta := func(name string, curr, prev float64, higherIsBetter bool) {
		delta := curr - prev
		cmp.Delta[name] = delta
		if math.Abs(delta) < 1e-9 {
			return
		}
		improved := delta > 0 == higherIsBetter
		if improved {
			cmp.Improvements = append(cmp.Improvements, fmt.Sprintf("%s improved by %.2f", name, math.Abs(delta)))
		} else {
			cmp.Regressions = append(cmp.Regressions, fmt.Sprintf("%s regressed by %.2f", name, math.Abs(delta)))
		}
	}

	scalarDelta("coverage", current.Coverage, base.Coverage, true)
	scalarDelta("test_pass_rate", current.TestPassRate, base.TestPassRate, true)
	scalarDelta("type_error_count", float64(current.TypeErrorCount), float64(base.TypeErrorCount), false)
	scalarDelta("lint_issue_count", float64(current.LintIssueCount), float64(base.LintIssueCount), false)
	scalarDelta("complexity_violations", float64(current.ComplexityViolations), float64(base.ComplexityViolations), false)
	scalarDelta("security_issue_count", float64(current.SecurityIssueCount), float64(base.SecurityIssueCount), false)
	scalarDelta("overall_score", current.OverallScore, base.OverallScore, true)

	return cmp, nil
}
