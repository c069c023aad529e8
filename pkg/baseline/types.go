// Package baseline implements crackerjack's quality baseline and hook-result
// cache (spec §4.8, C8): a bounded in-memory + on-disk two-tier cache for
// per-hook results, and an append-only, git-commit-keyed history of
// QualityMetrics snapshots with a compare() diff operation.
//
// Grounded on githubnext-gh-aw's pkg/cli/compile_cache.go (CompilationCache):
// content-hash keyed JSON entries, lazy load, corrupted state is recoverable
// rather than fatal.
package baseline

import "github.com/crackerjack-go/crackerjack/pkg/issue"

// CacheKey identifies one memoized hook invocation.
type CacheKey struct {
	HookID      string
	FileHash    string // Merkle-aggregate sha256 over the hook's relevant files
	ToolVersion string
}

// QualityMetrics is a per-commit snapshot of the project's quality signals
// (spec §3: "produced at end of run, keyed by git hash, appended to baseline
// store").
type QualityMetrics struct {
	CommitHash             string         `json:"commit_hash"`
	Coverage               float64        `json:"coverage"`
	TestPassRate           float64        `json:"test_pass_rate"`
	HookFailuresByCategory map[string]int `json:"hook_failures_by_category"`
	TypeErrorCount         int            `json:"type_error_count"`
	LintIssueCount         int            `json:"lint_issue_count"`
	ComplexityViolations   int            `json:"complexity_violations"`
	SecurityIssueCount     int            `json:"security_issue_count"`
	OverallScore           float64        `json:"overall_score"`
}

// Score computes the weighted overall quality score (spec §4.8: coverage
// 30%, test pass rate 25%, no-failures signals 45%) and stores it on the
// receiver, returning it for convenience.
func (m *QualityMetrics) Score() float64 {
	totalFailureSignals := float64(m.TypeErrorCount + m.LintIssueCount + m.ComplexityViolations + m.SecurityIssueCount)
	for _, n := range m.HookFailuresByCategory {
		totalFailureSignals += float64(n)
	}
	noFailuresSignal := 100.0
	if totalFailureSignals > 0 {
		noFailuresSignal = 100.0 / (1.0 + totalFailureSignals)
	}
	m.OverallScore = m.Coverage*0.30 + m.TestPassRate*0.25 + noFailuresSignal*0.45
	return m.OverallScore
}

// FromIssuesAndTests builds a QualityMetrics from a run's classified issues
// and test result, ready for Score() and Store.Append.
func FromIssuesAndTests(commitHash string, issues []issue.Issue, test issue.TestResult) QualityMetrics {
	m := QualityMetrics{
		CommitHash:             commitHash,
		HookFailuresByCategory: map[string]int{},
	}
	if test.Coverage != nil {
		m.Coverage = *test.Coverage
	}
	total := test.Total()
	if total > 0 {
		m.TestPassRate = 100.0 * float64(test.Passed) / float64(total)
	}
	for _, iss := range issues {
		switch iss.Kind {
		case issue.KindTypeError:
			m.TypeErrorCount++
		case issue.KindFormatting, issue.KindImportOrder, issue.KindDocumentation:
			m.LintIssueCount++
		case issue.KindComplexity:
			m.ComplexityViolations++
		case issue.KindSecurity:
			m.SecurityIssueCount++
		default:
			m.HookFailuresByCategory[string(iss.Kind)]++
		}
	}
	m.Score()
	return m
}

// Comparison is the result of comparing two QualityMetrics snapshots
// (spec §4.8: compare(current, baseline_hash?) -> {improvements, regressions, delta}).
type Comparison struct {
	Improvements []string           `json:"improvements"`
	Regressions  []string           `json:"regressions"`
	Delta        map[string]float64 `json:"delta"`
}
