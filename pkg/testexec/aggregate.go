package testexec

import (
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// aggregator accumulates per-test outcomes and the coverage summary as
// events stream past, so RunTests can build the final issue.TestResult
// without re-reading the process output (spec §4.3 "Result processing").
type aggregator struct {
	mu       sync.Mutex
	passed   int
	failed   int
	skipped  int
	errors   int
	total    int
	coverage *float64
	failures []issue.TestFailure
}

func newAggregator() *aggregator {
	return &aggregator{}
}

func (a *aggregator) observe(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch e.Kind {
	case EventCollectionComplete:
		a.total = e.Total
	case EventTestPass:
		a.passed++
	case EventTestFail:
		a.failed++
		a.failures = append(a.failures, issue.TestFailure{TestID: e.TestID, Message: e.Message})
	case EventTestError:
		a.errors++
		a.failures = append(a.failures, issue.TestFailure{TestID: e.TestID, Message: e.Message})
	case EventTestSkip:
		a.skipped++
	case EventCoverageSummary:
		cov := e.Coverage
		a.coverage = &cov
	}
}

// result renders the accumulated counts as an issue.TestResult carrying
// status (spec §3: TestResult embeds HookResult, Total == sum of counts).
func (a *aggregator) result(status issue.Status) issue.TestResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return issue.TestResult{
		HookResult: issue.HookResult{
			HookID: "pytest",
			Status: status,
		},
		Passed:   a.passed,
		Failed:   a.failed,
		Skipped:  a.skipped,
		Errors:   a.errors,
		Coverage: a.coverage,
		Failures: append([]issue.TestFailure(nil), a.failures...),
	}
}
