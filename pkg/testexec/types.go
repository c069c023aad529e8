// Package testexec runs crackerjack's Python test suite and turns its
// streaming progress output into a typed event sequence and a final
// issue.TestResult (spec §4.3, C3).
//
// Grounded on githubnext-gh-aw/pkg/cli/compile_integration_test.go's
// creack/pty.Start + io.Copy-into-buffer pattern for capturing a child
// process's genuinely colorized output, and on its own pkg/parser package
// for the "tolerant line parser, unknown lines preserved" idiom.
package testexec

import "time"

// EventKind enumerates the recognized progress-stream events (spec §4.3
// "Progress stream").
type EventKind string

const (
	EventCollectionStart    EventKind = "collection-start"
	EventCollectionProgress EventKind = "collection-progress"
	EventCollectionComplete EventKind = "collection-complete"
	EventTestStart          EventKind = "test-start"
	EventTestPass           EventKind = "test-pass"
	EventTestFail           EventKind = "test-fail"
	EventTestError          EventKind = "test-error"
	EventTestSkip           EventKind = "test-skip"
	EventTestStuck          EventKind = "test-stuck"
	EventSessionFinish      EventKind = "session-finish"
	EventCoverageSummary    EventKind = "coverage-summary"
	EventUnknown            EventKind = "unknown"
)

// Event is one classified line (or synthetic stuck-test notification) from
// the test runner's output stream. Seq is a monotonic counter assigned at
// merge time so events from stdout and stderr interleave in arrival order
// (spec §4.3 "Output ordering").
type Event struct {
	Seq       int
	Kind      EventKind
	TestID    string
	Message   string
	Total     int
	Coverage  float64
	Timestamp time.Time
}

// RunOptions configures one test-executor invocation (spec §6 fields:
// test_workers, benchmark, timeout, verbosity, pattern, path).
type RunOptions struct {
	TestPath       string
	Pattern        string
	Workers        int // 0 = auto (min(cores, heuristic))
	Benchmark      bool
	Timeout        time.Duration
	Verbose        bool
	Colorize       bool
	StuckThreshold time.Duration // default 60s
}

// resolveWorkers applies spec §4.3's "auto = min(cores, N/heuristic)" rule.
func (o RunOptions) resolveWorkers(cores int) int {
	if o.Workers > 0 {
		return o.Workers
	}
	heuristic := cores
	if heuristic > 8 {
		heuristic = 8
	}
	if heuristic < 1 {
		heuristic = 1
	}
	return heuristic
}

func (o RunOptions) stuckThreshold() time.Duration {
	if o.StuckThreshold > 0 {
		return o.StuckThreshold
	}
	return 60 * time.Second
}
