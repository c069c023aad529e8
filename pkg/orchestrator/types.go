// Package orchestrator implements crackerjack's workflow orchestrator (spec
// §4.1, C1): the top-level state machine that sequences hook and test
// phases, classifies their output, and — when enabled — loops the agent
// coordinator against the result until convergence, a no-progress
// iteration, the iteration budget, or the deadline ends the run.
//
// Grounded on githubnext-gh-aw's pkg/cli compile pipeline (the teacher's own
// closest analog to a multi-phase "run tools, classify output, report"
// sequence) for the overall shape of a phased Run method returning one
// result struct, generalized here from a single compile pass to a
// fail/fix/verify iteration loop the teacher never needed.
package orchestrator

import (
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/baseline"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// Phase names one step of a workflow iteration (spec §4.1 state machine).
type Phase int

const (
	PhaseFastHooks Phase = iota
	PhaseTests
	PhaseComprehensiveHooks
	PhaseAgentDispatch
	PhaseVerify
)

func (p Phase) String() string {
	switch p {
	case PhaseFastHooks:
		return "fast-hooks"
	case PhaseTests:
		return "tests"
	case PhaseComprehensiveHooks:
		return "comprehensive-hooks"
	case PhaseAgentDispatch:
		return "agent-dispatch"
	case PhaseVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Status is WorkflowResult's overall outcome (spec §4.1, §7 "typed result enum").
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
	StatusTimeout        Status = "timeout"
	StatusFatal          Status = "fatal"
)

// Options configures one Run (spec §6 CLI option table, plus the Deadline
// and StrictCoverage fields SPEC_FULL.md's implementation notes add).
type Options struct {
	RunTests       bool
	AIFix          bool
	SkipHooks      bool
	TestWorkers    int
	Benchmark      bool
	Verbose        bool
	Debug          bool
	MaxIterations  int
	CoverageStrict bool
	DryRun         bool
	Deadline       time.Time
	// StrictCoverage mirrors CoverageStrict; kept distinct per SPEC_FULL.md's
	// note that it "mirrors coverage_strict" — both read the same effective
	// value via strict(), so a caller need only set one.
	StrictCoverage bool
}

func (o Options) maxIterations() int {
	if o.MaxIterations <= 0 {
		return 10
	}
	return o.MaxIterations
}

func (o Options) strict() bool {
	return o.CoverageStrict || o.StrictCoverage
}

func (o Options) hasDeadline() bool {
	return !o.Deadline.IsZero()
}

// IterationReport records what happened during one iteration of the fix loop.
type IterationReport struct {
	Phases     []Phase
	Issues     []issue.Issue
	FixResults []issue.FixResult
	// TestResult is the raw result of the tests phase, nil when RunTests was
	// false or the test phase never completed. Carried separately from the
	// classified Issues so recordMetrics can feed real coverage/pass-rate
	// numbers into the quality baseline (spec §3: "produced at end of run").
	TestResult *issue.TestResult
}

// WorkflowResult is the structured, user-visible outcome of one Run (spec §7
// "User-visible behavior"): overall status, per-iteration detail, the final
// classified issue list, fixes applied, and the quality-metrics delta.
type WorkflowResult struct {
	Status     Status
	Iterations []IterationReport
	Issues     []issue.Issue
	Fixes      []issue.FixResult
	Metrics    baseline.QualityMetrics
	Comparison baseline.Comparison
	Error      string
}

func (r WorkflowResult) Success() bool {
	return r.Status == StatusSuccess
}
