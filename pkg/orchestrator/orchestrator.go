package orchestrator

import (
	"context"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/baseline"
	"github.com/crackerjack-go/crackerjack/pkg/coordinator"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/gitgateway"
	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/ratchet"
	"github.com/crackerjack-go/crackerjack/pkg/security"
	"github.com/crackerjack-go/crackerjack/pkg/testexec"
)

var log = logger.New("orchestrator")

// Orchestrator is the workflow state machine (spec §4.1, C1): it sequences
// hook and test phases, classifies their output, and — when ai_fix is
// enabled — loops the agent coordinator against the remaining issues until
// convergence, a no-progress iteration, the iteration budget, or the
// deadline ends the run.
type Orchestrator struct {
	root     string
	engine   *hookengine.Engine
	executor *testexec.Executor
	coord    *coordinator.Coordinator
	registry *agent.Registry
	rat      *ratchet.Ratchet
	store    *baseline.Store
	git      *gitgateway.Gateway
	events   *security.EventLog
}

// New wires every component the workflow needs. reg must already be closed
// (spec §4.6 "registration is closed after initialization").
func New(root string, engine *hookengine.Engine, executor *testexec.Executor, reg *agent.Registry, rat *ratchet.Ratchet, store *baseline.Store, git *gitgateway.Gateway, events *security.EventLog, coordOpts coordinator.Options) *Orchestrator {
	verifier := newFixVerifier(engine, executor)
	coord := coordinator.New(reg, verifier, coordOpts)
	return &Orchestrator{
		root:     root,
		engine:   engine,
		executor: executor,
		coord:    coord,
		registry: reg,
		rat:      rat,
		store:    store,
		git:      git,
		events:   events,
	}
}

// Run executes the state machine described in spec §4.1 against opts.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (WorkflowResult, error) {
	if err := o.checkDeadline(opts); err != nil {
		return WorkflowResult{Status: StatusTimeout, Error: err.Error()}, nil
	}

	if opts.hasDeadline() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, opts.Deadline)
		defer cancel()
	}

	var result WorkflowResult

	// runOnePass always runs the identical phase sequence for a fixed opts
	// (it never takes a cheaper path based on what the previous iteration
	// found), so convergence automatically satisfies spec §4.1's "same
	// ordered phase sequence that first observed failures must now observe
	// zero issues" — there is no second, cheaper sequence to conflate with.
	for iter := 0; iter < opts.maxIterations(); iter++ {
		if err := o.checkDeadline(opts); err != nil {
			result.Status = StatusTimeout
			result.Error = err.Error()
			return result, nil
		}

		report, passErr := o.runOnePass(ctx, opts)
		if passErr != nil {
			if class, ok := crkerr.ClassOf(passErr); ok && class == crkerr.ClassTimeout {
				result.Status = StatusTimeout
				result.Error = passErr.Error()
				return result, nil
			}
			return o.fatalResult(result, passErr), nil
		}
		result.Iterations = append(result.Iterations, report)
		result.Issues = report.Issues

		if len(report.Issues) == 0 {
			result.Status = StatusSuccess
			break
		}

		if !opts.AIFix {
			result.Status = StatusFailure
			break
		}

		if err := o.checkDeadline(opts); err != nil {
			result.Status = StatusTimeout
			result.Error = err.Error()
			return result, nil
		}

		fixResults, dispatchErr := o.coord.Handle(ctx, report.Issues, opts.DryRun)
		result.Fixes = append(result.Fixes, fixResults...)
		if dispatchErr != nil {
			if ctxTimedOut(ctx) {
				result.Status = StatusTimeout
				result.Error = dispatchErr.Error()
				return result, nil
			}
			return o.fatalResult(result, dispatchErr), nil
		}

		if !anySuccess(fixResults) {
			result.Status = StatusPartialFailure
			break
		}

		if iter == opts.maxIterations()-1 {
			result.Status = StatusPartialFailure
		}
	}

	if result.Status == "" {
		result.Status = StatusPartialFailure
	}

	o.recordMetrics(ctx, &result, opts)
	return result, nil
}

// runOnePass runs one iteration's phase sequence (fast hooks, retried once;
// tests if enabled; comprehensive hooks) and classifies the result. It
// returns hook-engine errors and timeout-class test errors; any other
// test-run error is recorded as a dependency Issue, and every other failure
// is captured inside the IterationReport.
func (o *Orchestrator) runOnePass(ctx context.Context, opts Options) (IterationReport, error) {
	report := IterationReport{}

	if opts.SkipHooks {
		report.Phases = append(report.Phases, PhaseFastHooks)
	} else {
		fastResults, err := o.engine.RunFast(ctx, nil)
		if err != nil {
			return report, err
		}
		report.Phases = append(report.Phases, PhaseFastHooks)
		if hasFailures(fastResults) {
			// Absorb auto-format fixes that normalize code between runs
			// (spec §4.1 "fast hooks retried once").
			fastResults, err = o.engine.RunFast(ctx, nil)
			if err != nil {
				return report, err
			}
		}
		report.Issues = append(report.Issues, issuesFromHookResults(fastResults)...)
	}

	if opts.RunTests {
		report.Phases = append(report.Phases, PhaseTests)
		testOpts := testexec.RunOptions{Workers: opts.TestWorkers, Benchmark: opts.Benchmark, Verbose: opts.Verbose}
		testResult, err := o.executor.RunTests(ctx, testOpts, nil)
		if err != nil {
			if class, ok := crkerr.ClassOf(err); ok && class == crkerr.ClassTimeout {
				// Distinguished from an ordinary failure (spec §7 "Timeouts").
				return report, err
			}
			// Subprocess errors (runner binary not found, crashed) are
			// recoverable: captured as a dependency Issue rather than
			// aborting the run (spec §7 "Subprocess errors... recoverable").
			report.Issues = append(report.Issues, issue.Issue{
				Kind:       issue.KindDependency,
				Severity:   issue.SeverityHigh,
				Message:    err.Error(),
				SourceTool: "pytest",
			})
		}
		report.TestResult = &testResult
		report.Issues = append(report.Issues, issue.ClassifyTestResult(testResult)...)

		if opts.strict() && testResult.Coverage != nil {
			regressionIssue, regressed := o.checkCoverageRegression(*testResult.Coverage)
			if regressed {
				report.Issues = append(report.Issues, regressionIssue)
			}
		}
	}

	if !opts.SkipHooks {
		report.Phases = append(report.Phases, PhaseComprehensiveHooks)
		compResults, err := o.engine.RunComprehensive(ctx, nil)
		if err != nil {
			return report, err
		}
		report.Issues = append(report.Issues, issuesFromHookResults(compResults)...)
	}

	return report, nil
}

// checkCoverageRegression updates the coverage ratchet with c and reports a
// coverage-regression Issue when the update was a regression (spec §4.9,
// §8 scenario S4: "ratchet reports regression... baseline unchanged").
func (o *Orchestrator) checkCoverageRegression(c float64) (issue.Issue, bool) {
	result := o.rat.Update(c)
	if !result.Regression {
		return issue.Issue{}, false
	}
	return issue.Issue{
		Kind:       issue.KindCoverageRegression,
		Severity:   issue.SeverityCritical,
		Message:    "test coverage regressed below the recorded baseline",
		SourceTool: "coverage-ratchet",
	}, true
}

// recordMetrics appends a QualityMetrics snapshot for this run to the
// baseline store (spec §3: "produced at end of run, keyed by git hash"),
// using the most recent iteration's test result so Coverage/TestPassRate
// reflect what actually ran rather than a zero value.
func (o *Orchestrator) recordMetrics(ctx context.Context, result *WorkflowResult, opts Options) {
	if opts.DryRun {
		return
	}
	var testResult issue.TestResult
	if n := len(result.Iterations); n > 0 {
		if tr := result.Iterations[n-1].TestResult; tr != nil {
			testResult = *tr
		}
	}
	commitHash := ""
	if o.git != nil {
		commitHash = o.git.HeadCommit(ctx)
	}
	metrics := baseline.FromIssuesAndTests(commitHash, result.Issues, testResult)
	result.Metrics = metrics

	if o.store != nil {
		if cmp, err := baseline.Compare(metrics, o.store, ""); err == nil {
			result.Comparison = cmp
		}
		if err := o.store.Append(metrics); err != nil {
			log.Printf("failed to append quality baseline snapshot: %v", err)
		}
	}
	if o.rat != nil {
		if err := o.rat.Save(); err != nil {
			log.Printf("failed to persist coverage ratchet: %v", err)
		}
	}
}

func (o *Orchestrator) fatalResult(partial WorkflowResult, err error) WorkflowResult {
	if evLogErr := o.logSecurityGateFailure(err); evLogErr != nil {
		log.Printf("failed to record security event for fatal error: %v", evLogErr)
	}
	partial.Status = StatusFatal
	partial.Error = err.Error()
	return partial
}

func (o *Orchestrator) logSecurityGateFailure(err error) error {
	if o.events == nil {
		return nil
	}
	class, ok := crkerr.ClassOf(err)
	if !ok || class != crkerr.ClassSecurity {
		return nil
	}
	return o.events.Append(security.Event{
		Time:   time.Now(),
		Kind:   security.EventProposalBlocked,
		Detail: err.Error(),
	})
}

func (o *Orchestrator) checkDeadline(opts Options) error {
	if !opts.hasDeadline() {
		return nil
	}
	if time.Now().After(opts.Deadline) {
		return crkerr.Wrapf(crkerr.ClassTimeout, "workflow deadline exceeded")
	}
	return nil
}

func hasFailures(results []issue.HookResult) bool {
	for _, r := range results {
		if r.Status == issue.StatusFailed || r.Status == issue.StatusError {
			return true
		}
	}
	return false
}

func issuesFromHookResults(results []issue.HookResult) []issue.Issue {
	var out []issue.Issue
	for _, r := range results {
		out = append(out, r.Issues...)
	}
	return out
}

func anySuccess(results []issue.FixResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}

func ctxTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
