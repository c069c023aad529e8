package coordinator

import (
	"context"
	"runtime"

	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/sourcegraph/conc/pool"
)

var log = logger.New("coordinator")

// Verifier re-runs the check that originally produced iss, given the files
// an agent touched, and reports whether the issue is actually gone (spec §4.5 "Verification"). The coordinator never talks to
// pkg/hookengine or pkg/testexec directly: it sits above C4/C9 and below C1
// in the dependency order, so the orchestrator supplies the concrete
// Verifier that knows how to route iss back to the right engine.
type Verifier interface {
	Verify(ctx context.Context, iss issue.Issue, touchedFiles []string) (bool, error)
}

// Coordinator implements the Agent Coordinator (C5): handle(issues) -> [FixResult].
type Coordinator struct {
	reg      *agent.Registry
	verifier Verifier
	opts     Options
}

// New constructs a Coordinator. reg must already be closed (spec §4.6 "Agent
// registry... closed after initialization").
func New(reg *agent.Registry, verifier Verifier, opts Options) *Coordinator {
	if opts.MaxConcurrentAgents <= 0 {
		opts.MaxConcurrentAgents = runtime.NumCPU()
	}
	if opts.MaxConcurrentAgents > 8 {
		opts.MaxConcurrentAgents = 8
	}
	return &Coordinator{reg: reg, verifier: verifier, opts: opts}
}

// Route exposes the pure routing decision for a given issue set, without
// dispatching anything (used directly by the determinism property test).
func (c *Coordinator) Route(issues []issue.Issue) Plan {
	return route(issues, c.reg, c.opts.threshold())
}

// Handle routes issues, dispatches each tier's assignments concurrently
// (bounded by MaxConcurrentAgents), verifies every reported success, and
// returns one FixResult per issue plus synthetic unfixed results for issues
// the router declined to route (spec §4.5 contract). dryRun is forwarded to
// every dispatched agent (spec §6 --dry-run); it is a per-call argument
// rather than a Coordinator-lifetime Option because the orchestrator only
// knows it once Run(ctx, opts) is invoked, after the Coordinator already
// exists.
func (c *Coordinator) Handle(ctx context.Context, issues []issue.Issue, dryRun bool) ([]issue.FixResult, error) {
	plan := c.Route(issues)

	results := make([]issue.FixResult, 0, len(issues))
	for _, u := range plan.Unfixed {
		results = append(results, issue.FixResult{
			Success: false,
			Issues:  []issue.Issue{u.Issue},
			Error:   string(u.Reason),
		})
	}

	primary, formatting := plan.tiers()

	primaryResults, err := c.runTier(ctx, primary, dryRun)
	if err != nil {
		return append(results, primaryResults...), err
	}
	results = append(results, primaryResults...)

	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	formattingResults, err := c.runTier(ctx, formatting, dryRun)
	results = append(results, formattingResults...)
	return results, err
}

// runTier dispatches every assignment in one tier concurrently, bounded by
// MaxConcurrentAgents, then verifies each reported success (spec §4.5 steps
// 4-5, "Verification", "Cancellation").
func (c *Coordinator) runTier(ctx context.Context, assignments []Assignment, dryRun bool) ([]issue.FixResult, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[[]issue.FixResult]().WithContext(ctx).WithMaxGoroutines(c.opts.MaxConcurrentAgents)
	for _, a := range assignments {
		a := a
		p.Go(func(ctx context.Context) ([]issue.FixResult, error) {
			batchResults := agent.RunBatch(ctx, a.Agent, a.Issues, dryRun)
			for i := range batchResults {
				c.verify(ctx, &batchResults[i])
			}
			return batchResults, ctx.Err()
		})
	}

	grouped, err := p.Wait()
	var results []issue.FixResult
	for _, g := range grouped {
		results = append(results, g...)
	}
	return results, err
}

// verify re-runs the hook/test that produced result's issue(s) when the
// agent reported success, downgrading to failure if the problem persists
// (spec §4.5 "Verification"). A result with no verifier configured, or that
// already failed, is returned unchanged.
func (c *Coordinator) verify(ctx context.Context, result *issue.FixResult) {
	if c.verifier == nil || !result.Success || len(result.Issues) == 0 {
		return
	}

	for _, iss := range result.Issues {
		ok, err := c.verifier.Verify(ctx, iss, result.FilesTouched)
		if err != nil {
			log.Printf("verification of %s fix for %s failed: %v", result.AgentID, iss.Kind, err)
			result.Success = false
			result.Error = err.Error()
			return
		}
		if !ok {
			result.Success = false
			result.Error = "fix did not resolve the originating issue on verification"
			return
		}
	}
}
