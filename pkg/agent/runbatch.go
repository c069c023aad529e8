package agent

import (
	"context"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// RunBatch runs a on every issue in batch, composing Analyze then Apply per
// issue (spec §4.6: propose_and_apply is this composition, not a separate
// method) and isolating one issue's failure from the rest of the batch.
// dryRun is stamped onto each Plan before Apply so every agent implementation
// honors --dry-run without needing its own flag plumbing (spec §6).
func RunBatch(ctx context.Context, a Agent, batch []issue.Issue, dryRun bool) []issue.FixResult {
	results := make([]issue.FixResult, 0, len(batch))
	for _, iss := range batch {
		results = append(results, runOne(ctx, a, iss, dryRun))
	}
	return results
}

func runOne(ctx context.Context, a Agent, iss issue.Issue, dryRun bool) issue.FixResult {
	start := time.Now()
	plan, err := a.Analyze(ctx, iss)
	if err != nil {
		return issue.FixResult{
			Success:  false,
			Issues:   []issue.Issue{iss},
			AgentID:  a.Capability().AgentID,
			Duration: time.Since(start),
			Error:    err.Error(),
		}
	}
	plan.DryRun = dryRun

	result, err := a.Apply(ctx, plan)
	result.Duration = time.Since(start)
	if len(result.Issues) == 0 {
		result.Issues = []issue.Issue{iss}
	}
	if result.AgentID == "" {
		result.AgentID = a.Capability().AgentID
	}
	if err != nil {
		result.Success = false
		if result.Error == "" {
			result.Error = err.Error()
		}
	}
	return result
}
