// Package coordinator implements crackerjack's agent coordinator (spec §4.5,
// C5): confidence-based routing from a classified issue set onto the agent
// registry, two-tier wave dispatch, fix verification, and cancellation.
//
// Grounded on the teacher's downloadRunArtifactsConcurrent in
// pkg/cli/logs.go for the bounded-concurrency conc pool over a batch of
// independent items, generalized here from "one goroutine per artifact" to
// "one goroutine per agent batch".
package coordinator

import (
	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// UnfixedReason explains why an issue was never dispatched to an agent.
type UnfixedReason string

const (
	// ReasonNoAgent means no registered agent covers the issue's kind at all.
	ReasonNoAgent UnfixedReason = "no-agent"
	// ReasonLowConfidence means an agent exists but its confidence for the
	// kind falls below the dispatch threshold (spec §4.5 step 3).
	ReasonLowConfidence UnfixedReason = "low-confidence"
)

// Unfixed pairs an issue with why the router declined to dispatch it.
type Unfixed struct {
	Issue  issue.Issue
	Reason UnfixedReason
}

// Assignment is one agent's batch of issues for this iteration.
type Assignment struct {
	Agent  agent.Agent
	Issues []issue.Issue
}

// Plan is the router's deterministic output for one call to route (spec §8
// property 6: same registry + same issue set => same Plan).
type Plan struct {
	Assignments []Assignment
	Unfixed     []Unfixed
}

// Options configures one Coordinator.
type Options struct {
	// ConfidenceThreshold gates dispatch (spec §4.5 step 3, default 0.7).
	ConfidenceThreshold float64
	// MaxConcurrentAgents bounds per-tier fan-out (spec §4.5 step 4, default
	// runtime.NumCPU() capped at 8).
	MaxConcurrentAgents int
}

func (o Options) threshold() float64 {
	if o.ConfidenceThreshold <= 0 {
		return 0.7
	}
	return o.ConfidenceThreshold
}
