// Package agent implements crackerjack's fixing agents (spec §4.6, C6): a
// small polymorphic interface over "analyze an issue, apply a plan", an
// external fix-proposer boundary for AI-generated edits, and a closed,
// process-wide capability registry used by pkg/coordinator's routing.
//
// Grounded on tim-coutinho-agentops/internal/worker's per-capability
// dispatch-table shape (not the teacher, which has no agent concept at
// all) and on the teacher's pkg/security dangerous-construct scanning
// idiom, reused here to validate proposals before Apply ever touches disk.
package agent

import (
	"context"
	"errors"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// Capability describes one agent's coverage: which issue kinds it can fix
// and at what confidence, used by the registry's routing lookup (spec §4.5
// "query the agent registry for all agents whose capability set covers that
// kind; pick the one with highest confidence").
type Capability struct {
	AgentID    string
	Confidence map[issue.Kind]float64
}

// FileEdit is one whole-file replacement an agent proposes or applies (spec
// §4.6: "edits as a set of file replacements, never line-patches").
type FileEdit struct {
	Path    string
	Content []byte
}

// Plan is the output of Agent.Analyze: what an agent intends to do about one
// issue, before Apply commits it to disk.
type Plan struct {
	Issue      issue.Issue
	Edits      []FileEdit
	Confidence float64
	Rationale  string
	// DryRun is set by RunBatch from the coordinator's per-run option (spec
	// §6 --dry-run) after Analyze returns, so every Apply implementation
	// sees it without needing a FixProposer to know about dry runs.
	DryRun bool
}

// Agent is the shared contract every fixing agent implements (spec §4.6).
// propose_and_apply from the spec text is the composition Apply(Analyze(...))
// performed once per issue by RunBatch, not a separate method on Agent.
type Agent interface {
	Capability() Capability
	Analyze(ctx context.Context, iss issue.Issue) (Plan, error)
	Apply(ctx context.Context, plan Plan) (issue.FixResult, error)
}

// ProposalContext is what an agent hands its FixProposer: the issue being
// fixed plus the current contents of every file it references.
type ProposalContext struct {
	Issue        issue.Issue
	FileContents map[string][]byte
}

// Proposal is a FixProposer's suggested edit, validated by the calling agent
// before being turned into a Plan (spec §4.6, §7 "agents validate proposals
// before applying").
type Proposal struct {
	Edits      []FileEdit
	Confidence float64
	Rationale  string
}

// FixProposer is the external fix-generation boundary (spec §4.6: "may call
// out to an external 'fix proposer' (the AI model, outside the core) — the
// interface is a pure function propose(context) -> proposal"). It is
// intentionally the only place in this module an AI model could be wired
// in; nothing in this package depends on one actually existing.
type FixProposer interface {
	Propose(ctx context.Context, pc ProposalContext) (Proposal, error)
}

// ErrNoProposer is returned by NullProposer, and surfaces in FixResult.Error
// for any agent that needs generative help but was constructed without one
// (spec §1 non-goal: no bundled AI adapter).
var ErrNoProposer = errors.New("agent: no fix proposer configured")

// NullProposer is the default FixProposer: it always fails, so the module
// compiles, links, and its tests pass without any external adapter wired in.
type NullProposer struct{}

func (NullProposer) Propose(context.Context, ProposalContext) (Proposal, error) {
	return Proposal{}, ErrNoProposer
}
