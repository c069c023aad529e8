package agent

import (
	"context"
	"os"
	"path/filepath"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

var log = logger.New("agent")

// genericAgent is the shared implementation backing every proposer-driven
// specialized agent (spec §4.6: "agents are polymorphic over the capability
// set"). It reads the issue's referenced file, asks its FixProposer for an
// edit, validates the proposal against the dangerous-construct scanner, and
// commits accepted edits through the safe file modifier.
type genericAgent struct {
	id         string
	kind       issue.Kind
	confidence float64
	root       string
	proposer   FixProposer
	modifier   *filemod.Modifier
}

func newGenericAgent(id string, kind issue.Kind, confidence float64, root string, proposer FixProposer, modifier *filemod.Modifier) *genericAgent {
	if proposer == nil {
		proposer = NullProposer{}
	}
	return &genericAgent{id: id, kind: kind, confidence: confidence, root: root, proposer: proposer, modifier: modifier}
}

func (g *genericAgent) Capability() Capability {
	return Capability{AgentID: g.id, Confidence: map[issue.Kind]float64{g.kind: g.confidence}}
}

func (g *genericAgent) Analyze(ctx context.Context, iss issue.Issue) (Plan, error) {
	contents := map[string][]byte{}
	if iss.File != "" {
		data, err := os.ReadFile(g.resolve(iss.File))
		if err != nil && !os.IsNotExist(err) {
			return Plan{}, crkerr.Wrapf(crkerr.ClassFilesystem, "read %s: %w", iss.File, err)
		}
		contents[iss.File] = data
	}

	proposal, err := g.proposer.Propose(ctx, ProposalContext{Issue: iss, FileContents: contents})
	if err != nil {
		return Plan{}, err
	}
	return Plan{Issue: iss, Edits: proposal.Edits, Confidence: proposal.Confidence, Rationale: proposal.Rationale}, nil
}

func (g *genericAgent) Apply(ctx context.Context, plan Plan) (issue.FixResult, error) {
	if len(plan.Edits) == 0 {
		return issue.FixResult{Success: false, AgentID: g.id, Confidence: plan.Confidence, Error: "proposal produced no edits"}, nil
	}

	for _, edit := range plan.Edits {
		findings := security.ValidateProposal(edit.Content)
		if security.HasBlocking(findings) {
			log.Printf("%s: proposal for %s rejected by security validation", g.id, edit.Path)
			return issue.FixResult{
				Success:    false,
				AgentID:    g.id,
				Confidence: plan.Confidence,
				Error:      "proposal blocked by security validation",
			}, nil
		}
	}

	touched := make([]string, 0, len(plan.Edits))
	for _, edit := range plan.Edits {
		if _, err := g.modifier.Apply(edit.Path, edit.Content, filemod.ApplyOptions{DryRun: plan.DryRun}); err != nil {
			return issue.FixResult{Success: false, AgentID: g.id, Confidence: plan.Confidence, FilesTouched: touched}, err
		}
		touched = append(touched, edit.Path)
	}

	return issue.FixResult{
		Success:      true,
		AgentID:      g.id,
		Confidence:   plan.Confidence,
		FilesTouched: touched,
	}, nil
}

func (g *genericAgent) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.root, path)
}
