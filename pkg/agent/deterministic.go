package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

// toolAgent is the deterministic counterpart to genericAgent (spec §4.6:
// "formatter and import-organizer fixes are deterministic reruns of the
// underlying tool in write mode, not proposer-generated edits"). It never
// calls a FixProposer; Analyze just carries the issue's file forward, and
// Apply pipes the file's current content through argv on stdin, then commits
// whatever the tool emits on stdout through the same filemod.Modifier (C7)
// that genericAgent uses, so formatter/import-organizer fixes get the same
// backup/atomic-write/rollback guarantees as proposer-driven ones (spec
// §4.7: "the only component allowed to write a fix proposal to disk").
type toolAgent struct {
	id         string
	kind       issue.Kind
	confidence float64
	root       string
	sp         *security.Subprocess
	modifier   *filemod.Modifier
	argv       func(file string) []string
}

func newToolAgent(id string, kind issue.Kind, confidence float64, root string, modifier *filemod.Modifier, argv func(file string) []string) *toolAgent {
	return &toolAgent{id: id, kind: kind, confidence: confidence, root: root, sp: security.NewSubprocess(root), modifier: modifier, argv: argv}
}

func (t *toolAgent) Capability() Capability {
	return Capability{AgentID: t.id, Confidence: map[issue.Kind]float64{t.kind: t.confidence}}
}

func (t *toolAgent) Analyze(ctx context.Context, iss issue.Issue) (Plan, error) {
	if iss.File == "" {
		return Plan{}, crkerr.Wrapf(crkerr.ClassConfig, "%s: issue has no file to reformat", t.id)
	}
	return Plan{Issue: iss, Confidence: t.confidence, Rationale: "rerun " + t.id + " in write mode"}, nil
}

// Apply re-invokes the underlying tool in stdin/stdout mode against
// plan.Issue.File's current contents and hands the rewritten content to
// filemod.Modifier.Apply rather than letting the subprocess write the
// project file directly. On a dry run it skips the subprocess entirely
// (there is nothing to commit) and asks the modifier to report the same
// no-op genericAgent's dry runs report.
func (t *toolAgent) Apply(ctx context.Context, plan Plan) (issue.FixResult, error) {
	file := plan.Issue.File
	resolved := t.resolve(file)

	if plan.DryRun {
		if _, err := t.modifier.Apply(file, nil, filemod.ApplyOptions{DryRun: true}); err != nil {
			return issue.FixResult{Success: false, AgentID: t.id, Confidence: plan.Confidence, Error: err.Error()}, nil
		}
		return issue.FixResult{Success: true, AgentID: t.id, Confidence: plan.Confidence, FilesTouched: []string{file}}, nil
	}

	original, err := os.ReadFile(resolved)
	if err != nil {
		return issue.FixResult{Success: false, AgentID: t.id, Confidence: plan.Confidence, Error: err.Error()}, nil
	}

	argv := t.argv(file)
	result, err := t.sp.Run(ctx, argv, security.SubprocessOptions{Dir: t.root, Stdin: original})
	if err != nil {
		return issue.FixResult{Success: false, AgentID: t.id, Confidence: plan.Confidence, Error: err.Error()}, nil
	}
	if result.ExitCode != 0 {
		msg := string(result.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("%s exited %d", t.id, result.ExitCode)
		}
		return issue.FixResult{Success: false, AgentID: t.id, Confidence: plan.Confidence, Error: msg}, nil
	}

	if _, err := t.modifier.Apply(file, result.Stdout, filemod.ApplyOptions{}); err != nil {
		return issue.FixResult{Success: false, AgentID: t.id, Confidence: plan.Confidence, Error: err.Error()}, nil
	}

	return issue.FixResult{
		Success:      true,
		AgentID:      t.id,
		Confidence:   plan.Confidence,
		FilesTouched: []string{file},
	}, nil
}

func (t *toolAgent) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(t.root, file)
}

// NewFormatterAgent reruns ruff's formatter over stdin/stdout against the
// issue's file (spec §4.6, §4.2 fast-hook "ruff-format"), committing the
// result through modifier.
func NewFormatterAgent(root string, modifier *filemod.Modifier) Agent {
	return newToolAgent("formatter", issue.KindFormatting, 0.95, root, modifier, func(file string) []string {
		return []string{"ruff", "format", "--stdin-filename", file, "-"}
	})
}

// NewImportOrganizerAgent reruns ruff's import-sort rule over stdin/stdout
// against the issue's file (spec §4.6, §4.2 fast-hook "ruff-check --select
// I"), committing the result through modifier.
func NewImportOrganizerAgent(root string, modifier *filemod.Modifier) Agent {
	return newToolAgent("import-organizer", issue.KindImportOrder, 0.95, root, modifier, func(file string) []string {
		return []string{"ruff", "check", "--stdin-filename", file, "--select", "I", "--fix", "--exit-zero", "-"}
	})
}
