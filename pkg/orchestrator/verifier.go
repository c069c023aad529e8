package orchestrator

import (
	"context"

	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/testexec"
)

// fixVerifier implements coordinator.Verifier with no special verify mode.
// For a test-failure or coverage-regression issue it re-runs the whole test
// suite; touchedFiles does not narrow that run. For any other issue it
// re-runs every fast and comprehensive hook over the touched files (iss.File
// when none are given), the originating hook among them with its own
// parser, and reports the issue gone when no result carries an issue of the
// same kind in the same file. It does not run the originating hook alone.
type fixVerifier struct {
	engine   *hookengine.Engine
	executor *testexec.Executor
}

func newFixVerifier(engine *hookengine.Engine, executor *testexec.Executor) *fixVerifier {
	return &fixVerifier{engine: engine, executor: executor}
}

func (v *fixVerifier) Verify(ctx context.Context, iss issue.Issue, touchedFiles []string) (bool, error) {
	if iss.Kind == issue.KindTestFailure || iss.Kind == issue.KindCoverageRegression {
		return v.verifyByTests(ctx, touchedFiles)
	}
	return v.verifyByHook(ctx, iss, touchedFiles)
}

func (v *fixVerifier) verifyByHook(ctx context.Context, iss issue.Issue, touchedFiles []string) (bool, error) {
	files := touchedFiles
	if len(files) == 0 && iss.File != "" {
		files = []string{iss.File}
	}

	results, err := v.engine.RunFast(ctx, files)
	if err != nil {
		return false, err
	}
	comprehensive, err := v.engine.RunComprehensive(ctx, files)
	if err != nil {
		return false, err
	}
	results = append(results, comprehensive...)

	for _, r := range results {
		for _, found := range r.Issues {
			if found.Kind == iss.Kind && sameLocation(found, iss) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (v *fixVerifier) verifyByTests(ctx context.Context, touchedFiles []string) (bool, error) {
	result, err := v.executor.RunTests(ctx, testexec.RunOptions{}, nil)
	if err != nil {
		return false, err
	}
	return result.Failed == 0 && result.Errors == 0, nil
}

func sameLocation(a, b issue.Issue) bool {
	if a.File == "" || b.File == "" {
		return a.File == b.File
	}
	return a.File == b.File
}
