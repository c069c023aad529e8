package agent

import (
	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// specialized agent constructors. Each wraps genericAgent with the issue
// kind it owns and a starting confidence reflecting how mechanically
// fixable that kind tends to be (spec §4.6 capability table); the proposer
// supplies the actual edit, so the only thing that varies here is routing
// metadata.

// NewComplexityReducerAgent proposes refactors for functions that exceed the
// cyclomatic-complexity threshold.
func NewComplexityReducerAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("complexity-reducer", issue.KindComplexity, 0.55, root, proposer, modifier)
}

// NewSecurityHardenerAgent proposes fixes for bandit/security-linter findings.
func NewSecurityHardenerAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("security-hardener", issue.KindSecurity, 0.6, root, proposer, modifier)
}

// NewPerformanceOptimizerAgent proposes fixes for flagged performance
// anti-patterns.
func NewPerformanceOptimizerAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("performance-optimizer", issue.KindPerformance, 0.45, root, proposer, modifier)
}

// NewTestFixerAgent proposes fixes for failing tests whose root cause is in
// the test file itself.
func NewTestFixerAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("test-fixer", issue.KindTestFailure, 0.5, root, proposer, modifier)
}

// NewDocumentationWriterAgent proposes missing docstrings and comments.
func NewDocumentationWriterAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("documentation-writer", issue.KindDocumentation, 0.7, root, proposer, modifier)
}

// NewDuplicationRemoverAgent proposes extraction of duplicated code blocks.
func NewDuplicationRemoverAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("duplication-remover", issue.KindDuplication, 0.5, root, proposer, modifier)
}

// NewDeadCodeRemoverAgent proposes deletion of unreachable or unused code.
func NewDeadCodeRemoverAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("dead-code-remover", issue.KindDeadCode, 0.65, root, proposer, modifier)
}

// NewTypeErrorFixerAgent proposes fixes for static type-checker findings.
func NewTypeErrorFixerAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("type-error-fixer", issue.KindTypeError, 0.5, root, proposer, modifier)
}

// NewTestCreatorAgent proposes new test cases for coverage regressions.
func NewTestCreatorAgent(root string, proposer FixProposer, modifier *filemod.Modifier) Agent {
	return newGenericAgent("test-creator", issue.KindCoverageRegression, 0.4, root, proposer, modifier)
}
