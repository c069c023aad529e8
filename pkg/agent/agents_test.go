package agent

import (
	"path/filepath"
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/stretchr/testify/assert"
)

func TestSpecializedAgentsReportExpectedCapability(t *testing.T) {
	root := t.TempDir()
	mod := filemod.New(root, filepath.Join(root, ".backups"))

	cases := []struct {
		agent Agent
		id    string
		kind  issue.Kind
	}{
		{NewComplexityReducerAgent(root, NullProposer{}, mod), "complexity-reducer", issue.KindComplexity},
		{NewSecurityHardenerAgent(root, NullProposer{}, mod), "security-hardener", issue.KindSecurity},
		{NewPerformanceOptimizerAgent(root, NullProposer{}, mod), "performance-optimizer", issue.KindPerformance},
		{NewTestFixerAgent(root, NullProposer{}, mod), "test-fixer", issue.KindTestFailure},
		{NewDocumentationWriterAgent(root, NullProposer{}, mod), "documentation-writer", issue.KindDocumentation},
		{NewDuplicationRemoverAgent(root, NullProposer{}, mod), "duplication-remover", issue.KindDuplication},
		{NewDeadCodeRemoverAgent(root, NullProposer{}, mod), "dead-code-remover", issue.KindDeadCode},
		{NewTypeErrorFixerAgent(root, NullProposer{}, mod), "type-error-fixer", issue.KindTypeError},
		{NewTestCreatorAgent(root, NullProposer{}, mod), "test-creator", issue.KindCoverageRegression},
	}

	seen := map[issue.Kind]bool{}
	for _, c := range cases {
		cap := c.agent.Capability()
		assert.Equal(t, c.id, cap.AgentID)
		conf, ok := cap.Confidence[c.kind]
		assert.True(t, ok, "expected %s to cover %s", c.id, c.kind)
		assert.Greater(t, conf, 0.0)
		assert.LessOrEqual(t, conf, 1.0)
		assert.False(t, seen[c.kind], "duplicate kind ownership for %s", c.kind)
		seen[c.kind] = true
	}
}
