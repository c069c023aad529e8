package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProposalFlagsEval(t *testing.T) {
	src := []byte("def f(x):\n    return eval(x)\n")
	findings := ValidateProposal(src)
	assert.True(t, HasBlocking(findings))
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, "eval-call", findings[0].Rule)
}

func TestValidateProposalFlagsShellTrue(t *testing.T) {
	src := []byte("subprocess.run(cmd, shell=True)\n")
	findings := ValidateProposal(src)
	assert.True(t, HasBlocking(findings))
}

func TestValidateProposalWarnsOnDynamicImport(t *testing.T) {
	src := []byte("mod = __import__(name)\n")
	findings := ValidateProposal(src)
	require := assert.New(t)
	require.Len(findings, 1)
	require.Equal(FindingWarn, findings[0].Severity)
	require.False(HasBlocking(findings))
}

func TestValidateProposalCleanSourceHasNoFindings(t *testing.T) {
	src := []byte("def add(a, b):\n    return a + b\n")
	assert.Empty(t, ValidateProposal(src))
}

func TestValidateProposalMultipleFindings(t *testing.T) {
	src := []byte("eval(x)\nos.system(cmd)\n")
	findings := ValidateProposal(src)
	assert.Len(t, findings, 2)
}
