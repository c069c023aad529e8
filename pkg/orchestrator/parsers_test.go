package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuffCheckExtractsFileAndLine(t *testing.T) {
	out := "src/app.py:10:5: F401 'os' imported but unused\nsrc/app.py:12:1: I001 import block is un-sorted\n"
	issues, err := parseRuffCheck([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, 10, issues[0].Line)
	assert.Equal(t, "ruff", issues[0].SourceTool)
	assert.Contains(t, issues[0].Message, "F401")
}

func TestParseRuffCheckIgnoresUnrecognizedLines(t *testing.T) {
	issues, err := parseRuffCheck([]byte("All checks passed!\n"), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestParseRuffFormatExtractsReformattedFiles(t *testing.T) {
	out := "Would reformat: src/app.py\n1 file would be reformatted\n"
	issues, err := parseRuffFormat([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, "ruff", issues[0].SourceTool)
}

func TestParseIsortExtractsFile(t *testing.T) {
	out := "ERROR: src/app.py Imports are incorrectly sorted and/or formatted.\n"
	issues, err := parseIsort([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, "isort", issues[0].SourceTool)
}

func TestParseMypyExtractsErrorsOnlyNotNotes(t *testing.T) {
	out := "src/app.py:5: error: Incompatible return value type  [return-value]\n" +
		"src/app.py:5: note: see https://mypy.readthedocs.io\n"
	issues, err := parseMypy([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, 5, issues[0].Line)
	assert.Equal(t, "mypy", issues[0].SourceTool)
	assert.NotContains(t, issues[0].Message, "readthedocs")
}

func TestParseBanditExtractsCodeAndLocation(t *testing.T) {
	out := ">> Issue: [B602:subprocess_popen_with_shell_equals_true] subprocess call with shell=True\n" +
		"   Severity: High   Confidence: High\n" +
		"   Location: src/app.py:42:4\n"
	issues, err := parseBandit([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, 42, issues[0].Line)
	assert.Contains(t, issues[0].Message, "B602")
	assert.Equal(t, "bandit", issues[0].SourceTool)
}

func TestParseRadonSkipsAcceptableGrades(t *testing.T) {
	out := "src/app.py\n" +
		"    F 10:0 good_function - A (2)\n" +
		"    F 20:0 bad_function - D (22)\n"
	issues, err := parseRadon([]byte(out), nil, 0)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, 20, issues[0].Line)
	assert.Equal(t, "radon", issues[0].SourceTool)
	assert.Contains(t, issues[0].Message, "bad_function")
}

func TestParseVultureExtractsFileAndLine(t *testing.T) {
	out := "src/app.py:7: unused variable 'x' (60% confidence)\n"
	issues, err := parseVulture([]byte(out), nil, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "src/app.py", issues[0].File)
	assert.Equal(t, 7, issues[0].Line)
	assert.Equal(t, "vulture", issues[0].SourceTool)
}
