package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownTools(t *testing.T) {
	tests := []struct {
		tool, msg string
		want      Kind
	}{
		{"ruff", "line too long", KindFormatting},
		{"mypy", "incompatible type for argument", KindTypeError},
		{"bandit", "possible SQL injection vector", KindSecurity},
		{"radon", "cyclomatic complexity too high", KindComplexity},
		{"vulture", "unused variable 'x'", KindDeadCode},
		{"isort", "imports are incorrectly sorted", KindImportOrder},
		{"some-weird-tool", "nothing matches this at all", KindUnknown},
	}
	for _, tt := range tests {
		kind, _ := Classify(tt.tool, tt.msg)
		assert.Equal(t, tt.want, kind, "tool=%s msg=%s", tt.tool, tt.msg)
	}
}

func TestClassifyIsPureAndDeterministic(t *testing.T) {
	k1, s1 := Classify("mypy", "expected type 'int'")
	k2, s2 := Classify("mypy", "expected type 'int'")
	assert.Equal(t, k1, k2)
	assert.Equal(t, s1, s2)
}

func TestClassifySeverityMarkerOverride(t *testing.T) {
	_, severity := Classify("ruff", "formatting issue severity=critical")
	assert.Equal(t, SeverityCritical, severity)
}

func TestUnknownNeverHasElevatedSeverity(t *testing.T) {
	kind, severity := Classify("totally-unrecognized", "garbage output")
	assert.Equal(t, KindUnknown, kind)
	assert.Equal(t, SeverityLow, severity)
}

func TestClassifyHookResultFillsMissingKind(t *testing.T) {
	r := HookResult{
		HookID: "bandit",
		Status: StatusFailed,
		Issues: []Issue{{Message: "possible security vulnerability found"}},
	}
	out := ClassifyHookResult(r)
	assert.Equal(t, KindSecurity, out[0].Kind)
}

func TestClassifyTestResultProducesTestFailureIssues(t *testing.T) {
	tr := TestResult{
		Failures: []TestFailure{{TestID: "test_foo", Message: "assert 1 == 2"}},
	}
	issues := ClassifyTestResult(tr)
	if assert.Len(t, issues, 1) {
		assert.Equal(t, KindTestFailure, issues[0].Kind)
		assert.Equal(t, SeverityCritical, issues[0].Severity)
	}
}

func TestHookResultValidInvariant(t *testing.T) {
	passed := HookResult{Status: StatusPassed}
	assert.True(t, passed.Valid())

	invalid := HookResult{Status: StatusPassed, Issues: []Issue{{Message: "x"}}}
	assert.False(t, invalid.Valid())

	failed := HookResult{Status: StatusFailed, Issues: []Issue{{Message: "x"}}}
	assert.True(t, failed.Valid())
}

func TestTestResultTotal(t *testing.T) {
	tr := TestResult{Passed: 3, Failed: 1, Skipped: 2, Errors: 0}
	assert.Equal(t, 6, tr.Total())
}
