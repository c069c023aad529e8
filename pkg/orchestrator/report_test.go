package orchestrator

import (
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/stretchr/testify/assert"
)

func TestFailureReportEmptyForCleanResult(t *testing.T) {
	report := FailureReport(WorkflowResult{Status: StatusSuccess}, false)
	assert.Empty(t, report)
}

func TestFailureReportIncludesIssueMessages(t *testing.T) {
	result := WorkflowResult{
		Status: StatusFailure,
		Issues: []issue.Issue{
			{Kind: issue.KindTypeError, Severity: issue.SeverityHigh, Message: "incompatible return type", File: "a.py", Line: 5, SourceTool: "mypy"},
		},
	}
	report := FailureReport(result, true)
	assert.Contains(t, report, "incompatible return type")
}

func TestFailureReportHintsOnUnknownKind(t *testing.T) {
	iss := issue.Issue{Kind: issue.KindUnknown, Severity: issue.SeverityLow, Message: "strange output", SourceTool: "mystery"}
	assert.Contains(t, hintFor(iss), "no classification rule")
}
