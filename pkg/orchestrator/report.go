package orchestrator

import (
	"github.com/crackerjack-go/crackerjack/pkg/console"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// FailureReport renders a WorkflowResult's unresolved issues for an external
// collaborator (spec §7 "User-visible behavior": "the core returns a
// structured WorkflowResult... external collaborators format it").
func FailureReport(result WorkflowResult, verbose bool) string {
	results := &console.ValidationResults{}
	for _, iss := range result.Issues {
		entry := console.ValidationError{
			Category: string(iss.Kind),
			Severity: string(iss.Severity),
			Message:  iss.Message,
			File:     iss.File,
			Line:     iss.Line,
			Hint:     hintFor(iss),
		}
		if iss.Severity == issue.SeverityCritical || iss.Severity == issue.SeverityHigh {
			results.Errors = append(results.Errors, entry)
		} else {
			results.Warnings = append(results.Warnings, entry)
		}
	}
	return console.FormatValidationSummary(results, verbose)
}

func hintFor(iss issue.Issue) string {
	if iss.Kind == issue.KindUnknown {
		return "no classification rule matched this tool output; review manually"
	}
	return ""
}
