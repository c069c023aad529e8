package issue

import (
	"regexp"
	"strings"
)

// rule maps a tool-id/message pattern to a Kind. Specificity breaks ties
// between rules that both match (spec §4.4: "ties broken by most-specific
// rule"); a longer regexp source is treated as more specific than a shorter
// one, which is a simple, deterministic proxy for "narrower pattern".
type rule struct {
	toolPattern    *regexp.Regexp
	messagePattern *regexp.Regexp
	kind           Kind
}

func (r rule) specificity() int {
	n := 0
	if r.toolPattern != nil {
		n += len(r.toolPattern.String())
	}
	if r.messagePattern != nil {
		n += len(r.messagePattern.String())
	}
	return n
}

func (r rule) matches(toolID, message string) bool {
	if r.toolPattern != nil && !r.toolPattern.MatchString(toolID) {
		return false
	}
	if r.messagePattern != nil && !r.messagePattern.MatchString(message) {
		return false
	}
	return r.toolPattern != nil || r.messagePattern != nil
}

func mustRule(toolPat, msgPat string, kind Kind) rule {
	r := rule{kind: kind}
	if toolPat != "" {
		r.toolPattern = regexp.MustCompile(toolPat)
	}
	if msgPat != "" {
		r.messagePattern = regexp.MustCompile(msgPat)
	}
	return r
}

// defaultRules is the prioritized classification table (spec §4.4). Rules
// are evaluated by specificity, not by slice order, so this list's ordering
// only matters for readability.
var defaultRules = []rule{
	mustRule(`(?i)^(ruff|flake8|pycodestyle)$`, ``, KindFormatting),
	mustRule(`(?i)^black$`, ``, KindFormatting),
	mustRule(`(?i)^isort$`, ``, KindImportOrder),
	mustRule(``, `(?i)import.*(order|sorted|unsorted)`, KindImportOrder),
	mustRule(`(?i)^mypy$`, ``, KindTypeError),
	mustRule(``, `(?i)incompatible type|type error|expected type`, KindTypeError),
	mustRule(`(?i)^bandit$`, ``, KindSecurity),
	mustRule(``, `(?i)\b(security|vulnerab|injection|insecure)\b`, KindSecurity),
	mustRule(`(?i)^(radon|xenon|mccabe)$`, ``, KindComplexity),
	mustRule(``, `(?i)(cyclomatic|cognitive) complexity`, KindComplexity),
	mustRule(`(?i)^vulture$`, ``, KindDeadCode),
	mustRule(``, `(?i)unused (variable|import|function|code)|dead code`, KindDeadCode),
	mustRule(``, `(?i)\bduplicate(d)? code\b|\bcode clone\b`, KindDuplication),
	mustRule(``, `(?i)\bslow\b|\bperformance\b|\bO\(n\^?2\)\b`, KindPerformance),
	mustRule(``, `(?i)missing docstring|undocumented`, KindDocumentation),
	mustRule(`(?i)^pytest$`, `(?i)^FAILED|assert`, KindTestFailure),
	mustRule(``, `(?i)(tool|binary) not found|executable not found|no such file`, KindDependency),
	mustRule(``, `(?i)coverage (dropped|regress)`, KindCoverageRegression),
}

// severityTable assigns a default Severity per Kind (spec §4.4(c)), overridable
// by an explicit marker in the tool output.
var severityTable = map[Kind]Severity{
	KindComplexity:         SeverityMedium,
	KindSecurity:           SeverityHigh,
	KindPerformance:        SeverityMedium,
	KindFormatting:         SeverityLow,
	KindDeadCode:           SeverityLow,
	KindTypeError:          SeverityHigh,
	KindTestFailure:        SeverityCritical,
	KindDocumentation:      SeverityLow,
	KindDuplication:        SeverityMedium,
	KindImportOrder:        SeverityLow,
	KindDependency:         SeverityHigh,
	KindCoverageRegression: SeverityCritical,
	KindUnknown:            SeverityLow,
}

var severityMarkerPattern = regexp.MustCompile(`(?i)severity\s*=\s*(low|medium|high|critical)`)

// Classify maps one raw (toolID, message) pair to a Kind + Severity. It is
// pure: no I/O, deterministic given identical input (spec §4.4(b)).
func Classify(toolID, message string) (Kind, Severity) {
	best := rule{kind: KindUnknown}
	bestSpecificity := -1
	for _, r := range defaultRules {
		if !r.matches(toolID, message) {
			continue
		}
		if s := r.specificity(); s > bestSpecificity {
			bestSpecificity = s
			best = r
		}
	}

	severity := severityTable[best.kind]
	if m := severityMarkerPattern.FindStringSubmatch(message); m != nil {
		severity = Severity(strings.ToLower(m[1]))
	}
	return best.kind, severity
}

// FromHookLine builds one Issue from a single classified diagnostic line.
// file/line are optional location hints already extracted by the hook's own
// parser (spec §4.2's per-hook Parser is responsible for producing these
// before calling FromHookLine).
func FromHookLine(toolID, message, file string, line int, excerpt string) Issue {
	kind, severity := Classify(toolID, message)
	return Issue{
		Kind:       kind,
		Severity:   severity,
		Message:    message,
		File:       file,
		Line:       line,
		SourceTool: toolID,
		RawExcerpt: excerpt,
	}
}

// ClassifyHookResult normalizes a HookResult's already-extracted Issues list:
// no-op for hooks whose own parser already classified each Issue, but used by
// generic/fallback parsers that only produced raw messages. Returns a new
// slice; HookResult itself is immutable once produced (spec §3).
func ClassifyHookResult(r HookResult) []Issue {
	out := make([]Issue, len(r.Issues))
	for i, iss := range r.Issues {
		if iss.Kind == "" {
			kind, severity := Classify(r.HookID, iss.Message)
			iss.Kind = kind
			if iss.Severity == "" {
				iss.Severity = severity
			}
		}
		out[i] = iss
	}
	return out
}

// ClassifyTestResult turns a TestResult's failures into Issues of kind
// test-failure (spec §4.3/§4.4).
func ClassifyTestResult(t TestResult) []Issue {
	issues := make([]Issue, 0, len(t.Failures))
	for _, f := range t.Failures {
		issues = append(issues, Issue{
			Kind:       KindTestFailure,
			Severity:   severityTable[KindTestFailure],
			Message:    f.Message,
			File:       "",
			SourceTool: "pytest",
			RawExcerpt: f.Traceback,
		})
	}
	return issues
}
