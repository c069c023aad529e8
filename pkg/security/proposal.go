package security

import (
	"regexp"
)

// FindingSeverity ranks how dangerous a matched construct is.
type FindingSeverity string

const (
	FindingBlock FindingSeverity = "block"
	FindingWarn  FindingSeverity = "warn"
)

// Finding is one flagged construct inside a proposed file change (spec §4.11,
// §4.8: "no fix proposal is written before ValidateProposal passes").
type Finding struct {
	Rule     string
	Line     int
	Snippet  string
	Severity FindingSeverity
}

type proposalRule struct {
	name     string
	pattern  *regexp.Regexp
	severity FindingSeverity
}

// dangerousConstructs flags Python constructs that let a fix proposal escape
// the sandbox it's meant to repair (spec §4.8, §4.11).
var dangerousConstructs = []proposalRule{
	{"eval-call", regexp.MustCompile(`\beval\s*\(`), FindingBlock},
	{"exec-call", regexp.MustCompile(`\bexec\s*\(`), FindingBlock},
	{"os-system", regexp.MustCompile(`\bos\.system\s*\(`), FindingBlock},
	{"subprocess-shell-true", regexp.MustCompile(`shell\s*=\s*True`), FindingBlock},
	{"pickle-loads", regexp.MustCompile(`\bpickle\.loads?\s*\(`), FindingBlock},
	{"dynamic-import", regexp.MustCompile(`\b__import__\s*\(`), FindingWarn},
	{"compile-call", regexp.MustCompile(`\bcompile\s*\(.+,\s*['"]exec['"]\s*\)`), FindingWarn},
	{"marshal-loads", regexp.MustCompile(`\bmarshal\.loads?\s*\(`), FindingWarn},
	{"ctypes-import", regexp.MustCompile(`\bimport\s+ctypes\b`), FindingWarn},
}

// ValidateProposal scans a proposed file's full contents for dangerous
// constructs, returning one Finding for each rule that matches a line (a
// rule matching twice on one line yields one Finding). Callers treat any FindingBlock
// result as an automatic rejection of the proposal (spec §4.8).
func ValidateProposal(src []byte) []Finding {
	var findings []Finding
	lines := splitLines(src)
	for lineNo, line := range lines {
		for _, rule := range dangerousConstructs {
			if loc := rule.pattern.FindIndex(line); loc != nil {
				findings = append(findings, Finding{
					Rule:     rule.name,
					Line:     lineNo + 1,
					Snippet:  string(line),
					Severity: rule.severity,
				})
			}
		}
	}
	return findings
}

// HasBlocking reports whether any finding carries FindingBlock severity.
func HasBlocking(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == FindingBlock {
			return true
		}
	}
	return false
}

func splitLines(src []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, src[start:i])
			start = i + 1
		}
	}
	if start < len(src) {
		lines = append(lines, src[start:])
	}
	return lines
}
