package orchestrator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

// Per-tool parsers turn one hook's raw stdout/stderr/exitCode into []issue.Issue
// (hookengine.Parser). Every parser sets SourceTool to the bare tool binary
// name, never the hook ID: pkg/issue's classifier matches tool patterns like
// "^ruff$" exactly, so "ruff-format"/"ruff-check" would fall through to
// KindUnknown if left to hookengine's own ID fallback (spec §4.4).

// ruffLine matches ruff's default "path:line:col: CODE message" diagnostic format.
var ruffLine = regexp.MustCompile(`^(?P<file>[^:]+):(?P<line>\d+):\d+:\s+(?P<code>\S+)\s+(?P<msg>.*)$`)

func parseRuffCheck(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := ruffLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		file, lineNo, code, msg := m[1], m[2], m[3], m[4]
		n, _ := strconv.Atoi(lineNo)
		issues = append(issues, issue.Issue{
			Message:    fmt.Sprintf("%s %s", code, msg),
			File:       file,
			Line:       n,
			SourceTool: "ruff",
			RawExcerpt: line,
		})
	}
	return issues, nil
}

func parseRuffFormat(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	// ruff format --check (or a plain run that reformatted files) lists one
	// "Would reformat: path" / "Reformatted: path" line per affected file.
	var issues []issue.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	reformat := regexp.MustCompile(`^(?:Would reformat|Reformatted):\s+(.+)$`)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := reformat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		issues = append(issues, issue.Issue{
			Message:    "file is not formatted to style",
			File:       m[1],
			SourceTool: "ruff",
			RawExcerpt: line,
		})
	}
	return issues, nil
}

var isortLine = regexp.MustCompile(`^(?:ERROR:\s+)?(\S+\.py)\s+Imports are incorrectly sorted`)

func parseIsort(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	for _, buf := range [][]byte{stdout, stderr} {
		scanner := bufio.NewScanner(bytes.NewReader(buf))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			m := isortLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			issues = append(issues, issue.Issue{
				Message:    "import block is un-sorted",
				File:       m[1],
				SourceTool: "isort",
				RawExcerpt: line,
			})
		}
	}
	return issues, nil
}

// mypyLine matches "path:line: error|note: message  [error-code]".
var mypyLine = regexp.MustCompile(`^(?P<file>[^:]+):(?P<line>\d+):\s*(?P<sev>error|note|warning):\s*(?P<msg>.*?)(?:\s+\[[\w-]+\])?$`)

func parseMypy(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := mypyLine.FindStringSubmatch(line)
		if m == nil || m[3] != "error" {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		issues = append(issues, issue.Issue{
			Message:    m[4],
			File:       m[1],
			Line:       n,
			SourceTool: "mypy",
			RawExcerpt: line,
		})
	}
	return issues, nil
}

// banditIssueHeader matches bandit's text-report ">> Issue: [B###:name] message"
// header; banditLocation matches the "   Location: path:line" line that
// follows it within the next four rows.
var (
	banditIssueHeader = regexp.MustCompile(`^>>\s*Issue:\s*\[(\S+)\]\s*(.*)$`)
	banditLocation    = regexp.MustCompile(`^Location:\s*([^:]+):(\d+)`)
)

func parseBandit(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	lines := strings.Split(string(stdout), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		m := banditIssueHeader.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code, msg := m[1], m[2]
		file, lineNo := "", 0
		for j := i + 1; j < len(lines) && j < i+5; j++ {
			if lm := banditLocation.FindStringSubmatch(strings.TrimSpace(lines[j])); lm != nil {
				file = lm[1]
				lineNo, _ = strconv.Atoi(lm[2])
				break
			}
		}
		issues = append(issues, issue.Issue{
			Message:    fmt.Sprintf("%s: %s", code, msg),
			File:       file,
			Line:       lineNo,
			SourceTool: "bandit",
			RawExcerpt: line,
		})
	}
	return issues, nil
}

// radonLine matches "radon cc" output: "path\n    F 10:0 name - C (15)".
var radonLine = regexp.MustCompile(`^\s+[A-Z]\s+(\d+):\d+\s+(\S+)\s+-\s+([A-F])\s+\((\d+)\)$`)

func parseRadon(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	var currentFile string
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		raw := scanner.Text()
		if len(raw) > 0 && raw[0] != ' ' && raw[0] != '\t' {
			currentFile = strings.TrimSpace(strings.TrimSuffix(raw, ":"))
			continue
		}
		m := radonLine.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		grade := m[3]
		if grade == "A" || grade == "B" {
			continue // acceptable complexity, not an issue
		}
		n, _ := strconv.Atoi(m[1])
		issues = append(issues, issue.Issue{
			Message:    fmt.Sprintf("%s has cyclomatic complexity %s (grade %s)", m[2], m[4], grade),
			File:       currentFile,
			Line:       n,
			SourceTool: "radon",
		})
	}
	return issues, nil
}

// vultureLine matches "path:line: unused variable 'name' (60% confidence)".
var vultureLine = regexp.MustCompile(`^([^:]+):(\d+):\s*(.*)$`)

func parseVulture(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	var issues []issue.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := vultureLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		issues = append(issues, issue.Issue{
			Message:    m[3],
			File:       m[1],
			Line:       n,
			SourceTool: "vulture",
			RawExcerpt: line,
		})
	}
	return issues, nil
}

// parsers maps each built-in hook ID to its output parser (spec §4.2: "each
// hook carries a parser", which a YAML spec alone cannot express).
var parsers = map[string]func([]byte, []byte, int) ([]issue.Issue, error){
	"ruff-format": parseRuffFormat,
	"ruff-check":  parseRuffCheck,
	"isort":       parseIsort,
	"mypy":        parseMypy,
	"bandit":      parseBandit,
	"radon":       parseRadon,
	"vulture":     parseVulture,
}

// toolBinary maps a hook ID to the binary whose --version output its probe runs.
var toolBinary = map[string]string{
	"ruff-format": "ruff",
	"ruff-check":  "ruff",
	"isort":       "isort",
	"mypy":        "mypy",
	"bandit":      "bandit",
	"radon":       "radon",
	"vulture":     "vulture",
}

// versionProbe builds a VersionProbe that shells out to "<binary> --version"
// via the hardened subprocess launcher (spec §4.2 step 1, "cache key
// includes tool version").
func versionProbe(sp *security.Subprocess, root, binary string) func() (string, error) {
	return func() (string, error) {
		res, err := sp.Run(context.Background(), []string{binary, "--version"}, security.SubprocessOptions{Dir: root})
		if err != nil {
			return "", err
		}
		out := strings.TrimSpace(string(res.Stdout))
		if out == "" {
			out = strings.TrimSpace(string(res.Stderr))
		}
		return out, nil
	}
}
