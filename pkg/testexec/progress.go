package testexec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
)

var (
	reCollected     = regexp.MustCompile(`^collected (\d+) items?`)
	reCollecting    = regexp.MustCompile(`^collecting`)
	reTestOutcome   = regexp.MustCompile(`^(\S+\.py::\S+)\s+(PASSED|FAILED|ERROR|SKIPPED)\b`)
	reTestBareID    = regexp.MustCompile(`^(\S+\.py::\S+)\s*$`)
	reSessionFinish = regexp.MustCompile(`^=+\s*.*\bin\s+[\d.]+s\b.*=+\s*$`)
	reCoverageTotal = regexp.MustCompile(`^TOTAL\s+\d+\s+\d+\s+(\d+)%`)
)

// parseLine classifies one already-ANSI-stripped line of test-runner output
// (spec §4.3 "Progress stream"). It never errors: an unrecognized line
// becomes an EventUnknown event rather than being dropped, so failure traces
// retain their surrounding context (spec §4.3 "Result processing").
func parseLine(line string) Event {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Event{Kind: EventUnknown, Message: line}
	}

	if m := reCollected.FindStringSubmatch(trimmed); m != nil {
		total, _ := strconv.Atoi(m[1])
		return Event{Kind: EventCollectionComplete, Total: total, Message: trimmed}
	}
	if reCollecting.MatchString(trimmed) {
		return Event{Kind: EventCollectionStart, Message: trimmed}
	}
	if m := reTestOutcome.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: outcomeKind(m[2]), TestID: m[1], Message: trimmed}
	}
	if m := reTestBareID.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventTestStart, TestID: m[1], Message: trimmed}
	}
	if m := reCoverageTotal.FindStringSubmatch(trimmed); m != nil {
		pct, _ := strconv.ParseFloat(m[1], 64)
		return Event{Kind: EventCoverageSummary, Coverage: pct, Message: trimmed}
	}
	if reSessionFinish.MatchString(trimmed) {
		return Event{Kind: EventSessionFinish, Message: trimmed}
	}
	return Event{Kind: EventUnknown, Message: trimmed}
}

func outcomeKind(word string) EventKind {
	switch word {
	case "PASSED":
		return EventTestPass
	case "FAILED":
		return EventTestFail
	case "ERROR":
		return EventTestError
	case "SKIPPED":
		return EventTestSkip
	default:
		return EventUnknown
	}
}

// stripLine removes ANSI escapes from one line, reusing the stripper shared
// with pkg/hookengine (spec §4.3 "ANSI escape codes (stripped)").
func stripLine(line string) string {
	return string(hookengine.StripANSI([]byte(line)))
}
