package testexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLineCollectionComplete(t *testing.T) {
	e := parseLine("collected 42 items")
	assert.Equal(t, EventCollectionComplete, e.Kind)
	assert.Equal(t, 42, e.Total)
}

func TestParseLineCollecting(t *testing.T) {
	e := parseLine("collecting ...")
	assert.Equal(t, EventCollectionStart, e.Kind)
}

func TestParseLineTestOutcomes(t *testing.T) {
	cases := map[string]EventKind{
		"tests/test_a.py::test_one PASSED": EventTestPass,
		"tests/test_a.py::test_two FAILED": EventTestFail,
		"tests/test_b.py::test_c ERROR":    EventTestError,
		"tests/test_b.py::test_d SKIPPED":  EventTestSkip,
	}
	for line, want := range cases {
		e := parseLine(line)
		assert.Equal(t, want, e.Kind, line)
		assert.Contains(t, e.TestID, "::")
	}
}

func TestParseLineBareTestIDIsStart(t *testing.T) {
	e := parseLine("tests/test_a.py::test_one")
	assert.Equal(t, EventTestStart, e.Kind)
	assert.Equal(t, "tests/test_a.py::test_one", e.TestID)
}

func TestParseLineCoverageSummary(t *testing.T) {
	e := parseLine("TOTAL                  120     15    87%")
	assert.Equal(t, EventCoverageSummary, e.Kind)
	assert.Equal(t, 87.0, e.Coverage)
}

func TestParseLineSessionFinish(t *testing.T) {
	e := parseLine("===================== 10 passed, 2 failed in 3.21s =====================")
	assert.Equal(t, EventSessionFinish, e.Kind)
}

func TestParseLineUnknownIsPreservedNotDropped(t *testing.T) {
	e := parseLine("some random warning from a plugin")
	assert.Equal(t, EventUnknown, e.Kind)
	assert.NotEmpty(t, e.Message)
}

func TestParseLineStripsANSIBeforeClassifying(t *testing.T) {
	line := stripLine("\x1b[32mtests/test_a.py::test_one PASSED\x1b[0m")
	e := parseLine(line)
	assert.Equal(t, EventTestPass, e.Kind)
	assert.Equal(t, "tests/test_a.py::test_one", e.TestID)
}
