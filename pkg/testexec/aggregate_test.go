package testexec

import (
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorCountsOutcomes(t *testing.T) {
	a := newAggregator()
	a.observe(Event{Kind: EventCollectionComplete, Total: 4})
	a.observe(Event{Kind: EventTestPass, TestID: "t1"})
	a.observe(Event{Kind: EventTestPass, TestID: "t2"})
	a.observe(Event{Kind: EventTestFail, TestID: "t3", Message: "boom"})
	a.observe(Event{Kind: EventTestSkip, TestID: "t4"})
	a.observe(Event{Kind: EventCoverageSummary, Coverage: 91.5})

	r := a.result(issue.StatusFailed)
	assert.Equal(t, 2, r.Passed)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 0, r.Errors)
	require.NotNil(t, r.Coverage)
	assert.Equal(t, 91.5, *r.Coverage)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "t3", r.Failures[0].TestID)
	assert.Equal(t, 4, r.Total())
}

func TestAggregatorWithNoEventsYieldsZeroValueResult(t *testing.T) {
	a := newAggregator()
	r := a.result(issue.StatusPassed)
	assert.Equal(t, 0, r.Total())
	assert.Nil(t, r.Coverage)
	assert.True(t, r.Valid())
}
