package coordinator

import (
	"context"
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	id         string
	confidence map[issue.Kind]float64
}

func (f fakeAgent) Capability() agent.Capability {
	return agent.Capability{AgentID: f.id, Confidence: f.confidence}
}

func (f fakeAgent) Analyze(context.Context, issue.Issue) (agent.Plan, error) {
	return agent.Plan{}, nil
}

func (f fakeAgent) Apply(context.Context, agent.Plan) (issue.FixResult, error) {
	return issue.FixResult{Success: true}, nil
}

func newTestRegistry(t *testing.T, agents ...fakeAgent) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry()
	for _, a := range agents {
		require.NoError(t, reg.Register(a))
	}
	reg.Close()
	return reg
}

func TestRouteDispatchesAboveThreshold(t *testing.T) {
	reg := newTestRegistry(t, fakeAgent{id: "security-hardener", confidence: map[issue.Kind]float64{issue.KindSecurity: 0.9}})
	issues := []issue.Issue{{Kind: issue.KindSecurity, File: "a.py", SourceTool: "bandit"}}

	plan := route(issues, reg, 0.7)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "security-hardener", plan.Assignments[0].Agent.Capability().AgentID)
	assert.Empty(t, plan.Unfixed)
}

func TestRouteWithholdsBelowThreshold(t *testing.T) {
	reg := newTestRegistry(t, fakeAgent{id: "type-error-fixer", confidence: map[issue.Kind]float64{issue.KindTypeError: 0.5}})
	issues := []issue.Issue{{Kind: issue.KindTypeError, File: "a.py", SourceTool: "mypy"}}

	plan := route(issues, reg, 0.7)
	assert.Empty(t, plan.Assignments)
	require.Len(t, plan.Unfixed, 1)
	assert.Equal(t, ReasonLowConfidence, plan.Unfixed[0].Reason)
}

func TestRouteExactlyAtThresholdDispatches(t *testing.T) {
	reg := newTestRegistry(t, fakeAgent{id: "type-error-fixer", confidence: map[issue.Kind]float64{issue.KindTypeError: 0.7}})
	issues := []issue.Issue{{Kind: issue.KindTypeError, File: "a.py", SourceTool: "mypy"}}

	plan := route(issues, reg, 0.7)
	require.Len(t, plan.Assignments, 1)
	assert.Empty(t, plan.Unfixed)
}

func TestRouteNoAgentForKindMarksUnfixed(t *testing.T) {
	reg := newTestRegistry(t)
	issues := []issue.Issue{{Kind: issue.KindDuplication, File: "a.py", SourceTool: "jscpd"}}

	plan := route(issues, reg, 0.7)
	assert.Empty(t, plan.Assignments)
	require.Len(t, plan.Unfixed, 1)
	assert.Equal(t, ReasonNoAgent, plan.Unfixed[0].Reason)
}

func TestRouteNeverDispatchesUnknownKind(t *testing.T) {
	reg := newTestRegistry(t, fakeAgent{id: "catch-all", confidence: map[issue.Kind]float64{issue.KindUnknown: 0.99}})
	issues := []issue.Issue{{Kind: issue.KindUnknown, File: "a.py", SourceTool: "mystery"}}

	plan := route(issues, reg, 0.7)
	assert.Empty(t, plan.Assignments)
	require.Len(t, plan.Unfixed, 1)
	assert.Equal(t, ReasonNoAgent, plan.Unfixed[0].Reason)
}

func TestRouteIsDeterministicAcrossRuns(t *testing.T) {
	reg := newTestRegistry(t,
		fakeAgent{id: "security-hardener", confidence: map[issue.Kind]float64{issue.KindSecurity: 0.9}},
		fakeAgent{id: "formatter", confidence: map[issue.Kind]float64{issue.KindFormatting: 0.95}},
	)
	issues := []issue.Issue{
		{Kind: issue.KindSecurity, File: "a.py", SourceTool: "bandit"},
		{Kind: issue.KindFormatting, File: "b.py", SourceTool: "ruff-format"},
		{Kind: issue.KindFormatting, File: "c.py", SourceTool: "ruff-format"},
	}

	first := route(issues, reg, 0.7)
	second := route(issues, reg, 0.7)
	assert.Equal(t, first, second)
}

func TestPlanTiersSeparatesFormattingLast(t *testing.T) {
	reg := newTestRegistry(t,
		fakeAgent{id: "security-hardener", confidence: map[issue.Kind]float64{issue.KindSecurity: 0.9}},
		fakeAgent{id: "formatter", confidence: map[issue.Kind]float64{issue.KindFormatting: 0.95}},
	)
	issues := []issue.Issue{
		{Kind: issue.KindSecurity, File: "a.py", SourceTool: "bandit"},
		{Kind: issue.KindFormatting, File: "b.py", SourceTool: "ruff-format"},
	}

	plan := route(issues, reg, 0.7)
	primary, formatting := plan.tiers()
	require.Len(t, primary, 1)
	require.Len(t, formatting, 1)
	assert.Equal(t, "security-hardener", primary[0].Agent.Capability().AgentID)
	assert.Equal(t, "formatter", formatting[0].Agent.Capability().AgentID)
}
