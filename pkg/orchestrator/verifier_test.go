package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/config"
	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/testexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixVerifierHookPassesWhenIssueGone(t *testing.T) {
	dir := t.TempDir()
	hooks := []hookengine.Hook{
		{ID: "ruff-check", Command: []string{"true"}, Category: config.CategoryFast, Timeout: 5 * time.Second, Parser: noIssuesParser},
		{ID: "mypy", Command: []string{"true"}, Category: config.CategoryComprehensive, Timeout: 5 * time.Second, Parser: noIssuesParser},
	}
	engine := hookengine.New(dir, hooks, nil, 2)
	executor := testexec.New(dir)
	v := newFixVerifier(engine, executor)

	ok, err := v.Verify(context.Background(), issue.Issue{Kind: issue.KindFormatting, File: "a.py"}, []string{"a.py"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFixVerifierHookFailsWhenIssuePersists(t *testing.T) {
	dir := t.TempDir()
	persisting := func(stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
		return []issue.Issue{{Kind: issue.KindFormatting, File: "a.py", SourceTool: "ruff"}}, nil
	}
	hooks := []hookengine.Hook{
		{ID: "ruff-check", Command: []string{"sh", "-c", "exit 1"}, Category: config.CategoryFast, Timeout: 5 * time.Second, Parser: persisting},
		{ID: "mypy", Command: []string{"true"}, Category: config.CategoryComprehensive, Timeout: 5 * time.Second, Parser: noIssuesParser},
	}
	engine := hookengine.New(dir, hooks, nil, 2)
	executor := testexec.New(dir)
	v := newFixVerifier(engine, executor)

	ok, err := v.Verify(context.Background(), issue.Issue{Kind: issue.KindFormatting, File: "a.py"}, []string{"a.py"})
	require.NoError(t, err)
	assert.False(t, ok)
}
