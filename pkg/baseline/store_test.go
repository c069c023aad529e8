package baseline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendAndLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := LoadStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Append(QualityMetrics{CommitHash: "c1", Coverage: 80}))
	require.NoError(t, s.Append(QualityMetrics{CommitHash: "c2", Coverage: 85}))

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "c2", latest.CommitHash)
}

func TestStoreReloadsPersistedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := LoadStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(QualityMetrics{CommitHash: "c1", Coverage: 80}))

	reloaded, err := LoadStore(path)
	require.NoError(t, err)
	m, ok := reloaded.ByCommit("c1")
	require.True(t, ok)
	assert.Equal(t, 80.0, m.Coverage)
}

func TestLoadStoreMissingFileIsEmpty(t *testing.T) {
	s, err := LoadStore(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestLoadStoreCorruptedFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	s, err := LoadStore(path)
	require.NoError(t, err)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestCompareDetectsRegressionsAndImprovements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := LoadStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(QualityMetrics{CommitHash: "base", Coverage: 85, TypeErrorCount: 2}))

	current := QualityMetrics{CommitHash: "head", Coverage: 80, TypeErrorCount: 0}
	cmp, err := Compare(current, s, "base")
	require.NoError(t, err)

	assert.Contains(t, cmp.Regressions[0], "coverage")
	found := false
	for _, imp := range cmp.Improvements {
		if strings.Contains(imp, "type_error_count") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, -5.0, cmp.Delta["coverage"])
}

func TestCompareWithNoHistoryReturnsEmptyDelta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := LoadStore(path)
	require.NoError(t, err)

	cmp, err := Compare(QualityMetrics{Coverage: 90}, s, "")
	require.NoError(t, err)
	assert.Empty(t, cmp.Improvements)
	assert.Empty(t, cmp.Regressions)
}

func TestCompareUnknownBaselineHashErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := LoadStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(QualityMetrics{CommitHash: "c1"}))

	_, err = Compare(QualityMetrics{}, s, "does-not-exist")
	assert.Error(t, err)
}
