package ratchet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstUpdateSeedsBaseline(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	result := r.Update(75.0)

	assert.Equal(t, 75.0, result.NewBaseline)
	assert.False(t, result.Regression)
	assert.Equal(t, 75.0, r.Baseline)
}

func TestUpdateAdvancesBaselineAndCrossesMilestones(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	r.Update(15.0) // seeds baseline at 15, crosses milestone 10

	result := r.Update(35.0)
	assert.Equal(t, 35.0, result.NewBaseline)
	assert.ElementsMatch(t, []int{20, 30}, result.MilestonesCrossed)
	assert.False(t, result.Regression)
}

func TestUpdateDoesNotCrossMilestoneTwice(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	r.Update(25.0)
	result := r.Update(28.0)
	assert.Empty(t, result.MilestonesCrossed)
}

func TestUpdateBelowBaselineIsRegression(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	r.Update(85.0)

	result := r.Update(80.0)
	assert.True(t, result.Regression)
	assert.Equal(t, 85.0, r.Baseline, "baseline must not move backward")
}

func TestUpdateEqualToBaselineIsNotARegression(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	r.Update(80.0)

	result := r.Update(80.0)
	assert.False(t, result.Regression)
	assert.Equal(t, 80.0, r.Baseline)
}

func TestMonotonicityAcrossSequence(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "ratchet.json"), 100)
	sequence := []float64{50, 55, 52, 60, 58, 70}

	max := 0.0
	for _, c := range sequence {
		r.Update(c)
		if c > max {
			max = c
		}
	}
	assert.Equal(t, max, r.Baseline)
}

func TestSaveAndLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratchet.json")
	r := Load(path, 100)
	r.Update(42.0)
	require.NoError(t, r.Save())

	reloaded := Load(path, 100)
	assert.Equal(t, 42.0, reloaded.Baseline)
	require.Len(t, reloaded.History, 1)
}

func TestLoadCorruptedFileResetsToFreshRatchet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratchet.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	r := Load(path, 100)
	assert.Equal(t, 0.0, r.Baseline)
	assert.Empty(t, r.History)
}

func TestLoadSchemaInvalidFileResetsToFreshRatchet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratchet.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"baseline": "not-a-number", "history": [], "milestones": []}`), 0o644))

	r := Load(path, 100)
	assert.Equal(t, 0.0, r.Baseline)
}

func TestLoadMissingFileYieldsFreshRatchet(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"), 100)
	assert.Equal(t, 0.0, r.Baseline)
	assert.Empty(t, r.History)
}
