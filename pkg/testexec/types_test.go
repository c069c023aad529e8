package testexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveWorkersExplicitWins(t *testing.T) {
	o := RunOptions{Workers: 3}
	assert.Equal(t, 3, o.resolveWorkers(16))
}

func TestResolveWorkersAutoCapsAtEight(t *testing.T) {
	o := RunOptions{}
	assert.Equal(t, 8, o.resolveWorkers(32))
}

func TestResolveWorkersAutoUsesCoresWhenFewer(t *testing.T) {
	o := RunOptions{}
	assert.Equal(t, 2, o.resolveWorkers(2))
}

func TestStuckThresholdDefault(t *testing.T) {
	o := RunOptions{}
	assert.Equal(t, 60*time.Second, o.stuckThreshold())
}

func TestStuckThresholdOverride(t *testing.T) {
	o := RunOptions{StuckThreshold: 5 * time.Second}
	assert.Equal(t, 5*time.Second, o.stuckThreshold())
}
