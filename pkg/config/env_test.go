package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("CRACKERJACK_SERVER_PORT", "")
	t.Setenv("CRACKERJACK_CACHE_TTL", "")
	t.Setenv("CRACKERJACK_WORKERS", "")
	t.Setenv("CRACKERJACK_CONFIDENCE_THRESHOLD", "")
	t.Setenv("CRACKERJACK_AGENT_TIMEOUT", "")

	e := LoadEnv()
	assert.Equal(t, 0, e.ServerPort)
	assert.Equal(t, time.Hour, e.CacheTTL)
	assert.Equal(t, 0.7, e.ConfidenceThreshold)
	assert.Equal(t, 300*time.Second, e.AgentTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRACKERJACK_WORKERS", "4")
	t.Setenv("CRACKERJACK_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("CRACKERJACK_AGENT_TIMEOUT", "45s")

	e := LoadEnv()
	assert.Equal(t, 4, e.WorkerCount)
	assert.Equal(t, 0.85, e.ConfidenceThreshold)
	assert.Equal(t, 45*time.Second, e.AgentTimeout)
}

func TestLoadEnvInvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("CRACKERJACK_WORKERS", "not-a-number")

	e := LoadEnv()
	assert.Equal(t, 0, e.WorkerCount)
}
