package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/joho/godotenv"
)

var envLog = logger.New("config:env")

var envLoadOnce sync.Once

// LoadDotEnv loads a .env file (if present) into the process environment
// exactly once per process, matching spec §6: "All variables are read once
// at init; no live reconfiguration." A missing .env file is not an error —
// it simply means configuration comes entirely from the real environment.
func LoadDotEnv(path string) {
	envLoadOnce.Do(func() {
		if err := godotenv.Load(path); err != nil {
			envLog.Printf("No .env file loaded from %s: %v", path, err)
		}
	})
}

// Env is a fixed set of environment-derived settings, captured once at
// construction so later os.Setenv calls in the same process cannot leak into
// a running workflow (spec §6's "no live reconfiguration").
type Env struct {
	ServerPort          int
	CacheTTL            time.Duration
	WorkerCount         int
	ConfidenceThreshold float64
	AgentTimeout        time.Duration
	Debug               string
}

// LoadEnv reads the fixed set of crackerjack environment variables once.
func LoadEnv() Env {
	e := Env{
		ServerPort:          envInt("CRACKERJACK_SERVER_PORT", 0),
		CacheTTL:            envDuration("CRACKERJACK_CACHE_TTL", time.Hour),
		WorkerCount:         envInt("CRACKERJACK_WORKERS", 0),
		ConfidenceThreshold: envFloat("CRACKERJACK_CONFIDENCE_THRESHOLD", 0.7),
		AgentTimeout:        envDuration("CRACKERJACK_AGENT_TIMEOUT", 300*time.Second),
		Debug:               os.Getenv("DEBUG"),
	}
	envLog.Printf("Loaded environment: workers=%d confidence_threshold=%.2f agent_timeout=%s",
		e.WorkerCount, e.ConfidenceThreshold, e.AgentTimeout)
	return e
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		envLog.Printf("Invalid integer for %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		envLog.Printf("Invalid float for %s=%q, using default %.2f", key, v, def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		envLog.Printf("Invalid duration for %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}
