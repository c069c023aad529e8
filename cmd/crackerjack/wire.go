package main

import (
	"os"
	"path/filepath"

	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/baseline"
	"github.com/crackerjack-go/crackerjack/pkg/config"
	"github.com/crackerjack-go/crackerjack/pkg/coordinator"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/gitgateway"
	"github.com/crackerjack-go/crackerjack/pkg/hookengine"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/orchestrator"
	"github.com/crackerjack-go/crackerjack/pkg/ratchet"
	"github.com/crackerjack-go/crackerjack/pkg/security"
	"github.com/crackerjack-go/crackerjack/pkg/testexec"
)

var log = logger.New("cmd")

// stateDir is where crackerjack keeps its own persisted state, separate
// from the project's own files (spec §6's baseline/ratchet/cache JSON and
// the transient .crackerjack-backup tree all live under here).
const stateDir = ".crackerjack"

// buildOrchestrator wires every C1-C11 component against root using the
// project's manifest and hook configuration, matching spec §6's "configured
// at init time only" rule: nothing here is re-read mid-run.
func buildOrchestrator(root, manifestPath, hookConfigPath string) (*orchestrator.Orchestrator, error) {
	env := config.LoadEnv()

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	hookCfg, err := config.LoadHookConfig(hookConfigPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(root, stateDir), 0o755); err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassFilesystem, "create state dir: %w", err)
	}

	hooks := orchestrator.BuildHooks(hookCfg, root)
	cacheDir := filepath.Join(root, stateDir, "cache")
	cache := baseline.NewCache(cacheDir, 512)

	workers := env.WorkerCount
	if workers <= 0 {
		workers = 8
	}
	engine := hookengine.New(root, hooks, cache, workers)
	executor := testexec.New(root)

	rat := ratchet.Load(filepath.Join(root, stateDir, "ratchet.json"), manifest.CoverageThreshold)
	store, err := baseline.LoadStore(filepath.Join(root, stateDir, "baseline.json"))
	if err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "load baseline store: %w", err)
	}

	git := gitgateway.New(root)
	events := security.NewEventLog(filepath.Join(root, stateDir, "security-events.jsonl"))

	modifier := filemod.New(root, filepath.Join(root, stateDir, "backups"))
	reg := buildAgentRegistry(root, modifier)

	coordOpts := coordinator.Options{
		ConfidenceThreshold: env.ConfidenceThreshold,
		MaxConcurrentAgents: workers,
	}

	return orchestrator.New(root, engine, executor, reg, rat, store, git, events, coordOpts), nil
}

// buildAgentRegistry registers the fixers that work without an external AI
// adapter (spec §4.6's deterministic formatter/import-organizer agents);
// the remaining C6 roster needs a real agent.FixProposer, which is the
// richer out-of-scope front end's job to supply, so it is left unregistered
// here rather than wired against agent.NullProposer's guaranteed failure.
func buildAgentRegistry(root string, modifier *filemod.Modifier) *agent.Registry {
	reg := agent.NewRegistry()
	for _, a := range []agent.Agent{agent.NewFormatterAgent(root, modifier), agent.NewImportOrganizerAgent(root, modifier)} {
		if err := reg.Register(a); err != nil {
			log.Printf("agent registration failed: %v", err)
		}
	}
	reg.Close()
	return reg
}
