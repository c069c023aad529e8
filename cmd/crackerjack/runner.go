package main

import (
	"context"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/configmerge"
	"github.com/crackerjack-go/crackerjack/pkg/orchestrator"
)

// reloadingRunner satisfies jobcontrol.Runner and rebuilds its underlying
// Orchestrator whenever the project manifest or hook config changed on disk
// since the last run (spec §6 "read once at init; no live reconfiguration
// mid-run" — the reload only ever happens between runs, driven by
// configmerge.ConfigWatcher, never while a run is in flight).
type reloadingRunner struct {
	root, manifestPath, hookConfigPath string

	watcher *configmerge.ConfigWatcher

	mu   sync.Mutex
	orch *orchestrator.Orchestrator
}

func newReloadingRunner(root, manifestPath, hookConfigPath string) (*reloadingRunner, error) {
	orch, err := buildOrchestrator(root, manifestPath, hookConfigPath)
	if err != nil {
		return nil, err
	}

	watcher, err := configmerge.WatchConfigFiles(manifestPath, hookConfigPath)
	if err != nil {
		// A missing config file can't be watched yet; that's fine, it will
		// already have surfaced as a fatal error from buildOrchestrator above
		// if it mattered. Run with no reload capability rather than failing.
		log.Printf("config watcher disabled: %v", err)
		watcher = nil
	}

	return &reloadingRunner{root: root, manifestPath: manifestPath, hookConfigPath: hookConfigPath, watcher: watcher, orch: orch}, nil
}

func (r *reloadingRunner) Run(ctx context.Context, opts orchestrator.Options) (orchestrator.WorkflowResult, error) {
	r.mu.Lock()
	if r.watcher != nil && r.watcher.Stale() {
		log.Printf("reloading config after external edit")
		if orch, err := buildOrchestrator(r.root, r.manifestPath, r.hookConfigPath); err == nil {
			r.orch = orch
			r.watcher.Reset()
		} else {
			log.Printf("config reload failed, continuing with previous config: %v", err)
		}
	}
	orch := r.orch
	r.mu.Unlock()

	return orch.Run(ctx, opts)
}

func (r *reloadingRunner) Close() {
	if r.watcher != nil {
		r.watcher.Close()
	}
}
