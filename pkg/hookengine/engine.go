package hookengine

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/baseline"
	"github.com/crackerjack-go/crackerjack/pkg/config"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/security"
	"github.com/sourcegraph/conc/pool"
)

var log = logger.New("hookengine")

// Engine runs the configured hook set against a project (spec §4.2, C2).
type Engine struct {
	root       string
	sp         *security.Subprocess
	cache      *baseline.Cache
	hooks      []Hook
	maxWorkers int
}

// New constructs an Engine rooted at projectRoot. cache may be nil, in which
// case every hook always executes (no caching). maxWorkers <= 0 defaults to
// runtime.NumCPU() (spec §4.2 "worker pool bounded by logical core count").
func New(projectRoot string, hooks []Hook, cache *baseline.Cache, maxWorkers int) *Engine {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Engine{
		root:       projectRoot,
		sp:         security.NewSubprocess(projectRoot),
		cache:      cache,
		hooks:      hooks,
		maxWorkers: maxWorkers,
	}
}

// RunFast executes every enabled fast-category hook over files (spec §4.2
// "run_fast(files?) -> [HookResult]"). An empty files slice runs each hook
// with no file arguments, which most linters interpret as "whole project".
func (e *Engine) RunFast(ctx context.Context, files []string) ([]issue.HookResult, error) {
	return e.run(ctx, config.CategoryFast, files)
}

// RunComprehensive executes every enabled comprehensive-category hook over
// files (spec §4.2 "run_comprehensive(files?) -> [HookResult]").
func (e *Engine) RunComprehensive(ctx context.Context, files []string) ([]issue.HookResult, error) {
	return e.run(ctx, config.CategoryComprehensive, files)
}

func (e *Engine) run(ctx context.Context, category config.HookCategory, files []string) ([]issue.HookResult, error) {
	var selected []Hook
	for _, h := range e.hooks {
		if h.Category == category {
			selected = append(selected, h)
		}
	}

	waves := schedule(selected)
	results := make(map[string]issue.HookResult, len(selected))

	for _, wave := range waves {
		wave := wave
		p := pool.NewWithResults[issue.HookResult]().WithMaxGoroutines(e.maxWorkers)
		for _, h := range wave {
			h := h
			p.Go(func() issue.HookResult {
				return e.runHook(ctx, h, files)
			})
		}
		for _, r := range p.Wait() {
			results[r.HookID] = r
		}
	}

	out := make([]issue.HookResult, 0, len(results))
	for _, h := range selected {
		if r, ok := results[h.ID]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HookID < out[j].HookID })
	return out, nil
}

// runHook executes one hook with caching and the spec §4.2 retry policy. It
// never returns an error: execution failures are captured in the returned
// HookResult's Status/Issues instead, so one hook's failure can never abort
// a wave of independent hooks.
func (e *Engine) runHook(ctx context.Context, h Hook, files []string) issue.HookResult {
	var key baseline.CacheKey
	cacheable := e.cache != nil && h.Expensive
	if cacheable {
		k, err := cacheKeyFor(h, e.root, files)
		if err != nil {
			log.Printf("cache key computation failed for %s, running uncached: %v", h.ID, err)
			cacheable = false
		} else {
			key = k
			if cached, ok := e.cache.Lookup(key); ok {
				cached.Status = issue.StatusCached
				return cached
			}
		}
	}

	result := e.execute(ctx, h, files, false)

	if cacheable && result.Status == issue.StatusPassed {
		result.CacheKey = key.HookID + ":" + key.FileHash + ":" + key.ToolVersion
		if err := e.cache.Store(key, result); err != nil {
			log.Printf("failed to write cache entry for %s: %v", h.ID, err)
		}
	}
	return result
}

// execute runs h once (or, via retried=true, as the single permitted retry)
// and applies the spec §4.2 retry policy on the first attempt's outcome.
func (e *Engine) execute(ctx context.Context, h Hook, files []string, retried bool) issue.HookResult {
	start := time.Now()
	argv := h.Argv(files)
	sres, err := e.sp.Run(ctx, argv, security.SubprocessOptions{Dir: e.root, Timeout: h.Timeout})
	duration := time.Since(start)

	if !retried && sres.ExitCode != 0 && len(sres.Stderr) == 0 {
		log.Printf("hook %s exited %d with empty stderr, retrying once", h.ID, sres.ExitCode)
		return e.execute(ctx, h, files, true)
	}
	if err != nil {
		return issue.HookResult{
			HookID:   h.ID,
			Status:   issue.StatusError,
			Duration: duration,
			Stdout:   string(StripANSI(sres.Stdout)),
			Stderr:   string(StripANSI(sres.Stderr)),
			ExitCode: sres.ExitCode,
		}
	}

	issues, parseErr := e.parse(h, sres.Stdout, sres.Stderr, sres.ExitCode)
	if parseErr != nil {
		if !retried {
			log.Printf("hook %s output failed to parse, retrying once: %v", h.ID, parseErr)
			retryFiles := files
			if h.NoCacheFlag != "" {
				h2 := h
				h2.Command = append(append([]string(nil), h.Command...), h.NoCacheFlag)
				return e.execute(ctx, h2, retryFiles, true)
			}
			return e.execute(ctx, h, retryFiles, true)
		}
		return issue.HookResult{
			HookID:   h.ID,
			Status:   issue.StatusError,
			Duration: duration,
			Stdout:   string(StripANSI(sres.Stdout)),
			Stderr:   string(StripANSI(sres.Stderr)),
			ExitCode: sres.ExitCode,
		}
	}

	status := issue.StatusPassed
	if len(issues) > 0 {
		status = issue.StatusFailed
	}
	return issue.HookResult{
		HookID:   h.ID,
		Status:   status,
		Duration: duration,
		Stdout:   string(StripANSI(sres.Stdout)),
		Stderr:   string(StripANSI(sres.Stderr)),
		ExitCode: sres.ExitCode,
		Issues:   issues,
	}
}

func (e *Engine) parse(h Hook, stdout, stderr []byte, exitCode int) ([]issue.Issue, error) {
	if h.Parser == nil {
		return nil, nil
	}
	raw, err := h.Parser(StripANSI(stdout), StripANSI(stderr), exitCode)
	if err != nil {
		return nil, err
	}
	for i := range raw {
		if raw[i].SourceTool == "" {
			raw[i].SourceTool = h.ID
		}
	}
	return issue.ClassifyHookResult(issue.HookResult{HookID: h.ID, Issues: raw}), nil
}
