// Command crackerjack is a thin CLI front end over the workflow
// orchestrator (spec §6): it translates the CLI option table 1:1 into
// orchestrator.Options, submits one job through pkg/jobcontrol, blocks
// until it finishes, prints a failure report, and exits with a status
// naming the failure class. It has no interactive prompts and no progress
// bars; a richer front end is expected to drive pkg/jobcontrol's streaming
// API directly for long-lived multi-job sessions instead.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/jobcontrol"
	"github.com/crackerjack-go/crackerjack/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// Exit codes, one per failure class named in spec §6: "0 = success,
// non-zero = distinct failure classes (fatal config, hook failure, test
// failure, agent budget exhausted, timeout, security gate)".
const (
	exitSuccess        = 0
	exitFatalConfig    = 1
	exitHookOrTest     = 2
	exitBudgetExceeded = 3
	exitTimeout        = 4
	exitSecurityGate   = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		projectRoot    string
		manifestPath   string
		hookConfigPath string
		opts           orchestrator.Options
		deadline       time.Duration
	)

	cmd := &cobra.Command{
		Use:           "crackerjack",
		Short:         "Run the hook/test/fix quality workflow against a Python project",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deadline > 0 {
				opts.Deadline = time.Now().Add(deadline)
			}
			code := execute(cmd.Context(), projectRoot, manifestPath, hookConfigPath, opts)
			cmd.SilenceUsage = true
			return exitError{code: code}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&projectRoot, "project-root", ".", "project root to run against")
	flags.StringVar(&manifestPath, "manifest", "pyproject.toml", "path to the project manifest")
	flags.StringVar(&hookConfigPath, "hook-config", ".crackerjack/hooks.yaml", "path to the hook configuration")
	flags.BoolVar(&opts.RunTests, "run-tests", true, "include the test phase in sequencing")
	flags.BoolVar(&opts.AIFix, "ai-fix", false, "enable the agent coordinator")
	flags.BoolVar(&opts.SkipHooks, "skip-hooks", false, "bypass hook phases entirely")
	flags.IntVar(&opts.TestWorkers, "test-workers", 0, "override auto-detected worker count")
	flags.BoolVar(&opts.Benchmark, "benchmark", false, "switch test runner to benchmark mode")
	flags.BoolVar(&opts.Verbose, "verbose", false, "verbose reporting")
	flags.BoolVar(&opts.Debug, "debug", false, "debug reporting")
	flags.IntVar(&opts.MaxIterations, "max-iterations", 10, "iteration budget")
	flags.BoolVar(&opts.CoverageStrict, "coverage-strict", true, "treat any coverage regression as fatal")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "pass-through to the file modifier; no writes anywhere")
	flags.DurationVar(&deadline, "deadline", 0, "optional overall workflow deadline (0 disables)")

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		var ee exitError
		if ok := asExitError(err, &ee); ok {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFatalConfig
	}
	return exitSuccess
}

// exitError carries a precomputed exit code through cobra's error path so
// RunE can report a code without cobra printing a redundant "Error: ..."
// line for outcomes that already printed their own report.
type exitError struct{ code int }

func (e exitError) Error() string { return "" }

func asExitError(err error, target *exitError) bool {
	if ee, ok := err.(exitError); ok {
		*target = ee
		return true
	}
	return false
}

// execute drives the run through pkg/jobcontrol rather than calling
// orchestrator.Run directly, so the one-shot CLI path exercises the same
// submit/stream/status contract the MCP/WebSocket collaborator uses (spec
// §6). The progress stream is drained silently: this front end has no
// progress bars.
func execute(ctx context.Context, root, manifestPath, hookConfigPath string, opts orchestrator.Options) int {
	runner, err := newReloadingRunner(root, manifestPath, hookConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return classifyExit(err, exitFatalConfig)
	}
	defer runner.Close()

	controller := jobcontrol.New(runner)
	id, err := controller.Submit(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return classifyExit(err, exitFatalConfig)
	}

	stream, err := controller.ProgressStream(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return classifyExit(err, exitFatalConfig)
	}
	for range stream {
	}

	snap, err := controller.Status(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return classifyExit(err, exitFatalConfig)
	}
	if snap.Err != "" {
		fmt.Fprintln(os.Stderr, snap.Err)
		return classifyExit(fmt.Errorf("%s", snap.Err), exitFatalConfig)
	}
	result := *snap.Result

	if report := orchestrator.FailureReport(result, opts.Verbose || opts.Debug); report != "" {
		fmt.Fprintln(os.Stderr, report)
	}

	switch result.Status {
	case orchestrator.StatusSuccess:
		return exitSuccess
	case orchestrator.StatusTimeout:
		return exitTimeout
	case orchestrator.StatusPartialFailure:
		return exitBudgetExceeded
	case orchestrator.StatusFatal:
		return classifyExit(fmt.Errorf("%s", result.Error), exitFatalConfig)
	default:
		return exitHookOrTest
	}
}

// classifyExit maps a wrapped error's crkerr.Class to its named exit code,
// falling back to fallback when the error carries no class (e.g. plain I/O
// errors from config loading).
func classifyExit(err error, fallback int) int {
	class, ok := crkerr.ClassOf(err)
	if !ok {
		return fallback
	}
	switch class {
	case crkerr.ClassSecurity:
		return exitSecurityGate
	case crkerr.ClassTimeout:
		return exitTimeout
	case crkerr.ClassConfig:
		return exitFatalConfig
	default:
		return exitHookOrTest
	}
}
