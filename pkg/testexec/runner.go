package testexec

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cli/safeexec"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/security"
	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
)

var log = logger.New("testexec")

// Executor runs the Python test suite and streams its progress as a typed
// Event sequence (spec §4.3, C3).
type Executor struct {
	root string
}

// New constructs an Executor rooted at projectRoot.
func New(projectRoot string) *Executor {
	return &Executor{root: projectRoot}
}

// muxer assigns monotonic sequence numbers to events arriving concurrently
// from stdout and stderr readers (spec §4.3 "Output ordering").
type muxer struct {
	mu      sync.Mutex
	seq     int
	onEvent func(Event)
}

func (m *muxer) emit(e Event) {
	m.mu.Lock()
	m.seq++
	e.Seq = m.seq
	e.Timestamp = time.Now()
	cb := m.onEvent
	m.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

// stuckMonitor tracks in-flight tests and fires an EventTestStuck
// notification if one runs longer than threshold without a terminal event
// (spec §4.3: "flags any single test exceeding stuck-threshold... without
// killing it").
type stuckMonitor struct {
	mu        sync.Mutex
	threshold time.Duration
	timers    map[string]*time.Timer
	onStuck   func(testID string)
}

func newStuckMonitor(threshold time.Duration, onStuck func(string)) *stuckMonitor {
	return &stuckMonitor{threshold: threshold, timers: map[string]*time.Timer{}, onStuck: onStuck}
}

func (s *stuckMonitor) start(testID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[testID]; ok {
		t.Stop()
	}
	s.timers[testID] = time.AfterFunc(s.threshold, func() { s.onStuck(testID) })
}

func (s *stuckMonitor) finish(testID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[testID]; ok {
		t.Stop()
		delete(s.timers, testID)
	}
}

func (s *stuckMonitor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
}

// RunTests launches the test suite per opts and streams classified events to
// onEvent in arrival order, returning the aggregated issue.TestResult once
// the run finishes, times out, or crashes (spec §4.3 "Contract").
func (e *Executor) RunTests(ctx context.Context, opts RunOptions, onEvent func(Event)) (issue.TestResult, error) {
	argv := e.buildArgv(opts)
	binPath, err := safeexec.LookPath(argv[0])
	if err != nil {
		return issue.TestResult{}, crkerr.Wrapf(crkerr.ClassSubprocess, "resolve test runner %q: %w", argv[0], err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binPath, argv[1:]...)
	cmd.Dir = e.root
	cmd.Env = security.SanitizedEnv(nil)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	agg := newAggregator()
	mx := &muxer{onEvent: func(ev Event) {
		agg.observe(ev)
		if onEvent != nil {
			onEvent(ev)
		}
	}}
	monitor := newStuckMonitor(opts.stuckThreshold(), func(testID string) {
		mx.emit(Event{Kind: EventTestStuck, TestID: testID, Message: "no progress for " + opts.stuckThreshold().String()})
	})
	defer monitor.stopAll()

	onLine := func(line string) {
		ev := parseLine(stripLine(line))
		switch ev.Kind {
		case EventTestStart:
			monitor.start(ev.TestID)
		case EventTestPass, EventTestFail, EventTestError, EventTestSkip:
			monitor.finish(ev.TestID)
		}
		mx.emit(ev)
	}

	var runErr error
	if opts.Colorize {
		runErr = e.runWithPTY(cmd, onLine)
	} else {
		runErr = e.runWithPipes(cmd, onLine)
	}

	if runCtx.Err() != nil {
		killProcessGroup(cmd)
		return agg.result(issue.StatusError), crkerr.Wrapf(crkerr.ClassTimeout, "test run timed out after %s", timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if agg.failed > 0 || agg.errors > 0 {
				return agg.result(issue.StatusFailed), nil
			}
			return agg.result(issue.StatusError), nil
		}
		return agg.result(issue.StatusError), crkerr.Wrapf(crkerr.ClassSubprocess, "run tests: %w", runErr)
	}
	if agg.failed > 0 {
		return agg.result(issue.StatusFailed), nil
	}
	return agg.result(issue.StatusPassed), nil
}

func (e *Executor) runWithPTY(cmd *exec.Cmd, onLine func(string)) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassSubprocess, "start pty: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	done := make(chan struct{})
	go func() {
		scanLines(ptmx, onLine)
		close(done)
	}()

	waitErr := cmd.Wait()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Printf("pty reader did not drain within grace period after process exit")
	}
	return waitErr
}

func (e *Executor) runWithPipes(cmd *exec.Cmd, onLine func(string)) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassSubprocess, "stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassSubprocess, "stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return crkerr.Wrapf(crkerr.ClassSubprocess, "start tests: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error { scanLines(stdout, onLine); return nil })
	g.Go(func() error { scanLines(stderr, onLine); return nil })
	_ = g.Wait()

	return cmd.Wait()
}

func scanLines(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// buildArgv constructs the pytest-style argv from opts (spec §4.3
// "Contract": coverage flags, worker count, benchmark mode, verbosity,
// pattern, path). The timeout is applied through the run context, not as a
// flag.
func (e *Executor) buildArgv(opts RunOptions) []string {
	argv := []string{"pytest", "--cov", "-q"}
	workers := opts.resolveWorkers(runtime.NumCPU())
	argv = append(argv, "-n", strconv.Itoa(workers))
	if opts.Benchmark {
		argv = append(argv, "--benchmark-only")
	}
	if opts.Verbose {
		argv = append(argv, "-v")
	}
	if opts.Pattern != "" {
		argv = append(argv, "-k", opts.Pattern)
	}
	if opts.TestPath != "" {
		argv = append(argv, opts.TestPath)
	}
	return argv
}
