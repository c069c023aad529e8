// Package security implements crackerjack's guardrail layer (spec §4.11):
// path validation, a hardened subprocess executor, input validation, a
// dangerous-construct scanner for AI fix proposals, and a rate-limited
// security-event log. Every component that touches the filesystem or
// launches a subprocess routes through here.
//
// Grounded on githubnext-gh-aw/internal/tools/ghsecret (token/secret
// handling discipline) and on github.com/cli/safeexec (promoted from an
// indirect to a direct dependency) for hardened executable resolution, the
// same tool the teacher's own `gh` CLI wrapper relies on transitively.
package security

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/cli/safeexec"
	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
)

var subprocessLog = logger.New("security:subprocess")

// allowedEnvKeys is the fixed environment allowlist (spec §6: "sanitized
// environment (filtered keys)").
var allowedEnvKeys = map[string]bool{
	"PATH":   true,
	"HOME":   true,
	"LANG":   true,
	"LC_ALL": true,
	"TMPDIR": true,
	"TERM":   true,
	"SHELL":  true,
}

// SubprocessOptions configures one hardened subprocess invocation.
type SubprocessOptions struct {
	Dir       string
	Timeout   time.Duration
	ExtraEnv  []string // additional "KEY=VALUE" pairs allowed through
	GraceKill time.Duration
	Stdin     []byte // piped to the child's stdin when non-nil
}

// SubprocessResult captures a completed (or killed) subprocess invocation.
type SubprocessResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Subprocess is the hardened launcher every hook, test run, and git call
// goes through (spec §4.11, §5, §6).
type Subprocess struct {
	root string
}

// NewSubprocess constructs a Subprocess rooted at projectRoot; Dir in
// SubprocessOptions must resolve inside this root.
func NewSubprocess(projectRoot string) *Subprocess {
	return &Subprocess{root: projectRoot}
}

// Run executes argv (never through a shell) with a sanitized environment,
// validated cwd, and a hard timeout that escalates SIGTERM then SIGKILL after
// opts.GraceKill (default 5s per spec §5).
func (s *Subprocess) Run(ctx context.Context, argv []string, opts SubprocessOptions) (SubprocessResult, error) {
	if len(argv) == 0 {
		return SubprocessResult{}, crkerr.Wrapf(crkerr.ClassSubprocess, "empty argv")
	}

	dir := opts.Dir
	if dir == "" {
		dir = s.root
	}
	if err := ValidatePath(s.root, dir); err != nil {
		return SubprocessResult{}, crkerr.Wrapf(crkerr.ClassSecurity, "invalid subprocess cwd: %w", err)
	}

	binPath, err := safeexec.LookPath(argv[0])
	if err != nil {
		return SubprocessResult{}, crkerr.Wrapf(crkerr.ClassSubprocess, "resolve executable %q: %w", argv[0], err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binPath, argv[1:]...)
	cmd.Dir = dir
	cmd.Env = sanitizedEnv(opts.ExtraEnv)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	subprocessLog.Printf("Running %v in %s (timeout=%s)", argv, dir, timeout)

	startErr := cmd.Start()
	if startErr != nil {
		return SubprocessResult{}, crkerr.Wrapf(crkerr.ClassSubprocess, "start %v: %w", argv, startErr)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	grace := opts.GraceKill
	if grace <= 0 {
		grace = 5 * time.Second
	}

	select {
	case err := <-done:
		result := SubprocessResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode(cmd, err)}
		if runCtx.Err() != nil {
			return result, crkerr.Wrapf(crkerr.ClassTimeout, "%v timed out after %s", argv, timeout)
		}
		return result, nil
	case <-runCtx.Done():
		killProcessGroup(cmd, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(grace):
			killProcessGroup(cmd, syscall.SIGKILL)
			<-done
		}
		return SubprocessResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1},
			crkerr.Wrapf(crkerr.ClassTimeout, "%v timed out after %s", argv, timeout)
	}
}

func killProcessGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, sig)
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if waitErr == nil {
		return 0
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// SanitizedEnv exposes the allowlisted-environment construction used by Run,
// for callers (such as pkg/testexec) that need to launch a child process
// outside the buffered Run path but must still honor the same allowlist.
func SanitizedEnv(extra []string) []string {
	return sanitizedEnv(extra)
}

func sanitizedEnv(extra []string) []string {
	env := make([]string, 0, len(allowedEnvKeys)+len(extra))
	for _, kv := range os.Environ() {
		key, _, ok := splitEnv(kv)
		if ok && allowedEnvKeys[key] {
			env = append(env, kv)
		}
	}
	env = append(env, extra...)
	return env
}

func splitEnv(kv string) (key, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
