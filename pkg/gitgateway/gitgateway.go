// Package gitgateway wraps the subset of git plumbing crackerjack's workflow
// needs to stage, commit, and push a fix batch (spec §4.10, C10).
//
// Grounded on githubnext-gh-aw's pkg/cli/git.go (isGitRepo, findGitRoot,
// getCurrentBranch, commitChanges, pushBranch) with every exec.Command call
// replaced by the hardened security.Subprocess launcher; its pkg/gitutil
// (IsAuthError) classifies subprocess stderr the same way
// update_command.go's push/pull error handling does, and its pkg/repoutil
// (ParseGitHubRepoURL) parses the origin remote the same way pkg/cli/repo.go
// derives a repo slug for commit metadata.
package gitgateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/gitutil"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/repoutil"
	"github.com/crackerjack-go/crackerjack/pkg/security"
)

var log = logger.New("gitgateway")

// Gateway is the git CLI wrapper crackerjack's orchestrator uses to inspect
// and commit the working tree (spec §4.10).
type Gateway struct {
	root string
	sp   *security.Subprocess
}

// New constructs a Gateway rooted at projectRoot.
func New(projectRoot string) *Gateway {
	return &Gateway{root: projectRoot, sp: security.NewSubprocess(projectRoot)}
}

// run invokes git with args and classifies a failure's stderr: an
// authentication failure (expired token, no credential helper, private
// remote) is a security-gate condition rather than an ordinary subprocess
// error, matching how the orchestrator routes crkerr.ClassSecurity failures
// to the security event log (spec §7 "security gate").
func (g *Gateway) run(ctx context.Context, args ...string) (string, error) {
	res, err := g.sp.Run(ctx, append([]string{"git"}, args...), security.SubprocessOptions{Dir: g.root})
	if err != nil {
		stderr := string(res.Stderr)
		wrapped := fmt.Errorf("git %s: %w (stderr: %s)", strings.Join(args, " "), err, stderr)
		if gitutil.IsAuthError(stderr) || gitutil.IsAuthError(err.Error()) {
			return "", crkerr.Wrap(crkerr.ClassSecurity, wrapped)
		}
		return "", crkerr.Wrap(crkerr.ClassSubprocess, wrapped)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// IsRepo reports whether the project root is inside a git working tree.
func (g *Gateway) IsRepo(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (g *Gateway) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := g.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", crkerr.Wrapf(crkerr.ClassSubprocess, "could not determine current branch (detached HEAD?)")
	}
	return branch, nil
}

// HeadCommit returns the current HEAD commit hash, used by the orchestrator
// to key quality-baseline snapshots (spec §3: "keyed by git hash"). Returns
// an empty string, not an error, outside a git repo or before the first
// commit, so baseline snapshots still work in an uncommitted scratch tree.
// The result is validated as a hex SHA before being trusted as a baseline
// key; anything else (a stray warning line git wrote to stdout, say) is
// treated the same as "no commit yet".
func (g *Gateway) HeadCommit(ctx context.Context) string {
	hash, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil || !gitutil.IsHexString(hash) {
		return ""
	}
	return hash
}

// RemoteSlug returns the "owner/repo" slug parsed from the origin remote
// URL, for attaching repository metadata to generated commit messages (spec
// §4.10). Returns "" rather than an error outside a git repo, with no
// origin remote, or against a non-GitHub remote — commit messages degrade
// gracefully without it.
func (g *Gateway) RemoteSlug(ctx context.Context) string {
	remoteURL, err := g.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	owner, repo, err := repoutil.ParseGitHubRepoURL(remoteURL)
	if err != nil {
		return ""
	}
	return owner + "/" + repo
}

// ChangedFiles lists every path git status --porcelain reports (staged,
// unstaged or untracked); for a rename it reports the new path.
func (g *Gateway) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelainPaths(out), nil
}

// StagedFiles lists paths currently in the index.
func (g *Gateway) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// UnpushedCount returns how many local commits on the current branch have
// not been pushed to its upstream.
func (g *Gateway) UnpushedCount(ctx context.Context) (int, error) {
	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return 0, err
	}
	out, err := g.run(ctx, "rev-list", "--count", fmt.Sprintf("origin/%s..HEAD", branch))
	if err != nil {
		// No upstream tracking branch is not a failure, just "everything unpushed".
		out, err = g.run(ctx, "rev-list", "--count", "HEAD")
		if err != nil {
			return 0, err
		}
	}
	n, convErr := strconv.Atoi(out)
	if convErr != nil {
		return 0, crkerr.Wrapf(crkerr.ClassParse, "parse rev-list count %q: %w", out, convErr)
	}
	return n, nil
}

// Add stages the given paths (or everything changed, if paths is empty).
func (g *Gateway) Add(ctx context.Context, paths ...string) error {
	args := []string{"add"}
	if len(paths) == 0 {
		args = append(args, "-A")
	} else {
		args = append(args, paths...)
	}
	_, err := g.run(ctx, args...)
	return err
}

// Commit commits staged changes with message.
func (g *Gateway) Commit(ctx context.Context, message string) error {
	log.Printf("committing with message: %s", message)
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// Push pushes branch to origin, setting upstream tracking on first push.
func (g *Gateway) Push(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "push", "-u", "origin", branch)
	return err
}

// GenerateCommitMessage builds a conventional commit message summarizing a
// completed fix batch (spec §4.10: "git commit message reflects the issue
// kinds fixed, not a generic 'crackerjack fixes'"). repoSlug, normally
// Gateway.RemoteSlug's result, is appended as metadata when non-empty; pass
// "" when the remote couldn't be resolved.
func GenerateCommitMessage(kinds []string, fixedCount int, repoSlug string) string {
	if fixedCount == 0 {
		msg := "chore: crackerjack quality pass (no fixes applied)"
		if repoSlug != "" {
			msg += " [" + repoSlug + "]"
		}
		return msg
	}
	unique := dedupe(kinds)
	summary := strings.Join(unique, ", ")
	if len(unique) == 0 {
		summary = "quality issues"
	}
	plural := "fix"
	if fixedCount != 1 {
		plural = "fixes"
	}
	msg := fmt.Sprintf("fix: resolve %d %s via crackerjack (%s)", fixedCount, plural, summary)
	if repoSlug != "" {
		msg += " [" + repoSlug + "]"
	}
	return msg
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func parsePorcelainPaths(out string) []string {
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	paths := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) < 3 {
			continue
		}
		// run trims the output, which drops the leading space of a first
		// " M path" line, so the path is taken from column 2 and trimmed.
		path := strings.TrimSpace(line[2:])
		if arrow := strings.Index(path, " -> "); arrow != -1 {
			path = path[arrow+4:]
		}
		paths = append(paths, path)
	}
	return paths
}
