package gitgateway

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeGitAuthFailure installs a "git" stub on PATH that always fails
// with an authentication-style stderr message, so run's error classification
// can be exercised without a real remote.
func writeFakeGitAuthFailure(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'fatal: Authentication failed for repo' >&2\nexit 128\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hello"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial commit")
	return root
}

func TestIsRepoTrueInsideRepo(t *testing.T) {
	root := initRepo(t)
	gw := New(root)
	assert.True(t, gw.IsRepo(context.Background()))
}

func TestIsRepoFalseOutsideRepo(t *testing.T) {
	gw := New(t.TempDir())
	assert.False(t, gw.IsRepo(context.Background()))
}

func TestCurrentBranch(t *testing.T) {
	root := initRepo(t)
	gw := New(root)
	branch, err := gw.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}

func TestChangedFilesReportsModification(t *testing.T) {
	root := initRepo(t)
	gw := New(root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("changed"), 0o644))

	changed, err := gw.ChangedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, changed, "README.md")
}

func TestAddAndCommit(t *testing.T) {
	root := initRepo(t)
	gw := New(root)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, gw.Add(ctx, "new.py"))
	require.NoError(t, gw.Commit(ctx, "add new.py"))

	staged, err := gw.StagedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, staged)

	changed, err := gw.ChangedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestGenerateCommitMessageNoFixes(t *testing.T) {
	msg := GenerateCommitMessage(nil, 0, "")
	assert.Contains(t, msg, "no fixes applied")
}

func TestGenerateCommitMessageSingularPlural(t *testing.T) {
	single := GenerateCommitMessage([]string{"formatting"}, 1, "")
	assert.Contains(t, single, "1 fix ")

	multi := GenerateCommitMessage([]string{"formatting", "type-error", "formatting"}, 3, "")
	assert.Contains(t, multi, "3 fixes ")
	assert.Contains(t, multi, "formatting")
	assert.Contains(t, multi, "type-error")
}

func TestGenerateCommitMessageIncludesRepoSlug(t *testing.T) {
	msg := GenerateCommitMessage([]string{"formatting"}, 1, "acme/widgets")
	assert.Contains(t, msg, "[acme/widgets]")
}

func TestHeadCommitReturnsHexSHA(t *testing.T) {
	root := initRepo(t)
	gw := New(root)

	hash := gw.HeadCommit(context.Background())
	require.Len(t, hash, 40)
}

func TestHeadCommitEmptyOutsideRepo(t *testing.T) {
	gw := New(t.TempDir())
	assert.Equal(t, "", gw.HeadCommit(context.Background()))
}

func TestRemoteSlugParsesGitHubOriginURL(t *testing.T) {
	root := initRepo(t)
	cmd := exec.Command("git", "remote", "add", "origin", "https://github.com/acme/widgets.git")
	cmd.Dir = root
	require.NoError(t, cmd.Run())

	gw := New(root)
	assert.Equal(t, "acme/widgets", gw.RemoteSlug(context.Background()))
}

func TestRemoteSlugEmptyWithoutOrigin(t *testing.T) {
	root := initRepo(t)
	gw := New(root)
	assert.Equal(t, "", gw.RemoteSlug(context.Background()))
}

func TestRunClassifiesAuthFailureAsSecurity(t *testing.T) {
	writeFakeGitAuthFailure(t)
	root := t.TempDir()
	gw := New(root)

	_, err := gw.run(context.Background(), "push", "-u", "origin", "main")
	require.Error(t, err)
	class, ok := crkerr.ClassOf(err)
	require.True(t, ok)
	assert.Equal(t, crkerr.ClassSecurity, class)
}

func TestDedupePreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "b", "a", "", "b"}))
}
