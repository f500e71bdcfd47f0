package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/orchestrator"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorkspace(t *testing.T, tags ...string) (string, *git.Repository) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("SEMTAG_GITHUB_TOKEN", "")
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}})
	require.NoError(t, err)
	for _, tag := range tags {
		_, err := repo.CreateTag(tag, hash, nil)
		require.NoError(t, err)
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
	return dir, repo
}

func checkoutMain(t *testing.T, repo *git.Repository) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("main"),
		Create: true,
	}))
}

func headOf(t *testing.T, repo *git.Repository) plumbing.Hash {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Hash()
}

func addCommit(t *testing.T, repo *git.Repository, dir, name string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{Author: &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}})
	require.NoError(t, err)
	return hash
}

func addBareOrigin(t *testing.T, repo *git.Repository) *git.Repository {
	t.Helper()
	remoteDir := t.TempDir()
	origin, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)
	return origin
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredictCmd(t *testing.T) {
	t.Run("Should print the predicted version", func(t *testing.T) {
		dir, _ := setupWorkspace(t, "0.1.0", "1.0.0", "not-a-version")
		out, err := run(t, "predict", "--repo-path", dir, "--source-branch", "feature/login")
		require.NoError(t, err)
		assert.Equal(t, "1.1.0\n", out)
	})
	t.Run("Should print CI output", func(t *testing.T) {
		dir, _ := setupWorkspace(t, "1.0.0")
		out, err := run(t, "predict", "--repo-path", dir, "--source-branch", "fix!/api", "--ci-output")
		require.NoError(t, err)
		assert.Equal(t, "version=2.0.0\nlatest=1.0.0\nbump=major\n", out)
	})
	t.Run("Should bootstrap an untagged repository", func(t *testing.T) {
		dir, _ := setupWorkspace(t)
		out, err := run(t, "predict", "--repo-path", dir, "--source-branch", "fix/first")
		require.NoError(t, err)
		assert.Equal(t, "0.1.0\n", out)
	})
	t.Run("Should fail with exit code 1 for an invalid branch", func(t *testing.T) {
		dir, _ := setupWorkspace(t, "1.0.0")
		_, err := run(t, "predict", "--repo-path", dir, "--source-branch", "release/1.0")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidBranchName)
		assert.Equal(t, orchestrator.ExitFailure, orchestrator.ExitCode(err))
	})
	t.Run("Should require the source branch", func(t *testing.T) {
		dir, _ := setupWorkspace(t)
		_, err := run(t, "predict", "--repo-path", dir)
		assert.Error(t, err)
	})
}

func TestApplyCmd(t *testing.T) {
	t.Run("Should refuse to tag outside the main branch", func(t *testing.T) {
		dir, repo := setupWorkspace(t, "1.0.0")
		_, err := run(t, "apply", "--repo-path", dir, "--source-branch", "fix/x")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotOnMainBranch)
		assert.Equal(t, orchestrator.ExitFailure, orchestrator.ExitCode(err))
		_, err = repo.Tag("1.0.1")
		assert.ErrorIs(t, err, git.ErrTagNotFound)
	})
	t.Run("Should exit with code 2 when HEAD is already tagged", func(t *testing.T) {
		dir, repo := setupWorkspace(t, "1.0.0")
		checkoutMain(t, repo)
		_, err := run(t, "apply", "--repo-path", dir, "--source-branch", "fix/x")
		require.Error(t, err)
		assert.Equal(t, orchestrator.ExitAlreadyTagged, orchestrator.ExitCode(err))
		assert.Contains(t, err.Error(), "1.0.0")
	})
	t.Run("Should keep the local tag when the push fails", func(t *testing.T) {
		dir, repo := setupWorkspace(t)
		_, err := run(t, "apply", "--repo-path", dir, "--source-branch", "feature/x", "--pipeline")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRemoteNotFound)
		assert.Equal(t, orchestrator.ExitFailure, orchestrator.ExitCode(err))
		tag, err := repo.Tag("0.1.0")
		require.NoError(t, err)
		assert.Equal(t, headOf(t, repo), tag.Hash())

		_, err = run(t, "apply", "--repo-path", dir, "--source-branch", "feature/x", "--pipeline")
		require.Error(t, err)
		assert.Equal(t, orchestrator.ExitAlreadyTagged, orchestrator.ExitCode(err))
	})
	t.Run("Should delete the local tag after a failed push when configured", func(t *testing.T) {
		dir, _ := setupWorkspace(t)
		t.Setenv("SEMTAG_TAGGING_DELETE_ON_PUSH_FAILURE", "true")
		_, err := run(t, "apply", "--repo-path", dir, "--source-branch", "feature/x", "--pipeline")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRemoteNotFound)
		repo, err := git.PlainOpen(dir)
		require.NoError(t, err)
		_, err = repo.Tag("0.1.0")
		assert.ErrorIs(t, err, git.ErrTagNotFound)
	})
	t.Run("Should tag and push to origin from main", func(t *testing.T) {
		dir, repo := setupWorkspace(t, "1.0.0")
		checkoutMain(t, repo)
		head := addCommit(t, repo, dir, "CHANGELOG.md")
		origin := addBareOrigin(t, repo)
		t.Setenv("SEMTAG_RECORD_STATE", "true")
		out, err := run(t, "apply", "--repo-path", dir, "--source-branch", "fix/login")
		require.NoError(t, err)
		assert.Equal(t, orchestrator.ExitSuccess, orchestrator.ExitCode(err))
		assert.Contains(t, out, "Predicted version 1.0.1 for fix/login")
		assert.Contains(t, out, "Tagged "+head.String()[:7]+" with 1.0.1")
		assert.Contains(t, out, "Pushed 1.0.1 to origin")
		pushed, err := origin.Reference(plumbing.NewTagReferenceName("1.0.1"), true)
		require.NoError(t, err)
		assert.Equal(t, head, pushed.Hash())

		status, err := run(t, "status", "--repo-path", dir)
		require.NoError(t, err)
		assert.Contains(t, status, "Version:\t1.0.1")
		assert.Contains(t, status, "Status:\tdone (exit 0)")
		assert.Regexp(t, `push\s+completed`, status)
	})
}

func TestStatusCmd(t *testing.T) {
	t.Run("Should show the latest recorded run", func(t *testing.T) {
		dir, repo := setupWorkspace(t, "1.0.0")
		checkoutMain(t, repo)
		t.Setenv("SEMTAG_RECORD_STATE", "true")
		_, err := run(t, "apply", "--repo-path", dir, "--source-branch", "fix/x")
		require.Error(t, err)
		out, err := run(t, "status", "--repo-path", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Branch:\tfix/x")
		assert.Contains(t, out, "Status:\taborted (exit 2)")
		assert.Contains(t, out, "duplicate_check")
	})
	t.Run("Should report when nothing was recorded", func(t *testing.T) {
		dir, _ := setupWorkspace(t)
		out, err := run(t, "status", "--repo-path", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "No recorded runs")
	})
}

func TestVersionCmd(t *testing.T) {
	t.Run("Should print build information", func(t *testing.T) {
		setupWorkspace(t)
		out, err := run(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "Version:\tdev")
	})
}

func TestRemotePredictCmd(t *testing.T) {
	t.Run("Should reject a malformed repository slug", func(t *testing.T) {
		setupWorkspace(t)
		_, err := run(t, "remote-predict", "--github", "not-a-slug", "--source-branch", "fix/x")
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrInvalidBranchName))
	})
}
