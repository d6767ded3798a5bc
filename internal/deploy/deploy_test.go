package deploy

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/foliate/foliate/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.VaultPath = t.TempDir()
	cfg.ConfigPath = filepath.Join(cfg.VaultPath, ".foliate", "config.toml")
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// initTargetRepo creates a git working copy with an initial commit so that
// worktree status reflects only what the sync introduces. The seeded file
// is an excluded one so the sync never touches it.
func initTargetRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "CNAME"), "example.com\n")
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("CNAME")
	require.NoError(t, err)
	_, err = w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return repo
}

func TestRun_NoBuildOutput_ReturnsErrNoBuild(t *testing.T) {
	cfg := newTestConfig(t)
	_, err := New(cfg).WithLogger(testLogger()).Run(Options{})
	require.ErrorIs(t, err, ErrNoBuild)
}

func TestRun_MissingTarget_ReturnsErrTargetMissing(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html></html>")
	cfg.Deploy.Target = filepath.Join(cfg.VaultPath, "no-such-dir")

	_, err := New(cfg).WithLogger(testLogger()).Run(Options{})
	require.ErrorIs(t, err, ErrTargetMissing)
}

func TestRun_TargetNotRepo_ReturnsErrTargetNotRepo(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html></html>")
	cfg.Deploy.Target = t.TempDir()

	_, err := New(cfg).WithLogger(testLogger()).Run(Options{})
	require.ErrorIs(t, err, ErrTargetNotRepo)
}

func TestRun_DryRun_WritesNothing(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html></html>")
	target := t.TempDir()
	cfg.Deploy.Target = target
	initTargetRepo(t, target)

	committed, err := New(cfg).WithLogger(testLogger()).Run(Options{DryRun: true})
	require.NoError(t, err)
	require.False(t, committed)
	require.NoFileExists(t, filepath.Join(target, "index.html"))
}

func TestRun_CommitsSyncedOutput(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html>home</html>")
	writeFile(t, filepath.Join(cfg.BuildDir(), "wiki", "note", "index.html"), "<html>note</html>")
	target := t.TempDir()
	cfg.Deploy.Target = target
	repo := initTargetRepo(t, target)

	// Stale target file not present in the build output should be removed.
	writeFile(t, filepath.Join(target, "wiki", "old", "index.html"), "<html>old</html>")

	committed, err := New(cfg).WithLogger(testLogger()).Run(Options{Message: "publish"})
	// Push fails without a remote, but the commit must already be in place.
	require.Error(t, err)
	require.True(t, committed)

	require.FileExists(t, filepath.Join(target, "index.html"))
	require.FileExists(t, filepath.Join(target, "wiki", "note", "index.html"))
	require.NoFileExists(t, filepath.Join(target, "wiki", "old", "index.html"))
	require.FileExists(t, filepath.Join(target, "CNAME"))

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	require.Equal(t, "publish", commit.Message)
}

func TestRun_CleanWorktree_SkipsCommit(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html>home</html>")
	target := t.TempDir()
	cfg.Deploy.Target = target
	repo := initTargetRepo(t, target)

	// Put the build output in place and commit it, next run has no delta.
	writeFile(t, filepath.Join(target, "index.html"), "<html>home</html>")
	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(cfg.BuildDir(), "index.html"), now, now))
	require.NoError(t, os.Chtimes(filepath.Join(target, "index.html"), now, now))
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("index.html")
	require.NoError(t, err)
	_, err = w.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	committed, err := New(cfg).WithLogger(testLogger()).Run(Options{})
	require.NoError(t, err)
	require.False(t, committed)
}

func TestPlanSync_DiffsCopiesAndDeletions(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(src, "new.html"), "new")
	writeFile(t, filepath.Join(src, "same.html"), "same")
	writeFile(t, filepath.Join(target, "same.html"), "same")
	writeFile(t, filepath.Join(target, "gone.html"), "gone")
	writeFile(t, filepath.Join(target, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(target, "CNAME"), "example.com")

	// Equalize mtimes so only content presence drives the diff.
	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(src, "same.html"), now, now))
	require.NoError(t, os.Chtimes(filepath.Join(target, "same.html"), now, now))

	plan, err := planSync(src, target, []string{"CNAME"})
	require.NoError(t, err)
	require.Equal(t, []string{"new.html"}, plan.copies)
	require.Equal(t, []string{"gone.html"}, plan.deletions)
}

func TestPlanSync_NewerSourceIsCopied(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(src, "page.html"), "updated")
	writeFile(t, filepath.Join(target, "page.html"), "old")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(target, "page.html"), past, past))

	plan, err := planSync(src, target, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"page.html"}, plan.copies)
	require.Empty(t, plan.deletions)
}

func TestIsBuildStale_SourceNewerThanBuild(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html></html>")
	writeFile(t, filepath.Join(cfg.VaultPath, "Note.md"), "---\npublic: true\n---\nhi")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(cfg.BuildDir(), "index.html"), past, past))

	stale, ok := IsBuildStale(cfg)
	require.True(t, ok)
	require.True(t, stale)
}

func TestIsBuildStale_FreshBuild(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.VaultPath, "Note.md"), "---\npublic: true\n---\nhi")
	writeFile(t, filepath.Join(cfg.BuildDir(), "index.html"), "<html></html>")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(cfg.BuildDir(), "index.html"), future, future))

	stale, ok := IsBuildStale(cfg)
	require.True(t, ok)
	require.False(t, stale)
}

func TestIsBuildStale_NoBuildOutput(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.VaultPath, "Note.md"), "---\npublic: true\n---\nhi")

	_, ok := IsBuildStale(cfg)
	require.False(t, ok)
}
