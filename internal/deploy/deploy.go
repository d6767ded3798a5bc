// Package deploy publishes the build output into a GitHub Pages working
// copy: sync the output tree into the target repository, then commit and
// push the result.
package deploy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/foliate/foliate/internal/config"
)

var (
	// ErrNoBuild indicates no build output exists to deploy.
	ErrNoBuild = errors.New("build directory not found (run 'foliate build' first)")
	// ErrTargetMissing indicates the deploy target does not exist.
	ErrTargetMissing = errors.New("deploy target not found")
	// ErrTargetNotRepo indicates the deploy target is not a git repository.
	ErrTargetNotRepo = errors.New("deploy target is not a git repository")
)

// Options controls one deployment.
type Options struct {
	// DryRun logs what would change without writing, committing or pushing.
	DryRun bool
	// Message overrides the generated commit message.
	Message string
}

// Deployer syncs build output into the target repository.
type Deployer struct {
	cfg *config.Config
	log *slog.Logger
}

// New creates a Deployer for cfg.
func New(cfg *config.Config) *Deployer {
	return &Deployer{cfg: cfg, log: slog.Default()}
}

// WithLogger injects a logger.
func (d *Deployer) WithLogger(log *slog.Logger) *Deployer {
	d.log = log
	return d
}

// Run performs the deployment. Returns whether anything was committed.
func (d *Deployer) Run(opts Options) (bool, error) {
	buildDir := d.cfg.BuildDir()
	if _, err := os.Stat(buildDir); err != nil {
		return false, ErrNoBuild
	}

	target := d.cfg.Deploy.Target
	if target == "" {
		return false, fmt.Errorf("%w: deploy.target not configured", ErrTargetMissing)
	}
	if !filepath.IsAbs(target) && d.cfg.VaultPath != "" {
		target = filepath.Join(d.cfg.VaultPath, target)
	}
	if _, err := os.Stat(target); err != nil {
		return false, fmt.Errorf("%w: %s", ErrTargetMissing, target)
	}

	repo, err := git.PlainOpen(target)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrTargetNotRepo, target)
	}

	if stale, ok := IsBuildStale(d.cfg); ok && stale {
		d.log.Warn("build may be stale, source files changed since last build")
	}

	plan, err := planSync(buildDir, target, d.cfg.Deploy.Exclude)
	if err != nil {
		return false, err
	}
	d.log.Info("syncing build output",
		slog.String("target", target),
		slog.Int("copy", len(plan.copies)),
		slog.Int("delete", len(plan.deletions)))

	if opts.DryRun {
		for _, rel := range plan.copies {
			d.log.Info("would copy", slog.String("file", rel))
		}
		for _, rel := range plan.deletions {
			d.log.Info("would delete", slog.String("file", rel))
		}
		d.log.Info("dry run, skipping commit and push")
		return false, nil
	}

	if err := plan.apply(buildDir, target); err != nil {
		return false, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	if status.IsClean() {
		d.log.Info("no changes to deploy")
		return false, nil
	}

	message := opts.Message
	if message == "" {
		message = "Deploy: " + time.Now().Format("2006-01-02 15:04:05")
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("git add: %w", err)
	}
	d.log.Info("committing", slog.String("message", message))
	if _, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "foliate",
			Email: "foliate@localhost",
			When:  time.Now(),
		},
	}); err != nil {
		return false, fmt.Errorf("git commit: %w", err)
	}

	d.log.Info("pushing to remote")
	if err := repo.Push(&git.PushOptions{}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			d.log.Info("remote already up to date")
			return true, nil
		}
		return true, fmt.Errorf("git push: %w", err)
	}
	d.log.Info("deploy complete")
	return true, nil
}

// syncPlan is the computed difference between build output and target.
type syncPlan struct {
	copies    []string
	deletions []string
}

// planSync diffs the build tree against the target working copy: source
// files that are new or newer are copied, target files absent from the
// source are deleted. The target's .git directory and configured excludes
// are preserved.
func planSync(buildDir, target string, excludes []string) (*syncPlan, error) {
	srcFiles, err := relFiles(buildDir, nil)
	if err != nil {
		return nil, err
	}
	skip := func(rel string) bool {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if parts[0] == ".git" {
			return true
		}
		for _, exclude := range excludes {
			for _, part := range parts {
				if part == exclude {
					return true
				}
			}
		}
		return false
	}
	targetFiles, err := relFiles(target, skip)
	if err != nil {
		return nil, err
	}

	plan := &syncPlan{}
	for rel := range srcFiles {
		srcInfo, err := os.Stat(filepath.Join(buildDir, rel))
		if err != nil {
			return nil, err
		}
		if targetInfo, err := os.Stat(filepath.Join(target, rel)); err == nil {
			if !srcInfo.ModTime().After(targetInfo.ModTime()) &&
				srcInfo.Size() == targetInfo.Size() {
				continue
			}
		}
		plan.copies = append(plan.copies, rel)
	}
	for rel := range targetFiles {
		if !srcFiles[rel] {
			plan.deletions = append(plan.deletions, rel)
		}
	}
	return plan, nil
}

func (p *syncPlan) apply(buildDir, target string) error {
	for _, rel := range p.copies {
		data, err := os.ReadFile(filepath.Join(buildDir, rel))
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	for _, rel := range p.deletions {
		if err := os.Remove(filepath.Join(target, rel)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func relFiles(root string, skip func(rel string) bool) (map[string]bool, error) {
	set := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			set[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
