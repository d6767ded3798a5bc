package build

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/templates"
)

// assetExtensions lists the file types copied from the vault assets/
// directory into the build output.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".bmp": true, ".ico": true,
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".mp4": true, ".mp3": true, ".wav": true, ".avi": true, ".mov": true,
	".zip": true, ".tar": true, ".gz": true,
}

// copyStaticAssets writes the bundled static files into <build>/static and
// then layers user overrides from .foliate/static on top.
func copyStaticAssets(cfg *config.Config, buildDir string, force bool) error {
	staticDir := filepath.Join(buildDir, "static")
	if err := os.MkdirAll(staticDir, 0o755); err != nil {
		return fmt.Errorf("create static dir: %w", err)
	}

	bundled, err := templates.DefaultStatic()
	if err != nil {
		return fmt.Errorf("bundled static assets: %w", err)
	}
	err = fs.WalkDir(bundled, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		target := filepath.Join(staticDir, filepath.FromSlash(path))
		if !force {
			if _, statErr := os.Stat(target); statErr == nil {
				return nil
			}
		}
		data, err := fs.ReadFile(bundled, path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("copy bundled static: %w", err)
	}

	userStatic := cfg.StaticDir()
	if _, err := os.Stat(userStatic); err == nil {
		if err := syncDir(userStatic, staticDir, nil, false); err != nil {
			return fmt.Errorf("copy user static: %w", err)
		}
	}
	return nil
}

// copyUserAssets mirrors the vault assets/ directory into <build>/assets,
// restricted to the supported asset types.
func copyUserAssets(cfg *config.Config, buildDir string) error {
	src := filepath.Join(cfg.VaultPath, "assets")
	if _, err := os.Stat(src); err != nil {
		return nil
	}
	if err := syncDir(src, filepath.Join(buildDir, "assets"), assetExtensions, true); err != nil {
		return fmt.Errorf("copy assets: %w", err)
	}
	return nil
}

// syncDir mirrors src into target: new and stale files are copied, and when
// pruneTargetOnly is set, files present only in target are removed. extensions
// optionally restricts which source files participate (lowercased suffix).
func syncDir(src, target string, extensions map[string]bool, pruneTargetOnly bool) error {
	srcFiles, err := relFileSet(src, extensions)
	if err != nil {
		return err
	}
	targetFiles, err := relFileSet(target, nil)
	if err != nil {
		return err
	}

	for rel := range srcFiles {
		srcPath := filepath.Join(src, rel)
		targetPath := filepath.Join(target, rel)

		srcInfo, err := os.Stat(srcPath)
		if err != nil {
			return err
		}
		if targetInfo, err := os.Stat(targetPath); err == nil {
			if !srcInfo.ModTime().After(targetInfo.ModTime()) {
				continue
			}
		}
		if err := copyFile(srcPath, targetPath); err != nil {
			return err
		}
	}

	if pruneTargetOnly {
		for rel := range targetFiles {
			if srcFiles[rel] {
				continue
			}
			if err := os.Remove(filepath.Join(target, rel)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// relFileSet enumerates the relative file paths under root, optionally
// filtered by extension. A missing root yields an empty set.
func relFileSet(root string, extensions map[string]bool) (map[string]bool, error) {
	set := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extensions != nil && !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		set[rel] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func copyFile(src, target string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}
