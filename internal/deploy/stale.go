package deploy

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foliate/foliate/internal/config"
)

// IsBuildStale reports whether any source file (markdown, config, user
// templates) is newer than the newest build output file. The second return
// is false when staleness cannot be determined.
func IsBuildStale(cfg *config.Config) (bool, bool) {
	if cfg.VaultPath == "" {
		return false, false
	}
	buildMtime := newestMtime(cfg.BuildDir(), nil)
	if buildMtime.IsZero() {
		return false, false
	}

	sourceMtime := newestMtime(cfg.VaultPath, func(path string) bool {
		rel, err := filepath.Rel(cfg.VaultPath, path)
		if err != nil {
			return true
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if parts[0] == ".foliate" {
			return true
		}
		for _, part := range parts[:len(parts)-1] {
			for _, ignored := range cfg.Build.IgnoredFolders {
				if part == ignored {
					return true
				}
			}
		}
		return !strings.HasSuffix(path, ".md")
	})

	if t := newestMtime(cfg.TemplatesDir(), nil); t.After(sourceMtime) {
		sourceMtime = t
	}
	if info, err := os.Stat(cfg.ConfigPath); err == nil && info.ModTime().After(sourceMtime) {
		sourceMtime = info.ModTime()
	}

	return sourceMtime.After(buildMtime), true
}

// newestMtime returns the most recent mtime of any file under root not
// rejected by skip; zero when root has no files.
func newestMtime(root string, skip func(path string) bool) time.Time {
	var newest time.Time
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if skip != nil && skip(path) {
			return nil
		}
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest
}
