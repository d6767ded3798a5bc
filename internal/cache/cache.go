// Package cache persists per-file build timestamps between runs so
// incremental builds can skip unchanged pages, and tracks global
// dependencies (config, templates) whose change invalidates everything.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the cache file's name inside the cache directory.
const FileName = ".build_cache"

// Sentinel keys tracking global dependency modification times.
const (
	configMtimeKey    = "__config_mtime__"
	templatesMtimeKey = "__templates_mtime__"
)

// Cache maps absolute source paths (or sentinel keys) to the modification
// time, in fractional epoch seconds, observed when the file was last built.
type Cache map[string]float64

// Load reads the cache from disk. Any read or parse failure degrades to an
// empty cache: a corrupt cache means rebuilding everything, never a crash.
func Load(path string) Cache {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Cache{}
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		slog.Warn("Discarding unreadable build cache", "path", path, "error", err)
		return Cache{}
	}
	if c == nil {
		c = Cache{}
	}
	return c
}

// Save writes the cache atomically, creating parent directories as needed.
// The cache file is never left partially written.
func Save(path string, c Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// NeedsRebuild reports whether sourcePath must be re-rendered. Equal cached
// and on-disk timestamps count as still valid: ties favor the cache.
func NeedsRebuild(sourcePath, outputPath string, c Cache, force bool) bool {
	if force {
		return true
	}
	if _, err := os.Stat(outputPath); err != nil {
		return true
	}
	cached, ok := c[sourcePath]
	if !ok {
		return true
	}
	return cached < mtimeOf(sourcePath)
}

// GlobalDepsChanged reports whether the config file or any template changed
// since the sentinels were last stamped. A positive result must force a full
// rebuild: config and template changes can alter every page's rendering.
func GlobalDepsChanged(c Cache, configPath, userTemplatesDir string) bool {
	if configPath != "" {
		if m := mtimeOf(configPath); m > c[configMtimeKey] {
			return true
		}
	}
	return templatesMtime(userTemplatesDir) > c[templatesMtimeKey]
}

// UpdateGlobalDeps stamps both sentinels with currently observed mtimes.
// Called after a successful full save so the next run sees a clean baseline.
func UpdateGlobalDeps(c Cache, configPath, userTemplatesDir string) {
	if configPath != "" {
		if m := mtimeOf(configPath); m > 0 {
			c[configMtimeKey] = m
		}
	}
	c[templatesMtimeKey] = templatesMtime(userTemplatesDir)
}

// Record stores the current mtime of sourcePath.
func (c Cache) Record(sourcePath string) {
	c[sourcePath] = mtimeOf(sourcePath)
}

// templatesMtime returns the newest mtime across user template overrides
// and the bundled defaults. Bundled templates are compiled into the binary,
// so the executable's own mtime stands in for them: rebuilding foliate
// invalidates caches produced by the old templates.
func templatesMtime(userTemplatesDir string) float64 {
	max := 0.0
	if userTemplatesDir != "" {
		matches, _ := filepath.Glob(filepath.Join(userTemplatesDir, "*.html"))
		for _, m := range matches {
			if t := mtimeOf(m); t > max {
				max = t
			}
		}
	}
	if exe, err := os.Executable(); err == nil {
		if t := mtimeOf(exe); t > max {
			max = t
		}
	}
	return max
}

func mtimeOf(path string) float64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(st.ModTime().UnixNano()) / 1e9
}
