package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", FileName)
	c := Cache{
		"/vault/a.md":     1700000000.25,
		"/vault/b.md":     1700000123.5,
		configMtimeKey:    1699999999.0,
		templatesMtimeKey: 1699999000.0,
	}
	require.NoError(t, Save(path, c))
	require.Equal(t, c, Load(path))
}

func TestLoad_MissingFile_ReturnsEmpty(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope"))
	require.NotNil(t, c)
	require.Empty(t, c)
}

func TestLoad_CorruptFile_ReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	require.Empty(t, Load(path))
}

func TestNeedsRebuild(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.md")
	out := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("y"), 0o644))

	c := Cache{}

	require.True(t, NeedsRebuild(src, out, c, false), "no cache entry")
	require.True(t, NeedsRebuild(src, out, c, true), "force always rebuilds")

	c.Record(src)
	require.False(t, NeedsRebuild(src, out, c, false), "tie favors the cache")
	require.True(t, NeedsRebuild(src, out, c, true))

	require.True(t, NeedsRebuild(src, filepath.Join(dir, "missing.html"), c, false), "missing output")

	// Bump the source mtime past the cached value.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(src, future, future))
	require.True(t, NeedsRebuild(src, out, c, false))
}

func TestGlobalDeps_ConfigChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[site]"), 0o644))

	c := Cache{}
	require.True(t, GlobalDepsChanged(c, cfgPath, tmplDir), "unstamped sentinels count as stale")

	UpdateGlobalDeps(c, cfgPath, tmplDir)
	require.False(t, GlobalDepsChanged(c, cfgPath, tmplDir))

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(cfgPath, future, future))
	require.True(t, GlobalDepsChanged(c, cfgPath, tmplDir))
}

func TestGlobalDeps_TemplateChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[site]"), 0o644))

	c := Cache{}
	UpdateGlobalDeps(c, cfgPath, tmplDir)
	require.False(t, GlobalDepsChanged(c, cfgPath, tmplDir))

	tmpl := filepath.Join(tmplDir, "page.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<html>"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(tmpl, future, future))
	require.True(t, GlobalDepsChanged(c, cfgPath, tmplDir))
}
