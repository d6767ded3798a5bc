package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	vault := t.TempDir()
	dir := filepath.Join(vault, ".foliate")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults_WhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".foliate", "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Site.Name)
	require.Equal(t, "wiki", cfg.Build.WikiPrefix)
	require.True(t, cfg.Build.Incremental)
	require.True(t, cfg.Feed.Enabled)
	require.Equal(t, 30, cfg.Feed.Window)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[site]
name = "Garden"
url = "https://garden.example"

[build]
ignored_folders = ["_private", "drafts"]
wiki_prefix = "notes"
incremental = false

[feed]
enabled = false
window = 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Garden", cfg.Site.Name)
	require.Equal(t, []string{"_private", "drafts"}, cfg.Build.IgnoredFolders)
	require.Equal(t, "notes", cfg.Build.WikiPrefix)
	require.False(t, cfg.Build.Incremental)
	require.False(t, cfg.Feed.Enabled)
	require.Equal(t, 7, cfg.Feed.Window)
}

func TestLoad_SetsVaultPathFromConfigLocation(t *testing.T) {
	path := writeConfig(t, "[site]\nname = \"x\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(filepath.Dir(path)), cfg.VaultPath)
	require.Equal(t, filepath.Join(cfg.VaultPath, ".foliate", "build"), cfg.BuildDir())
	require.Equal(t, filepath.Join(cfg.VaultPath, ".foliate", "cache"), cfg.CacheDir())
}

func TestFindConfig_SearchesUpward(t *testing.T) {
	path := writeConfig(t, "")
	vault := filepath.Dir(filepath.Dir(path))
	nested := filepath.Join(vault, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	require.Equal(t, path, FindConfig(nested))
	require.Equal(t, "", FindConfig(t.TempDir()))
}

func TestWikiBaseURL(t *testing.T) {
	cfg := Default()
	require.Equal(t, "/wiki/", cfg.WikiBaseURL())

	cfg.Build.WikiPrefix = ""
	require.Equal(t, "/", cfg.WikiBaseURL())
	require.Equal(t, "", cfg.WikiDirName())

	cfg.Build.WikiPrefix = "/notes/"
	require.Equal(t, "/notes/", cfg.WikiBaseURL())
	require.Equal(t, "notes", cfg.WikiDirName())
}

func TestClosestKey_Suggestions(t *testing.T) {
	require.Equal(t, "wiki_prefix", closestKey("wiki_prefx", validSections["build"]))
	require.Equal(t, "", closestKey("zzzzzz", validSections["build"]))
}

func TestFeedTitleFallback(t *testing.T) {
	cfg := Default()
	cfg.Site.Name = "Garden"
	require.Equal(t, "Garden", cfg.FeedTitle())
	cfg.Feed.Title = "Feed"
	require.Equal(t, "Feed", cfg.FeedTitle())
}
