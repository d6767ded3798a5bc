package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foliate/foliate/internal/config"
)

func TestRunInit_ScaffoldsProject(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, runInit(root, false))

	require.FileExists(t, filepath.Join(root, ".foliate", "config.toml"))
	require.FileExists(t, filepath.Join(root, ".foliate", "templates", "page.html"))
	require.FileExists(t, filepath.Join(root, ".foliate", "templates", "index.html"))
	require.FileExists(t, filepath.Join(root, ".foliate", "static", "main.css"))

	// The scaffolded config must load cleanly.
	cfg, err := config.Load(filepath.Join(root, ".foliate", "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Site.Name)
	require.Equal(t, "about", cfg.Build.HomeRedirect)
}

func TestRunInit_RefusesExistingConfigWithoutForce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, runInit(root, false))

	err := runInit(root, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")
}

func TestRunInit_ForceOverwritesConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, runInit(root, false))

	customized := filepath.Join(root, ".foliate", "config.toml")
	require.NoError(t, os.WriteFile(customized, []byte("[site]\nname = \"Mine\"\n"), 0o644))

	require.NoError(t, runInit(root, true))
	data, err := os.ReadFile(customized)
	require.NoError(t, err)
	require.Contains(t, string(data), "My Site")
}

func TestRunClean_RemovesBuildAndCache(t *testing.T) {
	root := t.TempDir()
	buildDir := filepath.Join(root, ".foliate", "build")
	cacheDir := filepath.Join(root, ".foliate", "cache")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "index.html"), []byte("x"), 0o644))

	require.NoError(t, runClean(root))

	require.NoDirExists(t, buildDir)
	require.NoDirExists(t, cacheDir)
}

func TestRunClean_NothingToClean(t *testing.T) {
	require.NoError(t, runClean(t.TempDir()))
}
