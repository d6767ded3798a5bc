package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newVault(t *testing.T, configTOML string) string {
	t.Helper()
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, ".foliate", "config.toml"), configTOML)
	return vault
}

func findingsContain(findings []string, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}

func TestRun_NoConfig_ReportsError(t *testing.T) {
	report := Run(t.TempDir())
	require.False(t, report.Healthy())
	require.True(t, findingsContain(report.Errors, "foliate init"))
}

func TestRun_InvalidTOML_ReportsError(t *testing.T) {
	vault := newVault(t, "site = [broken\n")
	report := Run(vault)
	require.False(t, report.Healthy())
	require.True(t, findingsContain(report.Errors, "Unable to load"))
}

func TestRun_HealthyVault(t *testing.T) {
	vault := newVault(t, "[site]\nname = \"Garden\"\nurl = \"https://example.com\"\n")
	writeFile(t, filepath.Join(vault, "_homepage", "Home.md"), "---\npublic: true\n---\nhi")

	report := Run(vault)
	require.True(t, report.Healthy())
	require.True(t, findingsContain(report.OK, "Config loaded"))
	require.True(t, findingsContain(report.OK, "page.html, index.html"))
	require.True(t, findingsContain(report.OK, "using bundled defaults"))
}

func TestRun_MissingHomepageDir_Warns(t *testing.T) {
	vault := newVault(t, "[site]\nurl = \"https://example.com\"\n")

	report := Run(vault)
	require.True(t, report.Healthy())
	require.True(t, findingsContain(report.Warnings, "Homepage directory"))
}

func TestRun_FeedWithoutSiteURL_ReportsError(t *testing.T) {
	vault := newVault(t, "[feed]\nenabled = true\n")

	report := Run(vault)
	require.False(t, report.Healthy())
	require.True(t, findingsContain(report.Errors, "site.url"))
}

func TestRun_UserTemplateOverride_Listed(t *testing.T) {
	vault := newVault(t, "[site]\nurl = \"https://example.com\"\n")
	writeFile(t, filepath.Join(vault, ".foliate", "templates", "page.html"), "<html>{{.Title}}</html>")

	report := Run(vault)
	require.True(t, report.Healthy())
	require.True(t, findingsContain(report.OK, "User template overrides: page.html"))
	require.True(t, findingsContain(report.OK, "User templates directory"))
}

func TestRun_DeployTargetChecks(t *testing.T) {
	vault := newVault(t, "[site]\nurl = \"https://example.com\"\n\n[deploy]\ntarget = \"pages\"\n")

	report := Run(vault)
	require.True(t, findingsContain(report.Warnings, "Deploy target not found"))

	target := filepath.Join(vault, "pages")
	require.NoError(t, os.MkdirAll(target, 0o755))
	report = Run(vault)
	require.True(t, findingsContain(report.Warnings, "not a git repository"))

	_, err := git.PlainInit(target, false)
	require.NoError(t, err)
	report = Run(vault)
	require.True(t, findingsContain(report.OK, "Deploy target ready"))
}
