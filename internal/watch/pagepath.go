package watch

import (
	"path/filepath"
	"strings"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/frontmatter"
)

// publicPagePath maps a changed markdown file to its logical page path. The
// single-page fast path only applies to public pages; anything else (private,
// unreadable, outside the vault) falls back to a normal pass.
func publicPagePath(filePath string, cfg *config.Config) (string, bool) {
	rel, err := filepath.Rel(cfg.VaultPath, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	pagePath := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
	if prefix := cfg.Build.HomepageDir + "/"; strings.HasPrefix(pagePath, prefix) {
		pagePath = pagePath[len(prefix):]
	}

	meta, _, err := frontmatter.Parse(filePath)
	if err != nil || !meta.Truthy("public") {
		return "", false
	}
	return pagePath, true
}
