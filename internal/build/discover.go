package build

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/frontmatter"
)

// Source is one public markdown file found in the vault, parsed and ready
// for the rebuild decision.
type Source struct {
	// FilePath is the absolute path of the markdown file.
	FilePath string
	// PagePath is the logical page path (no extension, homepage prefix
	// stripped).
	PagePath string
	// BaseURL is "/" for homepage-section content, the wiki base URL
	// otherwise.
	BaseURL string
	Meta    frontmatter.Meta
	Body    string
}

// isPathIgnored reports whether any directory component of path relative to
// base matches an ignored folder name. The filename itself is never matched.
func isPathIgnored(path, base string, ignoredFolders []string) bool {
	if len(ignoredFolders) == 0 {
		return false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts[:len(parts)-1] {
		for _, ignored := range ignoredFolders {
			if part == ignored {
				return true
			}
		}
	}
	return false
}

// contentInfo strips the homepage directory prefix and resolves the base URL
// for a logical page path.
func contentInfo(pagePath, homepageDir, wikiBaseURL string) (string, string, bool) {
	if strings.HasPrefix(pagePath, homepageDir+"/") {
		return pagePath[len(homepageDir)+1:], "/", true
	}
	return pagePath, wikiBaseURL, false
}

// discoverSources walks the vault and returns every public markdown file.
// Private pages are counted via onSkipped. singlePage restricts discovery to
// one logical path and overrides the privacy check for it (but not the
// ignored-folder check).
func discoverSources(cfg *config.Config, singlePage string, onSkipped func(filePath, pagePath string), log *slog.Logger) ([]Source, error) {
	var sources []Source

	wikiBaseURL := cfg.WikiBaseURL()
	err := filepath.WalkDir(cfg.VaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if isPathIgnored(path, cfg.VaultPath, cfg.Build.IgnoredFolders) {
			return nil
		}

		rel, err := filepath.Rel(cfg.VaultPath, path)
		if err != nil {
			return err
		}
		pagePath := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
		pagePath, baseURL, _ := contentInfo(pagePath, cfg.Build.HomepageDir, wikiBaseURL)

		if singlePage != "" && pagePath != singlePage {
			return nil
		}

		meta, body, err := frontmatter.Parse(path)
		if err != nil {
			log.Warn("frontmatter parse failed, treating page as empty",
				slog.String("file", path), slog.Any("error", err))
		}

		if !meta.Truthy("public") {
			if singlePage != "" && pagePath == singlePage {
				log.Debug("building single page, overriding privacy",
					slog.String("page", pagePath))
			} else {
				if onSkipped != nil {
					onSkipped(path, pagePath)
				}
				return nil
			}
		}

		sources = append(sources, Source{
			FilePath: path,
			PagePath: pagePath,
			BaseURL:  baseURL,
			Meta:     meta,
			Body:     body,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
