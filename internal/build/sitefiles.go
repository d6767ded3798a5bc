package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/page"
	"github.com/foliate/foliate/internal/templates"
)

// searchEntry is one record in search.json, consumed by client-side search.
type searchEntry struct {
	Title     string   `json:"title"`
	Path      string   `json:"path"`
	URL       string   `json:"url"`
	Content   string   `json:"content"`
	Published string   `json:"published"`
	Tags      []string `json:"tags"`
}

// generateSiteFiles writes the site-wide artifacts: the root redirect, the
// wiki root redirect, search.json and sitemap.txt. Only invoked on full
// builds.
func generateSiteFiles(cfg *config.Config, engine *templates.Engine, buildDir string, publicPages []*page.Page) error {
	homeRedirect := strings.ToLower(cfg.Build.HomeRedirect)
	rootHTML, err := engine.Render("index.html", templates.RedirectData{
		RedirectURL:   "/" + homeRedirect + "/",
		RedirectTitle: titleCase(cfg.Build.HomeRedirect),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(buildDir, "index.html"), []byte(rootHTML), 0o644); err != nil {
		return fmt.Errorf("write home redirect: %w", err)
	}

	wikiDir := cfg.WikiDirName()
	if wikiDir != "" {
		wikiHTML, err := engine.Render("index.html", templates.RedirectData{
			RedirectURL:   "/" + wikiDir + "/" + cfg.Build.HomePage + "/",
			RedirectTitle: cfg.Build.HomePage,
		})
		if err != nil {
			return err
		}
		dir := filepath.Join(buildDir, wikiDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(wikiHTML), 0o644); err != nil {
			return fmt.Errorf("write wiki redirect: %w", err)
		}
	}

	if err := generateSearchIndex(cfg, buildDir, publicPages); err != nil {
		return err
	}
	return generateSitemap(cfg, buildDir, publicPages)
}

// generateSearchIndex writes search.json under the wiki directory with a
// 500-character content preview per page.
func generateSearchIndex(cfg *config.Config, buildDir string, publicPages []*page.Page) error {
	entries := make([]searchEntry, 0, len(publicPages))
	base := cfg.WikiBaseURL()
	for _, p := range publicPages {
		preview := p.Body
		if len(preview) > 500 {
			preview = preview[:500]
		}
		entries = append(entries, searchEntry{
			Title:     p.Title,
			Path:      p.Path,
			URL:       base + p.Path + "/",
			Content:   preview,
			Published: publishedString(p.Meta.Value("published")),
			Tags:      p.Tags,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal search index: %w", err)
	}
	dir := filepath.Join(buildDir, cfg.WikiDirName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "search.json"), data, 0o644); err != nil {
		return fmt.Errorf("write search index: %w", err)
	}
	return nil
}

// generateSitemap writes one URL per public page to sitemap.txt.
func generateSitemap(cfg *config.Config, buildDir string, publicPages []*page.Page) error {
	base := cfg.WikiBaseURL()
	lines := make([]string, 0, len(publicPages))
	for _, p := range publicPages {
		lines = append(lines, base+p.Path+"/")
	}
	if err := os.WriteFile(filepath.Join(buildDir, "sitemap.txt"), []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}

// publishedString renders a frontmatter published value for the search
// index: dates become ISO strings, everything else keeps its string form,
// absent or false-like values become empty.
func publishedString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case time.Time:
		if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 {
			return value.Format("2006-01-02")
		}
		return value.Format("2006-01-02T15:04:05")
	case string:
		return value
	case bool:
		if value {
			return "True"
		}
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
