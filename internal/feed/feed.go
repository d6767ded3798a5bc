// Package feed generates the site's Atom feed: recently published pages as
// full entries plus a digest entry summarizing updated pages.
package feed

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/markdown"
	"github.com/foliate/foliate/internal/page"
)

// FileName is the feed artifact name under the wiki directory.
const FileName = "feed.xml"

const atomDateFormat = "2006-01-02T15:04:05Z"

// Generate writes the Atom feed for this build's published pages and returns
// the number of entries emitted. When no page qualifies, any stale feed file
// is removed and zero is returned. Pages served from cache carry no HTML;
// their content is re-rendered from the markdown body on demand.
func Generate(published []*page.Page, cfg *config.Config, renderer *markdown.Renderer, buildDir string) (int, error) {
	return generateAt(published, cfg, renderer, buildDir, time.Now().UTC())
}

func generateAt(published []*page.Page, cfg *config.Config, renderer *markdown.Renderer, buildDir string, now time.Time) (int, error) {
	feedPath := filepath.Join(buildDir, cfg.WikiDirName(), FileName)

	// Homepage-section content is excluded; with an empty wiki prefix every
	// page counts as wiki content.
	feedPages := published
	if prefix := cfg.WikiBaseURL(); prefix != "/" {
		feedPages = nil
		for _, p := range published {
			if strings.HasPrefix(p.URL, prefix) {
				feedPages = append(feedPages, p)
			}
		}
	}

	newPages, updatedPages := Classify(feedPages, cfg.Feed.Window, now)
	if len(newPages) == 0 && len(updatedPages) == 0 {
		if err := os.Remove(feedPath); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("remove stale feed: %w", err)
		}
		return 0, nil
	}

	siteURL := strings.TrimRight(cfg.Site.URL, "/")
	if len(newPages) > cfg.Feed.Items {
		newPages = newPages[:cfg.Feed.Items]
	}

	entries := make([]atomEntry, 0, len(newPages)+1)
	var latest time.Time
	for _, p := range newPages {
		publishedAt, _ := PublishedDate(p)
		updatedAt, ok := ModifiedDate(p)
		if !ok {
			updatedAt = publishedAt
		}
		if updatedAt.After(latest) {
			latest = updatedAt
		}

		content := p.HTML
		if content == "" {
			rendered, err := renderer.Render(p.Body, p.BaseURL)
			if err != nil {
				return 0, fmt.Errorf("render %s for feed: %w", p.Path, err)
			}
			content = rendered
		}

		entry := atomEntry{
			Title:     p.Title,
			ID:        siteURL + p.URL,
			Link:      &atomLink{Href: siteURL + p.URL, Rel: "alternate"},
			Published: publishedAt.Format(atomDateFormat),
			Updated:   updatedAt.Format(atomDateFormat),
		}
		if cfg.Feed.FullContent {
			entry.Content = &atomText{Type: "html", Body: content}
		} else {
			entry.Summary = &atomText{Type: "text", Body: ExtractSummary(content, summaryLength)}
		}
		entries = append(entries, entry)
	}

	if len(updatedPages) > 0 {
		mostRecent, _ := ModifiedDate(updatedPages[0])
		if mostRecent.After(latest) {
			latest = mostRecent
		}
		entries = append(entries, atomEntry{
			Title:     "Recently updated pages",
			ID:        siteURL + cfg.WikiBaseURL() + "#updates-" + mostRecent.Format("2006-01-02"),
			Link:      &atomLink{Href: siteURL + cfg.WikiBaseURL(), Rel: "alternate"},
			Published: mostRecent.Format(atomDateFormat),
			Updated:   mostRecent.Format(atomDateFormat),
			Content:   &atomText{Type: "html", Body: updatesDigest(updatedPages, siteURL)},
		})
	}

	if latest.IsZero() {
		latest = now
	}

	doc := newAtomFeed(cfg, siteURL, latest.Format(atomDateFormat), entries)
	data, err := doc.encode()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(feedPath), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(feedPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("write feed: %w", err)
	}
	return len(entries), nil
}

// updatesDigest renders the digest entry body: an HTML list of updated pages
// with ISO-formatted modification dates.
func updatesDigest(pages []*page.Page, siteURL string) string {
	var b strings.Builder
	b.WriteString("<p>The following pages were recently updated:</p>\n<ul>\n")
	for _, p := range pages {
		modified, _ := ModifiedDate(p)
		fmt.Fprintf(&b, "  <li><a href=\"%s\">%s</a> - %s</li>\n",
			html.EscapeString(siteURL+p.URL),
			html.EscapeString(p.Title),
			modified.Format("2006-01-02"))
	}
	b.WriteString("</ul>")
	return b.String()
}

func sortByDate(pages []*page.Page, dateOf func(*page.Page) time.Time) {
	sort.Slice(pages, func(i, j int) bool {
		di, dj := dateOf(pages[i]), dateOf(pages[j])
		if di.Equal(dj) {
			return pages[i].Path < pages[j].Path
		}
		return di.After(dj)
	})
}
