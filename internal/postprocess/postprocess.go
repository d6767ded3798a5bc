// Package postprocess enforces visibility rules on generated HTML after
// rendering: wikilinks pointing at private pages are unwrapped to plain
// text, and escaped dollar signs left by the math extension are cleaned.
package postprocess

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/page"
)

// Stats reports what Sanitize changed in one document.
type Stats struct {
	Modified       bool
	RemovedLinks   int
	CleanedDollars bool
}

// Run post-processes generated index.html files under the build directory.
// For full builds every page file is processed (the static/ subtree is
// excluded); for single-page builds only that page's output file. Per-file
// failures are logged and skipped.
func Run(cfg *config.Config, publicPages []*page.Page, singlePage string, log *slog.Logger) error {
	buildDir := cfg.BuildDir()
	if _, err := os.Stat(buildDir); err != nil {
		return fmt.Errorf("build directory %s does not exist", buildDir)
	}

	publicPaths := make(map[string]bool, len(publicPages))
	for _, p := range publicPages {
		publicPaths[p.Path] = true
	}

	var files []string
	if singlePage != "" {
		candidates := []string{
			filepath.Join(buildDir, cfg.WikiDirName(), filepath.FromSlash(singlePage), "index.html"),
			filepath.Join(buildDir, filepath.FromSlash(singlePage), "index.html"),
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				files = append(files, candidate)
				break
			}
		}
		if len(files) == 0 {
			log.Warn("no output file found for page", slog.String("page", singlePage))
			return nil
		}
	} else {
		err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() != "index.html" {
				return nil
			}
			rel, err := filepath.Rel(buildDir, path)
			if err != nil {
				return err
			}
			if strings.HasPrefix(filepath.ToSlash(rel), "static/") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk build dir: %w", err)
		}
	}

	modified := 0
	for _, file := range files {
		changed, err := processFile(file, publicPaths, cfg.WikiDirName(), log)
		if err != nil {
			log.Error("post-processing failed",
				slog.String("file", file), slog.Any("error", err))
			continue
		}
		if changed {
			modified++
		}
	}

	if singlePage == "" {
		log.Debug("post-processing complete",
			slog.Int("files", len(files)), slog.Int("modified", modified))
	}
	return nil
}

func processFile(path string, publicPaths map[string]bool, wikiPrefix string, log *slog.Logger) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	sanitized, stats, err := Sanitize(string(content), publicPaths, wikiPrefix)
	if err != nil {
		return false, err
	}
	if !stats.Modified {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
		return false, err
	}
	log.Debug("sanitized",
		slog.String("file", path),
		slog.Int("removed_links", stats.RemovedLinks),
		slog.Bool("cleaned_dollars", stats.CleanedDollars))
	return true, nil
}

// Sanitize rewrites one HTML document: anchors carrying the wikilink marker
// class whose target is not in publicPaths are unwrapped (their inner markup
// is preserved in place), and backslash-dollar sequences in text nodes are
// unescaped outside script/style/code/pre.
func Sanitize(htmlText string, publicPaths map[string]bool, wikiPrefix string) (string, Stats, error) {
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return "", Stats{}, fmt.Errorf("parse html: %w", err)
	}

	var stats Stats
	unwrapPrivateLinks(root, publicPaths, wikiPrefix, &stats)
	cleanEscapedDollars(root, &stats)

	if !stats.Modified {
		return htmlText, stats, nil
	}

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return "", Stats{}, fmt.Errorf("render html: %w", err)
	}
	return b.String(), stats, nil
}

// extractWikiPath maps a wikilink href onto a logical page path, or "" when
// the href does not address wiki content. With an empty prefix, any absolute
// path is a candidate.
func extractWikiPath(href, wikiPrefix string) string {
	if href == "" {
		return ""
	}
	var path string
	if wikiPrefix != "" {
		prefix := "/" + wikiPrefix + "/"
		if !strings.HasPrefix(href, prefix) {
			return ""
		}
		path = href[len(prefix):]
	} else {
		if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
			return ""
		}
		path = href[1:]
	}
	return strings.TrimSuffix(path, "/")
}

func unwrapPrivateLinks(n *html.Node, publicPaths map[string]bool, wikiPrefix string, stats *Stats) {
	// Children are collected first since unwrapping mutates the tree.
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for _, c := range children {
		unwrapPrivateLinks(c, publicPaths, wikiPrefix, stats)
	}

	if n.Type != html.ElementNode || n.DataAtom != atom.A || !hasClass(n, "wikilink") {
		return
	}
	wikiPath := extractWikiPath(attr(n, "href"), wikiPrefix)
	if wikiPath == "" || publicPaths[wikiPath] {
		return
	}
	unwrap(n)
	stats.Modified = true
	stats.RemovedLinks++
}

func cleanEscapedDollars(n *html.Node, stats *Stats) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Code, atom.Pre:
			return
		}
	}
	if n.Type == html.TextNode && strings.Contains(n.Data, `\$`) {
		n.Data = strings.ReplaceAll(n.Data, `\$`, "$")
		stats.Modified = true
		stats.CleanedDollars = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cleanEscapedDollars(c, stats)
	}
}

// unwrap replaces n with its own children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
