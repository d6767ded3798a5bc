// Package markdown renders vault markdown to HTML and extracts display
// metadata (descriptions, preview images) from raw markdown text.
package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown bodies to HTML. Wikilinks resolve against the
// base URL of the content section being rendered, so one goldmark instance
// is kept per base URL.
type Renderer struct {
	wikiPrefix string

	mu      sync.Mutex
	engines map[string]goldmark.Markdown
}

// NewRenderer returns a Renderer. wikiPrefix is the configured wiki URL
// prefix without slashes (e.g. "wiki"); it is used when correcting internal
// links in homepage-section content.
func NewRenderer(wikiPrefix string) *Renderer {
	return &Renderer{
		wikiPrefix: wikiPrefix,
		engines:    map[string]goldmark.Markdown{},
	}
}

// Render converts a markdown body (frontmatter already stripped) to HTML.
// baseURL determines where wikilinks point ("/" for homepage content, the
// wiki prefix for everything else).
func (r *Renderer) Render(body string, baseURL string) (string, error) {
	src := ExpandImageSizes(body)

	var buf bytes.Buffer
	if err := r.engine(baseURL).Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	html := RewriteAssetPaths(buf.String())
	if baseURL == "/" {
		html = RewriteHomepageLinks(html, r.wikiPrefix)
	}
	return html, nil
}

func (r *Renderer) engine(baseURL string) goldmark.Markdown {
	r.mu.Lock()
	defer r.mu.Unlock()

	if md, ok := r.engines[baseURL]; ok {
		return md
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&WikilinkExtension{BaseURL: baseURL},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	r.engines[baseURL] = md
	return md
}
