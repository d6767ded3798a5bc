// Package page defines the central page entity assembled from a vault
// markdown file and its frontmatter.
package page

import (
	"strings"
	"time"

	"github.com/foliate/foliate/internal/frontmatter"
	"github.com/foliate/foliate/internal/markdown"
)

// Page is the assembled representation of a single vault page for one build
// pass. Pages are created fresh on every build invocation and never persist;
// only their rendered HTML and cache timestamps survive on disk.
type Page struct {
	// Path is the slash-separated logical path relative to the vault root,
	// extension stripped, homepage prefix removed.
	Path string

	// BaseURL is "/" for homepage content, the wiki prefix otherwise.
	BaseURL string

	// URL is BaseURL + Path + "/".
	URL string

	Title string
	Meta  frontmatter.Meta

	// Body is the raw markdown text with frontmatter stripped.
	Body string

	// HTML is the rendered body. Empty when the page was served from cache
	// without re-rendering; consumers needing HTML must re-render from Body.
	HTML string

	Description string
	Image       string
	Tags        []string

	// Published and Date are copied verbatim from frontmatter; `published`
	// may be a bool or a date.
	Published any
	Date      any

	// FileMtime is the source file's modification time (zero when the page
	// was not built from a real file). FileModified is its display form.
	FileMtime    time.Time
	FileModified string
}

// Assemble builds a Page from a logical path, parsed frontmatter, and the
// markdown body. When renderHTML is false the HTML field is left empty.
func Assemble(path string, meta frontmatter.Meta, body string, html string, baseURL string, mtime time.Time) *Page {
	p := &Page{
		Path:      path,
		BaseURL:   baseURL,
		URL:       baseURL + path + "/",
		Title:     meta.String("title", path),
		Meta:      meta,
		Body:      body,
		HTML:      html,
		Tags:      meta.StringList("tags"),
		Published: meta.Value("published"),
		Date:      meta.Value("date"),
	}

	p.Description = meta.String("description", "")
	if p.Description == "" {
		p.Description = markdown.ExtractDescription(body, markdown.DefaultDescriptionLength)
	}

	p.Image = meta.String("image", "")
	if p.Image == "" {
		p.Image = markdown.ExtractFirstImage(body)
	}
	if p.Image != "" && !strings.HasPrefix(p.Image, "/") &&
		!strings.HasPrefix(p.Image, "http://") && !strings.HasPrefix(p.Image, "https://") {
		p.Image = "/assets/" + p.Image
	}

	if !mtime.IsZero() {
		p.FileMtime = mtime
		p.FileModified = mtime.Format("2006-01-02")
	}
	return p
}

// IsPublished reports whether the page is flagged for feed and listing
// inclusion; a date value counts as published.
func (p *Page) IsPublished() bool {
	return p.Meta.Truthy("published")
}
