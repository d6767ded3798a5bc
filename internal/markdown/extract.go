package markdown

import (
	"regexp"
	"strings"
)

// Strip pipeline for description extraction, applied in order. Replacement
// text keeps link/emphasis inner text and drops everything else.
var descriptionStrips = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`(?s)^---\s*\n.*?\n---\s*\n`), ""}, // frontmatter, in case not already stripped
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile("`[^`]+`"), ""},
	{regexp.MustCompile(`!\[.*?\]\(.*?\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\[\[([^\]]+)\]\]`), "$1"},
	{regexp.MustCompile(`(?m)^#+\s+`), ""},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{regexp.MustCompile(`\*([^*]+)\*`), "$1"},
	{regexp.MustCompile(`__([^_]+)__`), "$1"},
	{regexp.MustCompile(`_([^_]+)_`), "$1"},
	{regexp.MustCompile(`(?m)^>\s*`), ""},
	{regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`), ""},
	{regexp.MustCompile(`<[^>]+>`), ""},
	{regexp.MustCompile(`(?s)\$\$.*?\$\$`), ""},
	{regexp.MustCompile(`\$[^$]+\$`), ""},
}

var (
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	markdownImage   = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	htmlImage       = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
)

// DefaultDescriptionLength caps extracted page descriptions.
const DefaultDescriptionLength = 160

// ExtractDescription derives a plain-text description from raw markdown.
// Markup is stripped, whitespace collapsed, and the first paragraph of at
// least 50 characters is selected (falling back to the first paragraph).
// Results longer than maxLength are cut at a word boundary with "...".
func ExtractDescription(body string, maxLength int) string {
	if body == "" {
		return ""
	}

	content := body
	for _, s := range descriptionStrips {
		content = s.pattern.ReplaceAllString(content, s.repl)
	}
	content = strings.TrimSpace(whitespaceRuns.ReplaceAllString(content, " "))

	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	selected := ""
	for _, p := range paragraphs {
		if len([]rune(p)) >= 50 {
			selected = p
			break
		}
	}
	if selected == "" && len(paragraphs) > 0 {
		selected = paragraphs[0]
	}

	runes := []rune(selected)
	if len(runes) > maxLength {
		cut := string(runes[:maxLength-3])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		selected = cut + "..."
	}
	return selected
}

// ExtractFirstImage returns the URL of the first image in raw markdown.
// Markdown image syntax takes priority over inline HTML img tags even when
// the HTML tag appears earlier in the text: the two scans are independent.
func ExtractFirstImage(body string) string {
	if body == "" {
		return ""
	}
	if m := markdownImage.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if m := htmlImage.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}
