package markdown

import (
	"html"
	"regexp"
	"strings"
)

var (
	assetPathPattern    = regexp.MustCompile(`((?:src|href)=["'])assets/`)
	imageSizePattern    = regexp.MustCompile(`!\[([^|\]\n]*)\|(\d+)\]\(([^)\n]+)\)`)
	absoluteHrefPattern = regexp.MustCompile(`href="(/[^"]*?)"`)
)

// ExpandImageSizes converts Obsidian-style `![alt|width](url)` image syntax
// into an explicit img tag with a width attribute. Runs before markdown
// conversion, mirroring a preprocessor pass.
func ExpandImageSizes(src string) string {
	return imageSizePattern.ReplaceAllStringFunc(src, func(m string) string {
		parts := imageSizePattern.FindStringSubmatch(m)
		alt := html.EscapeString(strings.TrimSpace(parts[1]))
		width := parts[2]
		url := html.EscapeString(parts[3])
		return `<img src="` + url + `" alt="` + alt + `" width="` + width + `">`
	})
}

// RewriteAssetPaths converts relative `assets/` references in rendered HTML
// to absolute `/assets/` paths. Already-absolute and external URLs are left
// untouched because the pattern anchors on the opening quote.
func RewriteAssetPaths(htmlContent string) string {
	return assetPathPattern.ReplaceAllString(htmlContent, `${1}/assets/`)
}

// RewriteHomepageLinks corrects internal links authored from homepage
// content so they resolve into the wiki section: `href="/X"` becomes
// `href="/<wikiPrefix>/X"` unless X already targets the wiki, assets, an
// external URL, a fragment, or a mailto link.
func RewriteHomepageLinks(htmlContent string, wikiPrefix string) string {
	prefix := strings.Trim(wikiPrefix, "/")
	if prefix == "" {
		return htmlContent
	}
	skip := []string{prefix + "/", "assets/", "http://", "https://", "#", "mailto:"}

	return absoluteHrefPattern.ReplaceAllStringFunc(htmlContent, func(m string) string {
		path := absoluteHrefPattern.FindStringSubmatch(m)[1]
		clean := strings.Trim(path, "/")
		if clean == "" {
			return m
		}
		for _, s := range skip {
			if strings.HasPrefix(clean, s) {
				return m
			}
		}
		return `href="/` + prefix + path + `"`
	})
}
