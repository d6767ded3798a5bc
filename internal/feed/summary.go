package feed

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// summaryLength caps the plain-text summary used when full_content is off.
const summaryLength = 300

// ExtractSummary pulls a plain-text summary from rendered HTML: the text of
// the first paragraph, or of the whole document when no paragraph exists,
// truncated with an ellipsis beyond maxLength.
func ExtractSummary(htmlText string, maxLength int) string {
	if htmlText == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return ""
	}

	var text string
	if p := findFirst(root, atom.P); p != nil {
		text = textContent(p)
	} else {
		text = textContent(root)
	}
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxLength {
		return string(runes[:maxLength]) + "..."
	}
	return text
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
