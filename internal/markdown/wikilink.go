package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Wikilink is an inline `[[Target]]` or `[[Target|label]]` link between
// vault pages. It renders as an anchor carrying the "wikilink" marker class
// so the post-processing pass can recognize internal links.
type Wikilink struct {
	gmast.BaseInline
	Target []byte
	Label  []byte
}

// KindWikilink is the node kind of Wikilink.
var KindWikilink = gmast.NewNodeKind("Wikilink")

// Kind implements ast.Node.
func (n *Wikilink) Kind() gmast.NodeKind { return KindWikilink }

// Dump implements ast.Node.
func (n *Wikilink) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"Target": string(n.Target),
		"Label":  string(n.Label),
	}, nil)
}

// WikilinkExtension wires wikilink parsing and rendering into goldmark.
// Link targets resolve to BaseURL + target + "/".
type WikilinkExtension struct {
	BaseURL string
}

// Extend implements goldmark.Extender.
func (e *WikilinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// Above the standard link parser so `[[` wins over `[`.
		util.Prioritized(&wikilinkParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&wikilinkRenderer{baseURL: e.BaseURL}, 500),
	))
}

type wikilinkParser struct{}

func (p *wikilinkParser) Trigger() []byte { return []byte{'['} }

func (p *wikilinkParser) Parse(_ gmast.Node, block text.Reader, _ parser.Context) gmast.Node {
	line, _ := block.PeekLine()
	if len(line) < 5 || line[0] != '[' || line[1] != '[' {
		return nil
	}
	end := bytes.Index(line, []byte("]]"))
	if end < 2 {
		return nil
	}
	inner := line[2:end]
	if len(inner) == 0 || bytes.ContainsAny(inner, "[]") {
		return nil
	}

	target, label := inner, inner
	if i := bytes.IndexByte(inner, '|'); i >= 0 {
		target = bytes.TrimSpace(inner[:i])
		label = bytes.TrimSpace(inner[i+1:])
		if len(target) == 0 || len(label) == 0 {
			return nil
		}
	}

	block.Advance(end + 2)
	n := &Wikilink{
		Target: append([]byte(nil), target...),
		Label:  append([]byte(nil), label...),
	}
	return n
}

type wikilinkRenderer struct {
	baseURL string
}

func (r *wikilinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikilink, r.render)
}

func (r *wikilinkRenderer) render(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*Wikilink)

	// Target text is kept verbatim (spaces included) so the href matches the
	// page's logical path; only HTML attribute escaping is applied.
	_, _ = w.WriteString(`<a class="wikilink" href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.baseURL + string(n.Target) + "/")))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString("</a>")
	return gmast.WalkSkipChildren, nil
}
