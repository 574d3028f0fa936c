package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLLoader handles HTML files. h1-h6 carry the built-in heading styles,
// p/li/pre become paragraphs and tables keep their nesting.
type HTMLLoader struct {
	MaxTableDepth int
}

func (l *HTMLLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	h := &htmlWalker{b: newBuilder(filename, l.MaxTableDepth)}
	if body := findBody(doc); body != nil {
		h.walk(body, -1)
	} else {
		h.walk(doc, -1)
	}
	out := h.b.finish()
	out.Meta.TitleCoreprop = findTitle(doc)
	return out, nil
}

type htmlWalker struct {
	b     *builder
	lists int
}

func (h *htmlWalker) walk(n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			h.b.paragraph(c.Data, doctree.HeadingFeatures{})
		case html.ElementNode:
			h.element(c, depth)
		}
	}
}

func (h *htmlWalker) element(n *html.Node, depth int) {
	if level := headingLevel(n.Data); level > 0 {
		h.b.heading(textContent(n), level)
		return
	}
	switch n.Data {
	case "script", "style", "nav", "footer", "header", "template":
	case "p", "pre", "dt", "dd", "caption":
		h.b.paragraph(textContent(n), doctree.HeadingFeatures{IsBold: allBold(n)})
	case "ul", "ol":
		h.lists++
		id := fmt.Sprintf("html-list-%d", h.lists)
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type == html.ElementNode && li.Data == "li" {
				h.listItem(li, id, depth+1)
			}
		}
	case "table":
		h.b.table(htmlTable(n))
	default:
		if hasBlockChild(n) {
			h.walk(n, depth)
			return
		}
		h.b.paragraph(textContent(n), doctree.HeadingFeatures{IsBold: allBold(n)})
	}
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"aside": true, "blockquote": true, "pre": true, "ul": true, "ol": true,
	"dl": true, "table": true, "form": true, "figure": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// hasBlockChild reports whether any descendant of n starts a new block.
func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if blockTags[c.Data] || hasBlockChild(c) {
			return true
		}
	}
	return false
}

// listItem emits the item's own text as one numbered paragraph, then any
// nested lists or tables.
func (h *htmlWalker) listItem(li *html.Node, listID string, depth int) {
	var own strings.Builder
	var rest []*html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol" || c.Data == "table") {
			rest = append(rest, c)
			continue
		}
		own.WriteString(textContent(c))
	}
	lvl := depth
	h.b.paragraph(own.String(), doctree.HeadingFeatures{
		NumberingID:   listID,
		NumberingIlvl: &lvl,
		IsBold:        allBold(li),
	})
	for _, c := range rest {
		h.element(c, depth)
	}
}

// htmlTable collects rows of t that do not belong to a nested table.
func htmlTable(t *html.Node) rawTable {
	rt := rawTable{header: HeaderDefault}
	var collect func(*html.Node, bool)
	collect = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				collect(c, true)
			case "tbody", "tfoot":
				collect(c, false)
			case "tr":
				if len(rt.rows) == 0 {
					switch {
					case inHead:
						rt.header = HeaderTblHeader
					case allHeaderCells(c):
						rt.header = HeaderFirstRowStyle
					}
				}
				rt.rows = append(rt.rows, htmlRow(c))
			}
		}
	}
	collect(t, false)
	return rt
}

func htmlRow(tr *html.Node) []rawCell {
	var cells []rawCell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		rc := rawCell{text: textOutsideTables(c)}
		for _, nt := range childTables(c) {
			rc.tables = append(rc.tables, htmlTable(nt))
		}
		cells = append(cells, rc)
	}
	return cells
}

func allHeaderCells(tr *html.Node) bool {
	n := 0
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data != "th" {
			return false
		}
		n++
	}
	return n > 0
}

// childTables returns the outermost tables below n.
func childTables(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "table" {
			out = append(out, c)
			continue
		}
		out = append(out, childTables(c)...)
	}
	return out
}

func textOutsideTables(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extract(c)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// allBold reports whether every non-blank child of n is a b or strong
// element.
func allBold(n *html.Node) bool {
	seen := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == html.ElementNode && (c.Data == "b" || c.Data == "strong"):
			seen = true
		default:
			return false
		}
	}
	return seen
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
