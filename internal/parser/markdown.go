package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader handles Markdown files using goldmark. ATX and setext
// headings carry the built-in heading styles; GFM tables become table
// blocks; list items become numbered paragraphs.
type MarkdownLoader struct {
	MaxTableDepth int
}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	m := &mdWalker{b: newBuilder(filename, l.MaxTableDepth), src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		m.block(n, -1)
	}
	return m.b.finish(), nil
}

type mdWalker struct {
	b     *builder
	src   []byte
	lists int
}

// block emits n. depth is the list nesting of n, -1 outside lists.
func (m *mdWalker) block(n ast.Node, depth int) {
	switch node := n.(type) {
	case *ast.Heading:
		m.b.heading(inlineText(node, m.src), node.Level)
	case *ast.Paragraph, *ast.TextBlock:
		m.b.paragraph(inlineText(node, m.src), doctree.HeadingFeatures{IsBold: allStrong(node)})
	case *ast.List:
		m.lists++
		id := fmt.Sprintf("md-list-%d", m.lists)
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			m.listItem(item, id, depth+1)
		}
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			m.block(c, depth)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		m.b.paragraph(blockLines(node, m.src), doctree.HeadingFeatures{})
	case *east.Table:
		m.b.table(m.table(node))
	}
}

// listItem emits the item's text blocks as numbered paragraphs and recurses
// into nested lists one level deeper.
func (m *mdWalker) listItem(item ast.Node, listID string, depth int) {
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			lvl := depth
			m.b.paragraph(inlineText(c, m.src), doctree.HeadingFeatures{
				NumberingID:   listID,
				NumberingIlvl: &lvl,
				IsBold:        allStrong(c),
			})
		default:
			m.block(c, depth)
		}
	}
}

func (m *mdWalker) table(t *east.Table) rawTable {
	rt := rawTable{header: HeaderFirstRowStyle}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []rawCell
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				cells = append(cells, rawCell{text: inlineText(c, m.src)})
			}
		}
		rt.rows = append(rt.rows, cells)
	}
	return rt
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimSpace(buf.String())
}

// allStrong reports whether the block's only inline content is **strong**.
func allStrong(n ast.Node) bool {
	c := n.FirstChild()
	if c == nil || c.NextSibling() != nil {
		return false
	}
	e, ok := c.(*ast.Emphasis)
	return ok && e.Level == 2
}
