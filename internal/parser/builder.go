package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// Header signal types attached to every loaded table.
const (
	HeaderTblHeader     = "tblHeader"
	HeaderFirstRowStyle = "firstRowStyle"
	HeaderDefault       = "default"
)

var headerConfidence = map[string]float64{
	HeaderTblHeader:     1.0,
	HeaderFirstRowStyle: 0.7,
	HeaderDefault:       0.5,
}

// rawTable is a loader's view of a table before ids are assigned. Row 0 is
// the header row.
type rawTable struct {
	rows   [][]rawCell
	header string
}

type rawCell struct {
	text   string
	tables []rawTable
}

// builder assembles the block stream. Paragraph ids count non-empty
// paragraphs only; table ids count top-level tables.
type builder struct {
	doc      *doctree.Document
	paras    int
	tables   int
	maxDepth int
	words    int
}

func newBuilder(filename string, maxDepth int) *builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxTableDepth
	}
	return &builder{
		doc: &doctree.Document{
			Meta:   doctree.DocMeta{Filename: filename},
			Styles: doctree.Styles{},
		},
		maxDepth: maxDepth,
	}
}

// paragraph appends a paragraph block. Whitespace-only text is skipped.
func (b *builder) paragraph(text string, f doctree.HeadingFeatures) *doctree.Paragraph {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	b.paras++
	f.TextLength = textnorm.RuneLen(text)
	b.words += textnorm.WordCount(text)
	p := &doctree.Paragraph{
		ID:       fmt.Sprintf("p-%05d", b.paras),
		Text:     text,
		Style:    f.StyleID,
		Features: f,
	}
	b.doc.Blocks = append(b.doc.Blocks, doctree.ParagraphBlock(p))
	return p
}

// heading appends a paragraph carrying one of the built-in heading styles.
func (b *builder) heading(text string, level int) *doctree.Paragraph {
	st := builtinHeading(level)
	b.doc.Styles[st.ID] = st
	return b.paragraph(text, doctree.HeadingFeatures{StyleID: st.ID, StyleName: st.Name, IsBold: true})
}

// table appends a top-level table block. Tables without rows are dropped
// and do not consume an id.
func (b *builder) table(rt rawTable) *doctree.Table {
	if len(rt.rows) == 0 {
		return nil
	}
	b.tables++
	t := b.buildTable(rt, fmt.Sprintf("t%03d", b.tables), "", 1)
	b.doc.Blocks = append(b.doc.Blocks, doctree.TableBlock(t))
	return t
}

func (b *builder) buildTable(rt rawTable, id, parent string, level int) *doctree.Table {
	t := &doctree.Table{
		ID:            id,
		Level:         level,
		ParentTableID: parent,
		Columns:       []doctree.Column{},
		BodyRowCount:  max(len(rt.rows)-1, 0),
	}
	sig := rt.header
	if sig == "" {
		sig = HeaderDefault
	}
	t.Metadata = doctree.TableMetadata{
		HeaderRows:    []int{0},
		HeaderSignals: []doctree.HeaderSignal{{Type: sig, Rows: []int{0}, Confidence: headerConfidence[sig]}},
	}

	for i, c := range rt.rows[0] {
		label := strings.TrimSpace(c.text)
		b.words += textnorm.WordCount(label)
		t.Columns = append(t.Columns, doctree.Column{ID: "c" + strconv.Itoa(i+1), Label: label})
	}

	for r, row := range rt.rows[1:] {
		rowID := fmt.Sprintf("%s-r%03d", id, r+1)
		dr := doctree.Row{ID: rowID, Cells: make([]doctree.Cell, 0, len(row))}
		for c, rc := range row {
			text := strings.TrimSpace(rc.text)
			b.words += textnorm.WordCount(text)
			cell := doctree.Cell{
				ID:    fmt.Sprintf("%s-c%03d", rowID, c+1),
				Text:  text,
				ColID: "c" + strconv.Itoa(c+1),
			}
			if level < b.maxDepth {
				for k, nt := range rc.tables {
					if len(nt.rows) == 0 {
						continue
					}
					nid := fmt.Sprintf("%s.r%03d.c%03d.t%03d", id, r+1, c+1, k+1)
					cell.NestedTables = append(cell.NestedTables, b.buildTable(nt, nid, id, level+1))
				}
			}
			dr.Cells = append(dr.Cells, cell)
		}
		t.Rows = append(t.Rows, dr)
	}
	return t
}

func (b *builder) finish() *doctree.Document {
	b.doc.Meta.WordCount = b.words
	return b.doc
}

// builtinHeading is the style markdown and HTML headings are loaded with.
// Levels past 9 are clamped.
func builtinHeading(level int) doctree.Style {
	level = min(max(level, 1), 9)
	lvl := level - 1
	return doctree.Style{
		ID:           "Heading" + strconv.Itoa(level),
		Name:         "heading " + strconv.Itoa(level),
		OutlineLevel: &lvl,
	}
}
