package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXLoader handles .docx files. Paragraphs, runs and tables come from
// go-docx; styles, core properties and outline levels from docxparts.
type DOCXLoader struct {
	MaxTableDepth int
}

func (l *DOCXLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	parts, err := readDocxParts(data)
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newBuilder(filename, l.MaxTableDepth)
	b.doc.Styles = parts.styles
	w := &docxWalker{parts: parts}

	bodyPara := 0
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			f := docxFeatures(it, parts.styles)
			if bodyPara < len(parts.outline) {
				f.OutlineLvlRaw = parts.outline[bodyPara]
			}
			bodyPara++
			b.doc.ImageCount += docxDrawings(it)
			b.paragraph(docxParagraphText(it), f)
		case *docx.Table:
			b.table(w.table(it))
		}
	}

	out := b.finish()
	out.Meta.TitleCoreprop = strings.TrimSpace(parts.core.Title)
	out.Meta.Created = strings.TrimSpace(parts.core.Created)
	out.Meta.Modified = strings.TrimSpace(parts.core.Modified)
	return out, nil
}

// docxWalker converts go-docx tables in document pre-order so each one can
// be matched with its repeating-header flag.
type docxWalker struct {
	parts *docxParts
	next  int
}

func (w *docxWalker) table(t *docx.Table) rawTable {
	rt := rawTable{header: HeaderDefault}
	if w.next < len(w.parts.repeatHeader) && w.parts.repeatHeader[w.next] {
		rt.header = HeaderTblHeader
	} else if p := t.TableProperties; p != nil && p.Look != nil && lookFirstRow(p.Look) {
		rt.header = HeaderFirstRowStyle
	}
	w.next++

	for _, row := range t.TableRows {
		cells := make([]rawCell, 0, len(row.TableCells))
		for _, c := range row.TableCells {
			var texts []string
			for _, p := range c.Paragraphs {
				if s := docxParagraphText(p); s != "" {
					texts = append(texts, s)
				}
			}
			rc := rawCell{text: strings.Join(texts, "\n")}
			for _, nt := range c.Tables {
				rc.tables = append(rc.tables, w.table(nt))
			}
			cells = append(cells, rc)
		}
		rt.rows = append(rt.rows, cells)
	}
	return rt
}

// lookFirstRow reads w:tblLook, either the firstRow attribute or bit 0x0020
// of the legacy hex val.
func lookFirstRow(l *docx.WTableLook) bool {
	if l.FirstRow == 1 {
		return true
	}
	if l.Val == "" {
		return false
	}
	v, err := strconv.ParseUint(l.Val, 16, 16)
	return err == nil && v&0x0020 != 0
}

func docxFeatures(p *docx.Paragraph, styles doctree.Styles) doctree.HeadingFeatures {
	var f doctree.HeadingFeatures
	if pp := p.Properties; pp != nil {
		if pp.Style != nil {
			f.StyleID = pp.Style.Val
			if st, ok := styles.Lookup(f.StyleID); ok {
				f.StyleName = st.Name
			}
		}
		if np := pp.NumProperties; np != nil && np.NumID != nil {
			f.NumberingID = np.NumID.Val
			if np.Ilvl != nil {
				if n, err := strconv.Atoi(np.Ilvl.Val); err == nil {
					f.NumberingIlvl = &n
				}
			}
		}
	}
	for _, run := range docxRuns(p) {
		rp := run.RunProperties
		if rp == nil {
			continue
		}
		if rp.Bold != nil {
			f.IsBold = true
		}
		if rp.Size != nil {
			// w:sz is in half-points.
			if hp, err := strconv.ParseFloat(rp.Size.Val, 64); err == nil && hp > 0 {
				pt := hp / 2
				if f.FontMaxSize == nil || pt > *f.FontMaxSize {
					f.FontMaxSize = &pt
				}
			}
		}
	}
	return f
}

// docxRuns returns the paragraph's runs, including those wrapped in
// hyperlinks.
func docxRuns(p *docx.Paragraph) []*docx.Run {
	var runs []*docx.Run
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			runs = append(runs, c)
		case *docx.Hyperlink:
			runs = append(runs, &c.Run)
		}
	}
	return runs
}

func docxParagraphText(p *docx.Paragraph) string {
	var buf strings.Builder
	for _, run := range docxRuns(p) {
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxDrawings(p *docx.Paragraph) int {
	n := 0
	for _, run := range docxRuns(p) {
		for _, rc := range run.Children {
			if _, ok := rc.(*docx.Drawing); ok {
				n++
			}
		}
	}
	return n
}
