package grayzone

import (
	"slices"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// Gray-zone bounds.
const (
	HeadingLow      = 0.60
	SubTableLow     = 0.65
	SubTableHigh    = 0.75
	MinSignals      = 2
	ContextRunes    = 200
	tableMarker     = "[表格]"
	currentParaOpen = "[当前段落: "
)

// HeadingItem is a weak heading candidate awaiting a judge decision.
type HeadingItem struct {
	ID      string
	Text    string
	Context string
	Score   float64
	Signals []string

	para *doctree.Paragraph
}

// SubTableItem is a low-confidence synthetic sub-table awaiting a decision.
type SubTableItem struct {
	ID            string
	Headers       []string
	ParentColumns int
	Columns       int
	Confidence    float64

	parent *doctree.Table
	table  *doctree.Table
}

// CollectHeadings returns candidates scoring in [HeadingLow, StrongThreshold)
// that carry at least MinSignals signals, in document order.
func CollectHeadings(blocks []doctree.Block) []HeadingItem {
	var items []HeadingItem
	for i, b := range blocks {
		p := b.Paragraph
		if p == nil || p.Candidate == nil {
			continue
		}
		c := p.Candidate
		if c.Score < HeadingLow || c.Score >= doctree.StrongThreshold || len(c.Signals) < MinSignals {
			continue
		}
		items = append(items, HeadingItem{
			ID:      p.ID,
			Text:    p.Text,
			Context: Context(blocks, i, ContextRunes),
			Score:   c.Score,
			Signals: append([]string(nil), c.Signals...),
			para:    p,
		})
	}
	return items
}

// CollectSubTables returns synthetic sub-tables of top-level tables whose
// confidence lies in [SubTableLow, SubTableHigh].
func CollectSubTables(blocks []doctree.Block) []SubTableItem {
	var items []SubTableItem
	for _, b := range blocks {
		t := b.Table
		if t == nil || t.Level != 1 {
			continue
		}
		for _, r := range t.Rows {
			for _, c := range r.Cells {
				for _, nt := range c.NestedTables {
					if !nt.Synthetic || nt.Confidence == nil {
						continue
					}
					if conf := *nt.Confidence; conf < SubTableLow || conf > SubTableHigh {
						continue
					}
					items = append(items, SubTableItem{
						ID:            nt.ID,
						Headers:       nt.ColumnLabels(),
						ParentColumns: len(t.Columns),
						Columns:       len(nt.Columns),
						Confidence:    *nt.Confidence,
						parent:        t,
						table:         nt,
					})
				}
			}
		}
	}
	return items
}

// Context collects up to n runes of paragraph text on each side of the
// paragraph at index at. Tables are skipped going backward; going forward
// the first table ends collection.
func Context(blocks []doctree.Block, at, n int) string {
	var before []string
	got := 0
	for i := at - 1; i >= 0 && got < n; i-- {
		if p := blocks[i].Paragraph; p != nil {
			before = append(before, p.Text)
			got += textnorm.RuneLen(p.Text)
		}
	}
	slices.Reverse(before)

	var after []string
	table := false
	got = 0
	for i := at + 1; i < len(blocks) && got < n; i++ {
		if blocks[i].Table != nil {
			table = true
			break
		}
		text := blocks[i].Paragraph.Text
		after = append(after, text)
		got += textnorm.RuneLen(text)
	}

	var sb strings.Builder
	if s := textnorm.TruncateLeft(strings.Join(before, " "), n); s != "" {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	sb.WriteString(currentParaOpen)
	sb.WriteString(blocks[at].Paragraph.Text)
	sb.WriteString("] ")
	if s := textnorm.Truncate(strings.Join(after, " "), n); s != "" {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	if table {
		sb.WriteString(tableMarker)
	}
	return strings.TrimSpace(sb.String())
}
