package subtable

import (
	"fmt"
	"slices"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// HeaderSignalSynthetic marks the header row that triggered detection.
const HeaderSignalSynthetic = "syntheticHeaderMatch"

// Attached is a synthetic sub-table together with the table that owns it.
type Attached struct {
	Parent *doctree.Table
	Table  *doctree.Table
}

// Run detects sub-tables in every top-level table of blocks and attaches
// them. Synthetic tables from an earlier run are replaced, so repeated runs
// yield the same structure.
func Run(blocks []doctree.Block) []Attached {
	var out []Attached
	for _, b := range blocks {
		t := b.Table
		if t == nil || t.Level != 1 {
			continue
		}
		clearSynthetic(t)
		spans := Detect(t.RowTexts(), len(t.Columns))
		for _, sub := range Attach(t, spans) {
			out = append(out, Attached{Parent: t, Table: sub})
		}
	}
	return out
}

// Attach converts spans into synthetic tables and hangs each on the first
// cell of the row immediately preceding its sub-header. A sub-header that is
// the first body row has no preceding body row and hangs on its own first
// cell. Spans whose host row has no cells are dropped. The attached tables
// are returned in span order.
func Attach(parent *doctree.Table, spans []Span) []*doctree.Table {
	var out []*doctree.Table
	for i, sp := range spans {
		sub := build(parent, sp, i+1)
		host := sp.Start - 1
		if host < 0 {
			host = sp.Start
		}
		if host >= len(parent.Rows) || len(parent.Rows[host].Cells) == 0 {
			continue
		}
		cell := &parent.Rows[host].Cells[0]
		cell.NestedTables = append(cell.NestedTables, sub)
		out = append(out, sub)
	}
	return out
}

func build(parent *doctree.Table, sp Span, seq int) *doctree.Table {
	id := fmt.Sprintf("%s.syn%03d", parent.ID, seq)
	conf := sp.Confidence
	// Full-table row indices: the primary header is row 0.
	headerRow := sp.Start + 1
	source := make([]int, 0, sp.End-sp.Start+1)
	for r := sp.Start; r <= sp.End; r++ {
		source = append(source, r+1)
	}

	cols := make([]doctree.Column, len(sp.Headers))
	for i, h := range sp.Headers {
		cols[i] = doctree.Column{ID: fmt.Sprintf("c%d", i+1), Label: h}
	}

	var rows []doctree.Row
	for r := sp.Start + 1; r <= sp.End && r < len(parent.Rows); r++ {
		rowID := fmt.Sprintf("%s-r%03d", id, len(rows)+1)
		src := parent.Rows[r].Cells
		cells := make([]doctree.Cell, len(src))
		for j, c := range src {
			cells[j] = doctree.Cell{
				ID:    fmt.Sprintf("%s-r%03d-c%03d", id, len(rows)+1, j+1),
				Text:  c.Text,
				ColID: fmt.Sprintf("c%d", j+1),
			}
		}
		rows = append(rows, doctree.Row{ID: rowID, Cells: cells})
	}

	return &doctree.Table{
		ID:            id,
		Level:         parent.Level + 1,
		ParentTableID: parent.ID,
		Columns:       cols,
		BodyRowCount:  sp.End - sp.Start,
		Rows:          rows,
		Metadata: doctree.TableMetadata{
			HeaderRows: []int{0},
			HeaderSignals: []doctree.HeaderSignal{{
				Type:       HeaderSignalSynthetic,
				Rows:       []int{headerRow},
				Confidence: conf,
			}},
		},
		Synthetic:  true,
		SourceRows: source,
		Confidence: &conf,
	}
}

// Remove detaches the synthetic table id from parent's cells.
func Remove(parent *doctree.Table, id string) bool {
	for ri := range parent.Rows {
		for ci := range parent.Rows[ri].Cells {
			cell := &parent.Rows[ri].Cells[ci]
			idx := slices.IndexFunc(cell.NestedTables, func(t *doctree.Table) bool { return t.ID == id })
			if idx >= 0 {
				cell.NestedTables = slices.Delete(cell.NestedTables, idx, idx+1)
				if len(cell.NestedTables) == 0 {
					cell.NestedTables = nil
				}
				return true
			}
		}
	}
	return false
}

func clearSynthetic(t *doctree.Table) {
	for ri := range t.Rows {
		for ci := range t.Rows[ri].Cells {
			cell := &t.Rows[ri].Cells[ci]
			if len(cell.NestedTables) == 0 {
				continue
			}
			cell.NestedTables = slices.DeleteFunc(cell.NestedTables, func(nt *doctree.Table) bool { return nt.Synthetic })
			if len(cell.NestedTables) == 0 {
				cell.NestedTables = nil
			}
		}
	}
}
