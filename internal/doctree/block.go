package doctree

import (
	"encoding/json"
	"fmt"
)

// BlockKind names the variant held by a Block.
type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindTable     BlockKind = "table"
)

// Block is one unit of the flat content stream. Exactly one of Paragraph
// or Table is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// ParagraphBlock wraps p as a Block.
func ParagraphBlock(p *Paragraph) Block { return Block{Paragraph: p} }

// TableBlock wraps t as a Block.
func TableBlock(t *Table) Block { return Block{Table: t} }

// Kind reports which variant the block carries.
func (b Block) Kind() BlockKind {
	if b.Table != nil {
		return KindTable
	}
	return KindParagraph
}

// ID returns the variant's identifier.
func (b Block) ID() string {
	switch {
	case b.Paragraph != nil:
		return b.Paragraph.ID
	case b.Table != nil:
		return b.Table.ID
	}
	return ""
}

// Paragraph is a run of text with the raw evidence the scorer reads.
type Paragraph struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Style     string            `json:"style,omitempty"`
	Features  HeadingFeatures   `json:"heading_features"`
	Candidate *HeadingCandidate `json:"heading_candidate,omitempty"`
}

// HeadingFeatures is the raw, loader-supplied evidence for a paragraph.
type HeadingFeatures struct {
	StyleID       string   `json:"style_id,omitempty"`
	StyleName     string   `json:"style_name,omitempty"`
	OutlineLvlRaw *int     `json:"outline_lvl_raw,omitempty"`
	NumberingID   string   `json:"numbering_id,omitempty"`
	NumberingIlvl *int     `json:"numbering_ilvl,omitempty"`
	FontMaxSize   *float64 `json:"font_max_size,omitempty"`
	IsBold        bool     `json:"is_bold"`
	TextLength    int      `json:"text_length"`
}

// Table is a physical (or synthetic) table. Rows holds body rows only; the
// primary header row is described by Columns.
type Table struct {
	ID            string        `json:"id"`
	Level         int           `json:"level"`
	ParentTableID string        `json:"parent_table_id,omitempty"`
	Columns       []Column      `json:"columns"`
	BodyRowCount  int           `json:"body_row_count"`
	Rows          []Row         `json:"rows,omitempty"`
	Metadata      TableMetadata `json:"metadata"`
	Synthetic     bool          `json:"synthetic,omitempty"`
	SourceRows    []int         `json:"source_rows,omitempty"`
	Confidence    *float64      `json:"confidence,omitempty"`
}

type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

type Cell struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	ColID        string   `json:"col_id"`
	NestedTables []*Table `json:"nested_tables,omitempty"`
}

type TableMetadata struct {
	HeaderRows    []int          `json:"header_rows,omitempty"`
	HeaderSignals []HeaderSignal `json:"header_signals,omitempty"`
}

type HeaderSignal struct {
	Type       string  `json:"type"`
	Rows       []int   `json:"rows,omitempty"`
	Confidence float64 `json:"confidence"`
}

// RowTexts returns the trimmed text of each body row's cells.
func (t *Table) RowTexts() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = c.Text
		}
		out[i] = cells
	}
	return out
}

// ColumnLabels returns the header labels in column order.
func (t *Table) ColumnLabels() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// WalkNested calls fn for every table nested in t's cells, depth first, in
// row then cell order.
func (t *Table) WalkNested(fn func(*Table)) {
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			for _, nt := range c.NestedTables {
				fn(nt)
				nt.WalkNested(fn)
			}
		}
	}
}

func (b Block) MarshalJSON() ([]byte, error) {
	switch {
	case b.Paragraph != nil:
		return json.Marshal(struct {
			Type BlockKind `json:"type"`
			*Paragraph
		}{KindParagraph, b.Paragraph})
	case b.Table != nil:
		return json.Marshal(struct {
			Type BlockKind `json:"type"`
			*Table
		}{KindTable, b.Table})
	}
	return nil, fmt.Errorf("marshal block: empty block")
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		Type BlockKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("unmarshal block: %w", err)
	}
	switch head.Type {
	case KindParagraph:
		var p Paragraph
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal paragraph: %w", err)
		}
		*b = Block{Paragraph: &p}
	case KindTable:
		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("unmarshal table: %w", err)
		}
		*b = Block{Table: &t}
	default:
		return fmt.Errorf("unmarshal block: unknown type %q", head.Type)
	}
	return nil
}
