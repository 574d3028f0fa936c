package schema

import (
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

func sampleResult() *doctree.AnalysisResult {
	lvl := 0
	conf := 1.0
	heading := &doctree.Paragraph{
		ID:       "p-00001",
		Text:     "第一章 总则",
		Features: doctree.HeadingFeatures{StyleID: "1", OutlineLvlRaw: &lvl, TextLength: 6},
		Candidate: &doctree.HeadingCandidate{
			Source: doctree.SourceStyleOutline, Level: 1, InitialLevel: 1,
			Confidence: 1, Score: 1, Signals: []string{"style-outlineLvl:1"},
		},
	}
	sub := &doctree.Table{
		ID:            "t001.r002.c001.t001",
		Level:         2,
		ParentTableID: "t001",
		Columns:       []doctree.Column{{ID: "c0", Label: "评分项"}},
		BodyRowCount:  1,
		Synthetic:     true,
		SourceRows:    []int{3, 4},
		Confidence:    &conf,
	}
	tbl := &doctree.Table{
		ID:           "t001",
		Level:        1,
		Columns:      []doctree.Column{{ID: "c0", Label: "项目"}, {ID: "c1", Label: "内容"}},
		BodyRowCount: 1,
		Rows: []doctree.Row{{
			ID: "t001-r001",
			Cells: []doctree.Cell{
				{ID: "t001-r001-c001", Text: "技术部分(40)", ColID: "c0", NestedTables: []*doctree.Table{sub}},
				{ID: "t001-r001-c002", Text: "", ColID: "c1"},
			},
		}},
		Metadata: doctree.TableMetadata{
			HeaderRows:    []int{0},
			HeaderSignals: []doctree.HeaderSignal{{Type: "tblHeader", Rows: []int{0}, Confidence: 1}},
		},
	}
	blocks := []doctree.Block{doctree.ParagraphBlock(heading), doctree.TableBlock(tbl)}
	return &doctree.AnalysisResult{
		DocMeta: doctree.DocMeta{Filename: "bid.docx", WordCount: 6},
		LayoutStats: doctree.LayoutStats{
			HeadingCounts:  map[string]int{"h1": 1},
			ParagraphCount: 1,
			TableCount:     1,
			TableDensity:   1,
		},
		Blocks: blocks,
		Sections: []*doctree.Section{{
			ID: "sec-00001", Level: 1, Text: heading.Text,
			HeadingConfidence: 1, HeadingScore: 1,
			Blocks:   []doctree.Block{doctree.TableBlock(tbl)},
			Children: []*doctree.Section{},
		}},
	}
}

func TestValidate_AcceptsResult(t *testing.T) {
	if err := Validate(sampleResult()); err != nil {
		t.Fatalf("expected valid result, got %v", err)
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	res := &doctree.AnalysisResult{
		DocMeta:     doctree.DocMeta{Filename: "empty.txt"},
		LayoutStats: doctree.LayoutStats{HeadingCounts: map[string]int{}},
		Blocks:      []doctree.Block{},
		Sections:    []*doctree.Section{},
	}
	if err := Validate(res); err != nil {
		t.Fatalf("expected empty result to validate, got %v", err)
	}
}

func TestValidate_RejectsSyntheticWithoutRows(t *testing.T) {
	res := sampleResult()
	res.Blocks[1].Table.Rows[0].Cells[0].NestedTables[0].SourceRows = nil
	if err := Validate(res); err == nil {
		t.Fatal("expected synthetic table without source_rows to fail")
	}
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `{`, "decode result"},
		{"missing sections", `{"doc_meta":{"filename":"a","word_count":0},"layout_stats":{"heading_counts":{},"paragraph_count":0,"table_count":0,"image_count":0,"table_density":0,"avg_heading_gap":0,"list_block_count":0},"blocks":[]}`, "does not match"},
		{"bad block type", `{"doc_meta":{"filename":"a","word_count":0},"layout_stats":{"heading_counts":{},"paragraph_count":0,"table_count":0,"image_count":0,"table_density":0,"avg_heading_gap":0,"list_block_count":0},"blocks":[{"type":"image","id":"x"}],"sections":[]}`, "does not match"},
		{"score above one", `{"doc_meta":{"filename":"a","word_count":0},"layout_stats":{"heading_counts":{},"paragraph_count":1,"table_count":0,"image_count":0,"table_density":0,"avg_heading_gap":0,"list_block_count":0},"blocks":[{"type":"paragraph","id":"p-00001","text":"x","heading_features":{"is_bold":false,"text_length":1},"heading_candidate":{"source":"heuristic","confidence":0.5,"score":1.5,"is_candidate":true,"is_toc":false}}],"sections":[]}`, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRaw_IsCopy(t *testing.T) {
	r := Raw()
	r[0] = 'x'
	if Raw()[0] == 'x' {
		t.Error("Raw should return a copy")
	}
}
