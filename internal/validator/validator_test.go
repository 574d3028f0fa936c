package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

func weakPara(id, text string) doctree.Block {
	c := doctree.HeadingCandidate{
		Source:     doctree.SourceRegex,
		Level:      4,
		Confidence: 0.65,
		Score:      0.65,
		Signals:    []string{"cn-regex:L4-0"},
	}
	return doctree.ParagraphBlock(&doctree.Paragraph{ID: id, Text: text, Candidate: &c})
}

func plainPara(id, text string) doctree.Block {
	return doctree.ParagraphBlock(&doctree.Paragraph{ID: id, Text: text})
}

func table(id string) doctree.Block {
	return doctree.TableBlock(&doctree.Table{ID: id, Level: 1})
}

func sectionList(first string) []doctree.Block {
	return []doctree.Block{
		weakPara("p-00001", first),
		table("t001"),
		weakPara("p-00002", "（二）商务部分："),
		table("t002"),
		weakPara("p-00003", "（三）其他要求："),
		table("t003"),
	}
}

func hasSignal(signals []string, prefix string) bool {
	for _, s := range signals {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestValidate_PromotesColonTitleWithTables(t *testing.T) {
	blocks := sectionList("（一）技术部分：")
	res := Validate(blocks)

	c := blocks[0].Paragraph.Candidate
	if c.Score != doctree.StrongThreshold {
		t.Fatalf("expected promotion to %.2f, got %v (%v)", doctree.StrongThreshold, c.Score, c.Signals)
	}
	if res.Decisions[0].Score != 0.85 || !res.Decisions[0].Promoted {
		t.Errorf("expected neighborhood score 0.85, got %+v", res.Decisions[0])
	}
	for _, want := range []string{"cn-regex:", "item-with-table", "short-title", "colon-title", "structural-element", "final-score: 0.85 (threshold: 0.80)"} {
		if !hasSignal(c.Signals, want) {
			t.Errorf("missing signal %q in %v", want, c.Signals)
		}
	}
	if res.TotalWeak != 3 || res.Upgraded+res.Demoted != 3 {
		t.Errorf("unexpected totals %+v", res)
	}
}

func TestValidate_NoColonStaysWeak(t *testing.T) {
	blocks := sectionList("（一）技术部分")
	res := Validate(blocks)

	c := blocks[0].Paragraph.Candidate
	if c.Score != 0.65 {
		t.Errorf("demoted candidate should keep its score, got %v", c.Score)
	}
	if res.Decisions[0].Score != 0.75 || res.Decisions[0].Promoted {
		t.Errorf("expected 0.75 and no promotion, got %+v", res.Decisions[0])
	}
	if !hasSignal(c.Signals, "final-score: 0.75") {
		t.Errorf("final score not recorded: %v", c.Signals)
	}
}

func TestValidate_PlainListNeverPromoted(t *testing.T) {
	blocks := []doctree.Block{
		weakPara("p-00001", "（一）技术部分："),
		weakPara("p-00002", "（二）商务部分："),
		weakPara("p-00003", "（三）其他要求："),
		table("t001"),
	}
	res := Validate(blocks)
	if res.Upgraded != 0 {
		t.Fatalf("plain list promoted: %+v", res)
	}
	if !hasSignal(blocks[0].Paragraph.Candidate.Signals, "plain-list: 1/3") {
		t.Errorf("expected plain-list signal, got %v", blocks[0].Paragraph.Candidate.Signals)
	}
}

func TestValidate_DeeperNumberingCountsAsSubstructure(t *testing.T) {
	ilvl := func(v int) *int { return &v }
	withIlvl := func(b doctree.Block, v int) doctree.Block {
		b.Paragraph.Features.NumberingIlvl = ilvl(v)
		return b
	}
	blocks := []doctree.Block{
		withIlvl(weakPara("p-00001", "1、资格要求："), 0),
		withIlvl(plainPara("p-00002", "营业执照"), 1),
		withIlvl(weakPara("p-00003", "2、业绩要求："), 0),
		withIlvl(plainPara("p-00004", "近三年业绩"), 1),
		table("t001"),
	}
	res := Validate(blocks)
	if !hasSignal(blocks[0].Paragraph.Candidate.Signals, "item-with-deeper-indent") {
		t.Fatalf("expected deeper-indent substructure, got %v", blocks[0].Paragraph.Candidate.Signals)
	}
	if !res.Decisions[0].Promoted {
		t.Errorf("expected promotion, got %+v", res.Decisions[0])
	}
}

func TestValidate_LongParagraphPenalty(t *testing.T) {
	blocks := sectionList("（一）技术部分：")
	long := plainPara("p-00009", strings.Repeat("投标人应当提交完整的技术方案", 4))
	blocks = append(blocks[:1], append([]doctree.Block{long}, blocks[1:]...)...)

	res := Validate(blocks)
	if res.Decisions[0].Score != 0.70 || res.Decisions[0].Promoted {
		t.Errorf("expected penalized score 0.70, got %+v", res.Decisions[0])
	}
}

func TestValidate_IgnoresStrongAndMissing(t *testing.T) {
	strong := doctree.HeadingCandidate{Score: 0.90, Level: 1}
	blocks := []doctree.Block{
		doctree.ParagraphBlock(&doctree.Paragraph{ID: "p-00001", Text: "第一章 总则", Candidate: &strong}),
		plainPara("p-00002", "正文"),
	}
	if res := Validate(blocks); res.TotalWeak != 0 {
		t.Errorf("expected no weak candidates, got %+v", res)
	}
	if len(strong.Signals) != 0 {
		t.Error("strong candidate was modified")
	}
}

func TestNumberingPattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"（一）技术部分", PatternCNParen},
		{"(十二) 附则", PatternCNParen},
		{"3、报价", PatternArabicDun},
		{"4. 工期", PatternArabicDot},
		{"（5）备注", PatternArabicParen},
		{"技术部分", ""},
	}
	for _, tt := range tests {
		if got := NumberingPattern(tt.in); got != tt.want {
			t.Errorf("NumberingPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// windowedList puts the candidate's table right after it and a sibling item
// at siblingOffset, followed by its own table.
func windowedList(siblingOffset int) []doctree.Block {
	blocks := []doctree.Block{weakPara("p-00001", "（一）技术部分："), table("t001")}
	for i := 2; i < siblingOffset; i++ {
		blocks = append(blocks, plainPara(fmt.Sprintf("p-%05d", i+10), "说明"))
	}
	return append(blocks, weakPara("p-00002", "（二）商务部分："), table("t002"))
}

func TestValidate_WindowBoundary(t *testing.T) {
	blocks := windowedList(Window - 1)
	res := Validate(blocks)
	if d := res.Decisions[0]; !d.Promoted || d.Score != 0.85 {
		t.Errorf("sibling table at offset %d should count, got %+v", Window, d)
	}

	blocks = windowedList(Window)
	res = Validate(blocks)
	d := res.Decisions[0]
	if d.Promoted {
		t.Errorf("table at offset %d lies outside the window, got %+v", Window+1, d)
	}
	if !hasSignal(d.Signals, "plain-list: 1/2") {
		t.Errorf("expected the sibling at offset %d to be counted without substructure, got %v", Window, d.Signals)
	}
}
