package grayzone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/oracle"
	"github.com/dgallion1/docoutline/internal/subtable"
)

func grayPara(id, text string) doctree.Block {
	c := doctree.HeadingCandidate{
		Source:  doctree.SourceRegex,
		Level:   4,
		Score:   0.65,
		Signals: []string{"cn-regex:L4-0", "plain-list: 1/1 items have substructure (need ≥2)"},
	}
	return doctree.ParagraphBlock(&doctree.Paragraph{ID: id, Text: text, Candidate: &c})
}

func plain(id, text string) doctree.Block {
	return doctree.ParagraphBlock(&doctree.Paragraph{ID: id, Text: text})
}

// tableWithSub returns a five-column table carrying one synthetic sub-table
// at the given confidence.
func tableWithSub(id string, conf float64) *doctree.Table {
	t := &doctree.Table{ID: id, Level: 1}
	for i := 1; i <= 5; i++ {
		t.Columns = append(t.Columns, doctree.Column{ID: fmt.Sprintf("c%d", i), Label: fmt.Sprintf("h%d", i)})
	}
	rows := [][]string{{"商务部分"}, {"序号", "评分项", "分值"}, {"1", "报价", "30"}}
	for r, cells := range rows {
		row := doctree.Row{ID: fmt.Sprintf("%s-r%03d", id, r+1)}
		for c, text := range cells {
			row.Cells = append(row.Cells, doctree.Cell{ID: fmt.Sprintf("%s-r%03d-c%03d", id, r+1, c+1), Text: text})
		}
		t.Rows = append(t.Rows, row)
	}
	t.BodyRowCount = len(rows)
	subtable.Attach(t, []subtable.Span{{Start: 1, End: 2, Headers: rows[1], Confidence: conf}})
	return t
}

func fixture() []doctree.Block {
	return []doctree.Block{
		plain("p-00001", "本章说明评审办法。"),
		grayPara("p-00002", "（一）技术部分"),
		plain("p-00003", "技术部分共四十分。"),
		doctree.TableBlock(tableWithSub("t001", 0.70)),
		grayPara("p-00004", "（二）商务部分"),
	}
}

func nested(t *doctree.Table) int {
	n := 0
	t.WalkNested(func(*doctree.Table) { n++ })
	return n
}

func TestParseAnswers(t *testing.T) {
	resp := "好的，判断如下：\n1. 是\n2、否，这是普通段落\n3) YES\n"
	got := ParseAnswers(resp, 3)
	want := []Decision{Yes, No, Yes}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %v want %v", i+1, got[i], want[i])
		}
	}

	got = ParseAnswers("2. 是\n1. no\n1. 是\n7. 是", 2)
	if got[0] != No || got[1] != Yes {
		t.Errorf("numbers should select items, first answer wins: %v", got)
	}

	got = ParseAnswers("1. not sure\n2.\n", 2)
	if got[0] != Undecided || got[1] != Undecided {
		t.Errorf("unparsed lines should stay undecided: %v", got)
	}
}

func TestConservativeDefault(t *testing.T) {
	if ConservativeDefault(Undecided) || ConservativeDefault(No) || !ConservativeDefault(Yes) {
		t.Error("only an explicit yes is accepted")
	}
}

func TestContext(t *testing.T) {
	blocks := fixture()
	ctx := Context(blocks, 1, ContextRunes)
	want := "本章说明评审办法。 [当前段落: （一）技术部分] 技术部分共四十分。 [表格]"
	if ctx != want {
		t.Errorf("context = %q, want %q", ctx, want)
	}
}

func TestContext_CapsLongNeighbors(t *testing.T) {
	long := strings.Repeat("甲", 500)
	blocks := []doctree.Block{
		doctree.ParagraphBlock(&doctree.Paragraph{ID: "p-00001", Text: long + "尾"}),
		doctree.ParagraphBlock(&doctree.Paragraph{ID: "p-00002", Text: "（一）技术部分"}),
		doctree.ParagraphBlock(&doctree.Paragraph{ID: "p-00003", Text: "首" + long}),
	}
	ctx := Context(blocks, 1, 10)
	want := strings.Repeat("甲", 9) + "尾 [当前段落: （一）技术部分] 首" + strings.Repeat("甲", 9)
	if ctx != want {
		t.Errorf("context = %q, want %q", ctx, want)
	}
}

func TestCollect(t *testing.T) {
	blocks := fixture()
	if hs := CollectHeadings(blocks); len(hs) != 2 || hs[0].ID != "p-00002" {
		t.Errorf("unexpected heading items %+v", hs)
	}
	subs := CollectSubTables(blocks)
	if len(subs) != 1 || subs[0].ParentColumns != 5 || subs[0].Columns != 3 {
		t.Fatalf("unexpected sub-table items %+v", subs)
	}
	if !strings.Contains(BuildSubTablePrompt(subs), "候选列头: 序号, 评分项, 分值") {
		t.Error("sub-table prompt is missing headers")
	}

	// One signal is not a conflict; confidence 0.80 is outside the gray zone.
	one := doctree.HeadingCandidate{Score: 0.65, Signals: []string{"cn-regex:L4-0"}}
	blocks = []doctree.Block{
		doctree.ParagraphBlock(&doctree.Paragraph{ID: "p-00001", Text: "（一）x", Candidate: &one}),
		doctree.TableBlock(tableWithSub("t001", 0.80)),
	}
	if len(CollectHeadings(blocks)) != 0 || len(CollectSubTables(blocks)) != 0 {
		t.Error("items outside the gray zone were collected")
	}
}

func TestResolve_JudgeSaysYes(t *testing.T) {
	blocks := fixture()
	judge := oracle.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		return "1. 是\n2. 是\n", nil
	})
	res := NewResolver(judge, 5, nil).Resolve(context.Background(), blocks)

	if res.HeadingsUpgraded != 2 || res.SubTablesConfirmed != 1 || res.OracleCalls != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	c := blocks[1].Paragraph.Candidate
	if c.Score != doctree.StrongThreshold || c.Signals[len(c.Signals)-1] != SignalUpgraded {
		t.Errorf("heading not upgraded: %+v", c)
	}
	tbl := blocks[3].Table
	sub := tbl.Rows[0].Cells[0].NestedTables[0]
	last := sub.Metadata.HeaderSignals[len(sub.Metadata.HeaderSignals)-1]
	if last.Type != SignalConfirmed || last.Confidence != ConfirmedConfidence {
		t.Errorf("sub-table not confirmed: %+v", sub.Metadata.HeaderSignals)
	}
}

func TestResolve_UnreachableOracle(t *testing.T) {
	failing := oracle.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", &oracle.StatusError{StatusCode: 502, Message: "bad gateway"}
	})
	for name, judge := range map[string]oracle.Judge{"error": failing, "nil": nil} {
		blocks := fixture()
		res := NewResolver(judge, 5, nil).Resolve(context.Background(), blocks)
		if res.HeadingsUpgraded != 0 || res.SubTablesConfirmed != 0 {
			t.Errorf("%s: nothing should be accepted: %+v", name, res)
		}
		if res.SubTablesRemoved != 1 || nested(blocks[3].Table) != 0 {
			t.Errorf("%s: gray-zone sub-table should be removed: %+v", name, res)
		}
		if blocks[1].Paragraph.Candidate.Score != 0.65 {
			t.Errorf("%s: heading score changed", name)
		}
	}
}

func TestResolve_BudgetPerKind(t *testing.T) {
	var blocks []doctree.Block
	for i := 1; i <= 10; i++ {
		blocks = append(blocks, grayPara(fmt.Sprintf("p-%05d", i), fmt.Sprintf("（%d）条目", i)))
	}
	var calls atomic.Int32
	judge := oracle.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "1. 是\n2. 是\n3. 是", nil
	})
	res := NewResolver(judge, 2, nil).Resolve(context.Background(), blocks)
	if calls.Load() != 2 || res.OracleCalls != 2 {
		t.Fatalf("expected 2 calls, got %d (%+v)", calls.Load(), res)
	}
	if res.HeadingsEscalated != 10 || res.HeadingsUpgraded != 6 {
		t.Errorf("expected 6 of 10 upgraded within budget, got %+v", res)
	}
	if blocks[9].Paragraph.Candidate.Score != 0.65 {
		t.Error("item beyond the budget should keep its score")
	}
}

func TestResolve_MalformedAnswer(t *testing.T) {
	blocks := fixture()
	judge := oracle.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "子表") {
			return "", errors.New("timeout")
		}
		return "I cannot decide.", nil
	})
	res := NewResolver(judge, 5, nil).Resolve(context.Background(), blocks)
	if res.HeadingsUpgraded != 0 || res.SubTablesRemoved != 1 {
		t.Errorf("unparsed answers should fall back to conservative defaults: %+v", res)
	}
}
