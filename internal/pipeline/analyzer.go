package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/grayzone"
	"github.com/dgallion1/docoutline/internal/heading"
	"github.com/dgallion1/docoutline/internal/oracle"
	"github.com/dgallion1/docoutline/internal/sectiontree"
	"github.com/dgallion1/docoutline/internal/subtable"
	"github.com/dgallion1/docoutline/internal/validator"
)

// DefaultDetailedTableLimit is how many top-level tables keep their rows in
// the result.
const DefaultDetailedTableLimit = 5

// AnalyzerConfig tunes one Analyzer.
type AnalyzerConfig struct {
	DetailedTableLimit int
	OracleBudget       int
}

// Analyzer runs the five structure passes over a loaded document. It holds
// no per-document state; each Analyze call owns its block list.
type Analyzer struct {
	resolver *grayzone.Resolver
	cfg      AnalyzerConfig
	log      *slog.Logger
}

// NewAnalyzer returns an analyzer escalating gray-zone items to judge, which
// may be nil.
func NewAnalyzer(judge oracle.Judge, cfg AnalyzerConfig, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DetailedTableLimit <= 0 {
		cfg.DetailedTableLimit = DefaultDetailedTableLimit
	}
	return &Analyzer{
		resolver: grayzone.NewResolver(judge, cfg.OracleBudget, log),
		cfg:      cfg,
		log:      log,
	}
}

// Report counts what each pass did. It is returned alongside the result but
// is not part of the persisted contract.
type Report struct {
	Scoring            heading.Stats         `json:"scoring"`
	SyntheticSubTables int                   `json:"synthetic_subtables"`
	Validation         validator.Result      `json:"validation"`
	GrayZone           grayzone.Result       `json:"gray_zone"`
	Tree               sectiontree.TreeStats `json:"tree"`
	OrphanBlocks       int                   `json:"orphan_blocks"`
	DurationMs         int64                 `json:"duration_ms"`
}

// Analyze scores headings, detects sub-tables, validates weak headings,
// resolves the gray zone and assembles the section tree. It only fails when
// doc is nil; evidence problems degrade the outline instead.
func (a *Analyzer) Analyze(ctx context.Context, doc *doctree.Document) (*doctree.AnalysisResult, Report, error) {
	if doc == nil {
		return nil, Report{}, fmt.Errorf("analyze: nil document")
	}
	start := time.Now()
	var rep Report
	blocks := doc.Blocks

	rep.Scoring = heading.NewScorer(doc.Styles).ScoreAll(blocks)
	rep.SyntheticSubTables = len(subtable.Run(blocks))
	rep.Validation = validator.Validate(blocks)
	rep.GrayZone = a.resolver.Resolve(ctx, blocks)

	roots, orphans := sectiontree.Build(blocks)
	if roots == nil {
		roots = []*doctree.Section{}
	}
	rep.Tree = sectiontree.Stats(roots)
	rep.OrphanBlocks = len(orphans)

	trimDetail(blocks, a.cfg.DetailedTableLimit)

	if blocks == nil {
		blocks = []doctree.Block{}
	}
	res := &doctree.AnalysisResult{
		DocMeta:     doc.Meta,
		LayoutStats: Layout(blocks, doc.ImageCount),
		Blocks:      blocks,
		Sections:    roots,
	}
	rep.DurationMs = time.Since(start).Milliseconds()

	a.log.Info("analysis complete",
		"filename", doc.Meta.Filename,
		"paragraphs", rep.Scoring.Paragraphs,
		"synthetic_subtables", rep.SyntheticSubTables,
		"weak_upgraded", rep.Validation.Upgraded,
		"oracle_calls", rep.GrayZone.OracleCalls,
		"sections", rep.Tree.TotalSections,
		"max_depth", rep.Tree.MaxDepth,
	)
	return res, rep, nil
}

// trimDetail drops the rows of top-level tables past the first limit. Tables
// whose cells host nested tables keep their rows so the nesting stays
// reachable.
func trimDetail(blocks []doctree.Block, limit int) {
	seen := 0
	for _, b := range blocks {
		t := b.Table
		if t == nil || t.Level != 1 {
			continue
		}
		seen++
		if seen <= limit || hostsNested(t) {
			continue
		}
		t.Rows = nil
	}
}

func hostsNested(t *doctree.Table) bool {
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			if len(c.NestedTables) > 0 {
				return true
			}
		}
	}
	return false
}

// Layout computes layout statistics over the analyzed block stream.
func Layout(blocks []doctree.Block, images int) doctree.LayoutStats {
	st := doctree.LayoutStats{HeadingCounts: map[string]int{}, ImageCount: images}
	var headingAt []int
	for i, b := range blocks {
		if t := b.Table; t != nil {
			if t.Level == 1 {
				st.TableCount++
			}
			continue
		}
		p := b.Paragraph
		st.ParagraphCount++
		if p.Features.NumberingID != "" {
			st.ListBlockCount++
		}
		if p.Candidate != nil && p.Candidate.Strong() {
			headingAt = append(headingAt, i)
			if p.Candidate.Level > 0 {
				st.HeadingCounts[fmt.Sprintf("h%d", p.Candidate.Level)]++
			}
		}
	}
	if st.ParagraphCount > 0 {
		st.TableDensity = doctree.RoundScore(float64(st.TableCount) / float64(st.ParagraphCount))
	}
	if len(headingAt) > 1 {
		gaps := 0
		for i := 1; i < len(headingAt); i++ {
			gaps += headingAt[i] - headingAt[i-1] - 1
		}
		st.AvgHeadingGap = doctree.RoundScore(float64(gaps) / float64(len(headingAt)-1))
	}
	return st
}
