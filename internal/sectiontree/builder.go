// Package sectiontree assembles the finalized block stream into a tree of
// sections using a stack of open headings.
package sectiontree

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// Build turns blocks into root sections. Paragraphs whose candidate is
// strong open a section; every other block becomes a leaf of the innermost
// open section. Blocks seen before the first heading belong to no section
// and are returned as orphans.
func Build(blocks []doctree.Block) (roots []*doctree.Section, orphans []doctree.Block) {
	type stackEntry struct {
		sec   *doctree.Section
		level int
	}
	var stack []stackEntry
	n := 0

	for _, b := range blocks {
		if p := b.Paragraph; p != nil && p.Candidate != nil && p.Candidate.Strong() {
			n++
			sec := newSection(p, n)
			level := p.Candidate.EffectiveLevel()

			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				roots = append(roots, sec)
			} else {
				parent := stack[len(stack)-1].sec
				parent.Children = append(parent.Children, sec)
			}
			stack = append(stack, stackEntry{sec: sec, level: level})
			continue
		}

		if len(stack) == 0 {
			orphans = append(orphans, b)
			continue
		}
		top := stack[len(stack)-1].sec
		top.Blocks = append(top.Blocks, b)
	}
	return roots, orphans
}

func newSection(p *doctree.Paragraph, n int) *doctree.Section {
	c := p.Candidate
	return &doctree.Section{
		ID:                fmt.Sprintf("sec-%05d", n),
		Level:             c.Level,
		Text:              p.Text,
		NormalizedText:    textnorm.Title(p.Text),
		HeadingSource:     c.Source,
		HeadingConfidence: c.Confidence,
		HeadingScore:      c.Score,
		StyleID:           p.Features.StyleID,
		StyleName:         p.Features.StyleName,
		OutlineLvlRaw:     p.Features.OutlineLvlRaw,
		NumberingID:       p.Features.NumberingID,
		NumberingIlvl:     p.Features.NumberingIlvl,
		IsCandidate:       c.IsCandidate,
		Evidence:          c.Evidence,
		Signals:           append([]string(nil), c.Signals...),
		Blocks:            []doctree.Block{},
		Children:          []*doctree.Section{},
	}
}

// TreeStats summarizes an assembled tree.
type TreeStats struct {
	TotalSections int `json:"total_sections"`
	TotalBlocks   int `json:"total_blocks"`
	MaxDepth      int `json:"max_depth"`
}

// Stats counts sections and leaf blocks and measures depth; a single level
// of roots has depth 1.
func Stats(roots []*doctree.Section) TreeStats {
	var st TreeStats
	for _, r := range roots {
		r.Walk(func(s *doctree.Section, depth int) {
			st.TotalSections++
			st.TotalBlocks += len(s.Blocks)
			st.MaxDepth = max(st.MaxDepth, depth)
		})
	}
	return st
}
