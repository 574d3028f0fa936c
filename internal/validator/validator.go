// Package validator re-judges weak heading candidates by looking at the
// blocks that follow them. A numbered item only becomes a heading when its
// siblings carry substructure (tables or deeper numbering) and its own text
// reads like a short title.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// Scoring constants for the neighborhood check.
const (
	Window           = 8
	PromoteThreshold = 0.80

	baseScore        = 0.40
	shortTitleBonus  = 0.15
	colonTitleBonus  = 0.10
	tableBonus       = 0.20
	longParaPenalty  = 0.15
	minSubstructured = 2
	shortTitleRunes  = 24
	longParaRunes    = 40
)

// Numbering pattern types.
const (
	PatternCNParen     = "cn-paren"
	PatternArabicDun   = "arabic-dun"
	PatternArabicDot   = "arabic-dot"
	PatternArabicParen = "arabic-paren"
)

var numberingRes = []struct {
	kind string
	re   *regexp.Regexp
}{
	{PatternCNParen, regexp.MustCompile(`^\(([一二三四五六七八九十百千]+)\)`)},
	{PatternArabicDun, regexp.MustCompile(`^(\d+)、`)},
	{PatternArabicDot, regexp.MustCompile(`^(\d+)\.`)},
	{PatternArabicParen, regexp.MustCompile(`^\((\d+)\)`)},
}

var (
	numberingPrefixRe = regexp.MustCompile(`^\(?[一二三四五六七八九十\d]+[)、.]\s*`)
	sentenceEndRe     = regexp.MustCompile(`[。；;!！？?]`)
)

// NumberingPattern returns the numbering shape of text, or "" when it has
// none. Full-width brackets and dots are folded before matching.
func NumberingPattern(text string) string {
	t := textnorm.Fold(text)
	if t == "" {
		return ""
	}
	for _, p := range numberingRes {
		if p.re.MatchString(t) {
			return p.kind
		}
	}
	return ""
}

// Decision records how one weak candidate was judged.
type Decision struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Score    float64  `json:"neighborhood_score"`
	Promoted bool     `json:"promoted"`
	Signals  []string `json:"signals"`
}

// Result summarizes one validation pass.
type Result struct {
	TotalWeak int        `json:"total_weak_headings"`
	Upgraded  int        `json:"upgraded_count"`
	Demoted   int        `json:"demoted_count"`
	Decisions []Decision `json:"decisions,omitempty"`
}

// Validate inspects every weak candidate in blocks, appends its neighborhood
// signals, and promotes it to the strong threshold when the neighborhood
// score reaches PromoteThreshold. Demoted candidates keep their score.
func Validate(blocks []doctree.Block) Result {
	var res Result
	for i, b := range blocks {
		p := b.Paragraph
		if p == nil || p.Candidate == nil || !p.Candidate.Weak() {
			continue
		}
		res.TotalWeak++

		n := analyze(blocks, i)
		c := p.Candidate.WithSignals(n.signals...)
		if n.promote {
			c = c.WithScore(doctree.StrongThreshold)
			res.Upgraded++
		} else {
			res.Demoted++
		}
		p.Candidate = &c
		res.Decisions = append(res.Decisions, Decision{
			ID:       p.ID,
			Text:     p.Text,
			Score:    n.score,
			Promoted: n.promote,
			Signals:  n.signals,
		})
	}
	return res
}

type neighborhood struct {
	signals []string
	score   float64
	promote bool
}

func (n *neighborhood) add(kind, format string, args ...any) {
	n.signals = append(n.signals, kind+": "+fmt.Sprintf(format, args...))
}

func analyze(blocks []doctree.Block, at int) neighborhood {
	var n neighborhood
	p := blocks[at].Paragraph
	end := min(at+Window+1, len(blocks))

	// Same-level items share the candidate's numbering shape.
	pattern := NumberingPattern(p.Text)
	var items []int
	if pattern != "" {
		for i := at; i < end; i++ {
			q := blocks[i].Paragraph
			if q != nil && NumberingPattern(q.Text) == pattern {
				items = append(items, i)
			}
		}
	}

	ilvl := p.Features.NumberingIlvl
	withSub := 0
	for k, item := range items {
		stop := end
		if k+1 < len(items) {
			stop = items[k+1]
		}
		if hasSubstructure(&n, blocks, item, stop, at, ilvl) {
			withSub++
		}
	}

	if withSub < minSubstructured {
		n.add("plain-list", "%d/%d items have substructure (need ≥%d)", withSub, len(items), minSubstructured)
		return n
	}

	score := baseScore
	if isShortTitle(p.Text) {
		score += shortTitleBonus
		n.add("short-title", "≤%d chars without sentence-ending marks", shortTitleRunes)
	}
	if isColonTitle(p.Text) {
		score += colonTitleBonus
		n.add("colon-title", "ends with colon")
	}

	tables := 0
	for i := at + 1; i < end; i++ {
		if blocks[i].Table != nil {
			tables++
			n.add("structural-element", "table at offset %d", i-at)
		}
	}
	if tables > 0 {
		score += tableBonus
	}
	if at+1 < len(blocks) {
		if q := blocks[at+1].Paragraph; q != nil && isLongPlain(q.Text) {
			score -= longParaPenalty
			n.add("first-long-paragraph", "next block is a long plain paragraph")
		}
	}

	n.score = doctree.RoundScore(score)
	n.promote = n.score >= PromoteThreshold
	n.add("final-score", "%.2f (threshold: %.2f)", n.score, PromoteThreshold)
	return n
}

// hasSubstructure reports whether a table, or a paragraph numbered deeper
// than the candidate, appears after item and before stop.
func hasSubstructure(n *neighborhood, blocks []doctree.Block, item, stop, at int, ilvl *int) bool {
	for i := item + 1; i < stop; i++ {
		if blocks[i].Table != nil {
			n.add("item-with-table", "item at offset %d has a following table", item-at)
			return true
		}
		q := blocks[i].Paragraph
		if q == nil || ilvl == nil || q.Features.NumberingIlvl == nil {
			continue
		}
		if *q.Features.NumberingIlvl > *ilvl {
			n.add("item-with-deeper-indent", "item at offset %d has a deeper numbered paragraph", item-at)
			return true
		}
	}
	return false
}

func isShortTitle(text string) bool {
	t := numberingPrefixRe.ReplaceAllString(textnorm.Fold(text), "")
	return textnorm.RuneLen(t) <= shortTitleRunes && !sentenceEndRe.MatchString(t)
}

func isColonTitle(text string) bool {
	t := textnorm.Fold(text)
	return strings.HasSuffix(t, ":") || strings.HasSuffix(t, "：")
}

func isLongPlain(text string) bool {
	t := textnorm.Fold(text)
	return textnorm.RuneLen(t) > longParaRunes && !numberingPrefixRe.MatchString(t)
}
