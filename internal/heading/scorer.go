// Package heading assigns heading candidates to paragraphs from style,
// outline, numbering, typography and text-shape evidence.
package heading

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// MaxStyleDepth bounds the based-on chain walk.
const MaxStyleDepth = 10

// bodyTextOutline is the outline level Word reserves for body text.
const bodyTextOutline = 9

// StyleLookup resolves style ids. doctree.Styles satisfies it.
type StyleLookup interface {
	Lookup(id string) (doctree.Style, bool)
}

// Scorer evaluates paragraphs in strict priority order; the first rule that
// fires produces the candidate.
type Scorer struct {
	styles StyleLookup
}

// NewScorer returns a scorer reading style-chain evidence from styles, which
// may be nil.
func NewScorer(styles StyleLookup) *Scorer {
	return &Scorer{styles: styles}
}

// Stats counts candidates by source for one ScoreAll pass.
type Stats struct {
	Paragraphs  int            `json:"paragraphs"`
	Blacklisted int            `json:"blacklisted"`
	BySource    map[string]int `json:"by_source"`
}

// ScoreAll replaces the candidate of every paragraph in blocks. Tables are
// skipped; nested table cells carry no paragraph blocks.
func (s *Scorer) ScoreAll(blocks []doctree.Block) Stats {
	st := Stats{BySource: map[string]int{}}
	for _, b := range blocks {
		p := b.Paragraph
		if p == nil {
			continue
		}
		st.Paragraphs++
		if _, bad := Blacklisted(p.Text); bad {
			st.Blacklisted++
			p.Candidate = nil
			continue
		}
		c, ok := s.Score(p)
		if !ok {
			p.Candidate = nil
			continue
		}
		st.BySource[c.Source]++
		p.Candidate = &c
	}
	return st
}

// Score returns the candidate for p, or false when p is not heading-like or
// is blacklisted.
func (s *Scorer) Score(p *doctree.Paragraph) (doctree.HeadingCandidate, bool) {
	if textnorm.Fold(p.Text) == "" {
		return doctree.HeadingCandidate{}, false
	}
	if _, bad := Blacklisted(p.Text); bad {
		return doctree.HeadingCandidate{}, false
	}
	if c, ok := s.fromStyleChain(p); ok {
		return c, true
	}
	if c, ok := fromParagraphOutline(p); ok {
		return c, true
	}
	title := textnorm.Title(p.Text)
	if c, ok := fromRegex(title); ok {
		return c, true
	}
	return fromHeuristic(p, title)
}

func (s *Scorer) fromStyleChain(p *doctree.Paragraph) (doctree.HeadingCandidate, bool) {
	styleID := p.Features.StyleID
	if styleID == "" {
		styleID = p.Style
	}
	st, raw, ok := ResolveOutline(s.styles, styleID)
	if !ok {
		return doctree.HeadingCandidate{}, false
	}
	name := st.Name
	if name == "" {
		name = st.ID
	}
	return doctree.HeadingCandidate{
		Source:       doctree.SourceStyleOutline,
		Level:        raw + 1,
		InitialLevel: raw + 1,
		Confidence:   0.90,
		Score:        1.00,
		Evidence:     fmt.Sprintf("style-outlineLvl: %s", name),
		Signals:      []string{"style-outlineLvl:" + strconv.Itoa(raw)},
	}, true
}

// ResolveOutline walks styleID's based-on chain and returns the first style
// declaring a heading outline level, with that raw 0-based level. Missing
// styles, cycles and chains deeper than MaxStyleDepth resolve to false.
func ResolveOutline(styles StyleLookup, styleID string) (doctree.Style, int, bool) {
	if styles == nil || styleID == "" {
		return doctree.Style{}, 0, false
	}
	seen := make(map[string]bool, 4)
	id := styleID
	for depth := 0; depth < MaxStyleDepth && id != "" && !seen[id]; depth++ {
		seen[id] = true
		st, ok := styles.Lookup(id)
		if !ok {
			break
		}
		if lvl := st.OutlineLevel; lvl != nil {
			if *lvl < 0 || *lvl >= bodyTextOutline {
				break
			}
			return st, *lvl, true
		}
		id = st.BasedOn
	}
	return doctree.Style{}, 0, false
}

func fromParagraphOutline(p *doctree.Paragraph) (doctree.HeadingCandidate, bool) {
	lvl := p.Features.OutlineLvlRaw
	if lvl == nil || *lvl < 0 || *lvl >= bodyTextOutline {
		return doctree.HeadingCandidate{}, false
	}
	return doctree.HeadingCandidate{
		Source:       doctree.SourceParagraphOutline,
		Level:        *lvl + 1,
		InitialLevel: *lvl + 1,
		Confidence:   0.95,
		Score:        0.95,
		Evidence:     fmt.Sprintf("paragraph-outlineLvl: %d", *lvl),
		Signals:      []string{"paragraph-outlineLvl:" + strconv.Itoa(*lvl)},
	}, true
}

func fromRegex(title string) (doctree.HeadingCandidate, bool) {
	hit, ok := matchTier(title)
	if !ok {
		return doctree.HeadingCandidate{}, false
	}
	return doctree.HeadingCandidate{
		Source:       doctree.SourceRegex,
		Level:        hit.tier,
		InitialLevel: hit.tier,
		Confidence:   hit.score,
		Score:        hit.score,
		Evidence:     "cn-regex: " + hit.id,
		Signals:      []string{"cn-regex:" + hit.id},
	}, true
}

func fromHeuristic(p *doctree.Paragraph, title string) (doctree.HeadingCandidate, bool) {
	f := featureView{
		bold:   p.Features.IsBold,
		length: textnorm.RuneLen(textnorm.Fold(p.Text)),
	}
	if p.Features.FontMaxSize != nil {
		f.fontSize = *p.Features.FontMaxSize
	}
	for _, rule := range heuristicRules {
		if !rule.match(title, f) {
			continue
		}
		level := rule.level
		if rule.name == "bold-large-font" {
			level = fontLevel(f.fontSize)
		}
		c := doctree.HeadingCandidate{
			Source:       doctree.SourceHeuristic,
			Level:        level,
			InitialLevel: level,
			Confidence:   rule.score,
			Score:        rule.score,
			IsCandidate:  true,
			Evidence:     fmt.Sprintf("heuristic: %s", rule.name),
			Signals:      []string{"heuristic:" + rule.name},
		}
		if ilvl := p.Features.NumberingIlvl; ilvl != nil {
			c = c.WithScore(
				doctree.RoundScore(min(doctree.StrongThreshold, c.Score+0.05)),
				fmt.Sprintf("numbering-ilvl=%d", *ilvl),
			)
		}
		return c, true
	}
	return doctree.HeadingCandidate{}, false
}
