package doctree

import (
	"math"
	"slices"
)

// Score thresholds shared by the pipeline stages.
const (
	StrongThreshold = 0.75
	WeakThreshold   = 0.55
)

// Candidate sources.
const (
	SourceStyleOutline     = "style-outlineLvl"
	SourceParagraphOutline = "paragraph-outlineLvl"
	SourceRegex            = "cn-regex"
	SourceHeuristic        = "heuristic"
)

// HeadingCandidate is the scorer's verdict on a paragraph. It is treated as
// an immutable value: later stages derive a new candidate with the With*
// methods and replace the paragraph's pointer.
type HeadingCandidate struct {
	Source       string   `json:"source"`
	Level        int      `json:"level,omitempty"`
	InitialLevel int      `json:"initial_level,omitempty"`
	Confidence   float64  `json:"confidence"`
	Score        float64  `json:"score"`
	IsCandidate  bool     `json:"is_candidate"`
	IsTOC        bool     `json:"is_toc"`
	Evidence     string   `json:"evidence,omitempty"`
	Signals      []string `json:"signals,omitempty"`
}

// WithSignals returns a copy of c with signals appended.
func (c HeadingCandidate) WithSignals(signals ...string) HeadingCandidate {
	out := c
	out.Signals = append(slices.Clip(slices.Clone(c.Signals)), signals...)
	return out
}

// WithScore returns a copy of c carrying score, with signals appended.
func (c HeadingCandidate) WithScore(score float64, signals ...string) HeadingCandidate {
	out := c.WithSignals(signals...)
	out.Score = score
	return out
}

// Strong reports whether the candidate opens a section.
func (c HeadingCandidate) Strong() bool {
	return c.Score >= StrongThreshold
}

// Weak reports whether the candidate sits in [WeakThreshold, StrongThreshold).
func (c HeadingCandidate) Weak() bool {
	return c.Score >= WeakThreshold && c.Score < StrongThreshold
}

// EffectiveLevel returns the level used for tree assembly. Unresolved levels
// are treated as maximally deep.
func (c HeadingCandidate) EffectiveLevel() int {
	if c.Level <= 0 {
		return UnresolvedLevel
	}
	return c.Level
}

// UnresolvedLevel is the depth assigned to candidates without a level.
const UnresolvedLevel = 99

// RoundScore rounds a composite score to two decimals so that sums of
// weights compare exactly against thresholds.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
