// Package chunker turns an analyzed section tree into breadcrumbed text
// chunks sized for downstream search indexing.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// ChunkSections emits chunks for the orphan blocks preceding the first
// heading, then for every section depth first. A section's breadcrumb is
// the heading text of its ancestors and itself.
func ChunkSections(roots []*doctree.Section, orphans []doctree.Block, cfg Config) []doctree.Chunk {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = def.MinChunk
	}

	c := &collector{cfg: cfg}
	c.emit(RenderBlocks(orphans), "", nil)
	for _, s := range roots {
		c.walk(s, nil)
	}
	return c.chunks
}

type collector struct {
	cfg    Config
	chunks []doctree.Chunk
}

func (c *collector) walk(s *doctree.Section, breadcrumb []string) {
	bc := make([]string, 0, len(breadcrumb)+1)
	bc = append(bc, breadcrumb...)
	if s.Text != "" {
		bc = append(bc, s.Text)
	}
	c.emit(RenderBlocks(s.Blocks), s.ID, bc)
	for _, child := range s.Children {
		c.walk(child, bc)
	}
}

func (c *collector) emit(text, sectionID string, bc []string) {
	if text == "" {
		return
	}
	parts := []string{text}
	if EstimateTokens(text) > c.cfg.ChunkSize {
		parts = splitText(text, c.cfg.ChunkSize, c.cfg.ChunkOverlap)
	}
	for _, part := range parts {
		if EstimateTokens(part) < c.cfg.MinChunk {
			continue
		}
		c.chunks = append(c.chunks, doctree.Chunk{
			Text:       part,
			Index:      len(c.chunks),
			SectionID:  sectionID,
			Breadcrumb: copyBreadcrumb(bc),
		})
	}
}

// RenderBlocks flattens blocks to text. Paragraphs are separated by blank
// lines; table rows render as "label: value" pairs, one row per line, and
// nested tables follow the row that hosts them.
func RenderBlocks(blocks []doctree.Block) string {
	var parts []string
	for _, b := range blocks {
		switch {
		case b.Paragraph != nil:
			parts = append(parts, b.Paragraph.Text)
		case b.Table != nil:
			if t := renderTable(b.Table); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func renderTable(t *doctree.Table) string {
	var buf strings.Builder
	labels := t.ColumnLabels()
	buf.WriteString(strings.Join(labels, " | "))
	for _, r := range t.Rows {
		buf.WriteString("\n")
		for j, cell := range r.Cells {
			if j > 0 {
				buf.WriteString(", ")
			}
			if j < len(labels) && labels[j] != "" {
				buf.WriteString(labels[j] + ": ")
			}
			buf.WriteString(cell.Text)
		}
		for _, cell := range r.Cells {
			for _, nt := range cell.NestedTables {
				if s := renderTable(nt); s != "" {
					buf.WriteString("\n" + s)
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// A single oversized paragraph is split by sentences.
		if paraTokens > targetTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			result = append(result, splitBySentences(para, targetTokens, overlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 && !endsWithCJK(current.String()) {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences splits after latin terminators followed by a space and
// after CJK terminators unconditionally.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		latinEnd := (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && runes[i+1] == ' '
		cjkEnd := r == '。' || r == '！' || r == '？' || r == '；'
		if latinEnd || cjkEnd {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// getOverlapText extracts roughly the last targetTokens of text. CJK text
// is cut by runes, other text by words.
func getOverlapText(text string, targetTokens int) string {
	if targetTokens <= 0 {
		return ""
	}
	if hasHan(text) {
		runes := []rune(text)
		if len(runes) <= targetTokens {
			return ""
		}
		return strings.TrimSpace(string(runes[len(runes)-targetTokens:]))
	}
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// endsWithCJK reports whether s ends in a CJK character or punctuation
// mark, after which no space is inserted.
func endsWithCJK(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r >= 0x2E80
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
