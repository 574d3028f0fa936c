// Package subtable finds logical tables stacked inside one physical table
// and attaches them to the owning table's cells.
package subtable

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/textnorm"
)

// Detection weights and threshold.
const (
	ColumnChangeWeight = 0.30
	KeywordWeight      = 0.40
	GroupMarkerWeight  = 0.30
	AcceptThreshold    = 0.75
	minSubColumns      = 3
)

// Vocabulary of evaluation-table column headers.
var evalKeywords = []string{
	"序号", "评分因素", "评分项", "权重", "分值", "评分准则", "评分标准", "评审内容",
	"指标", "考核内容", "考核标准", "分数", "得分", "评分细则",
}

var groupMarkerRes = []*regexp.Regexp{
	regexp.MustCompile(`^.*部分.*\(\d+\)$`),
	regexp.MustCompile(`^.*部分$`),
	regexp.MustCompile(`^.*项$`),
	regexp.MustCompile(`^第[一二三四五六七八九十]+部分$`),
	regexp.MustCompile(`^[一二三四五六七八九十]+、.*$`),
}

// IsGroupMarker reports whether a row's first-cell text looks like a
// section or part label.
func IsGroupMarker(text string) bool {
	t := textnorm.Fold(text)
	if t == "" {
		return false
	}
	for _, re := range groupMarkerRes {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// KeywordRatio is the fraction of header cells containing a vocabulary term.
func KeywordRatio(headers []string) float64 {
	if len(headers) == 0 {
		return 0
	}
	n := 0
	for _, h := range headers {
		h = textnorm.Fold(h)
		for _, kw := range evalKeywords {
			if strings.Contains(h, kw) {
				n++
				break
			}
		}
	}
	return float64(n) / float64(len(headers))
}

// Span is one accepted sub-table. Row indices are body-relative: 0 is the
// first row after the primary header. Start is the sub-header row; End is
// inclusive.
type Span struct {
	Start      int
	End        int
	Headers    []string
	Confidence float64
	Signals    []string
}

// Detect scans body rows (primary header excluded) of a table whose primary
// header has columnCount cells and returns non-overlapping spans in order.
func Detect(rows [][]string, columnCount int) []Span {
	var spans []Span
	for cursor := 0; cursor < len(rows); {
		score, signals := scoreHeader(rows, cursor, columnCount)
		if score < AcceptThreshold {
			cursor++
			continue
		}
		end := extend(rows, cursor)
		spans = append(spans, Span{
			Start:      cursor,
			End:        end,
			Headers:    trimmed(rows[cursor]),
			Confidence: score,
			Signals:    signals,
		})
		cursor = end + 1
	}
	return spans
}

func scoreHeader(rows [][]string, at, columnCount int) (float64, []string) {
	header := rows[at]
	var total float64
	var signals []string

	if n := len(header); n != columnCount && n >= minSubColumns {
		total += ColumnChangeWeight
		signals = append(signals, fmt.Sprintf("columnCountChange:%d→%d", columnCount, n))
	}
	if ratio := KeywordRatio(header); ratio > 0 {
		total += KeywordWeight * ratio
		signals = append(signals, fmt.Sprintf("keywordMatch:%.2f", ratio))
	}
	if at > 0 {
		if prev := firstCell(rows[at-1]); IsGroupMarker(prev) {
			total += GroupMarkerWeight
			signals = append(signals, "groupMarker:"+textnorm.Fold(prev))
		}
	}
	return doctree.RoundScore(total), signals
}

// extend grows a span from its header while following rows keep the header's
// cell count and do not open a new group. The first data row never closes the
// span on a group marker.
func extend(rows [][]string, header int) int {
	want := len(rows[header])
	end := header
	for i := header + 1; i < len(rows); i++ {
		if len(rows[i]) != want {
			break
		}
		if i > header+1 && IsGroupMarker(firstCell(rows[i])) {
			break
		}
		end = i
	}
	return end
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func trimmed(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
