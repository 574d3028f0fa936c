package heading

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/textnorm"
)

const cnDigits = "一二三四五六七八九十百零〇两"

type tierPattern struct {
	tier  int
	id    string
	re    *regexp.Regexp
	score float64
}

var tierScores = map[int]float64{1: 0.90, 2: 0.85, 3: 0.75, 4: 0.65, 5: 0.60}

var majorHeadings = []string{
	"项目概况", "评标信息", "评审办法", "技术部分", "商务部分", "综合实力", "诚信情况",
	"投标人须知", "开标信息", "资格条件", "评分标准", "评分细则", "技术要求", "商务要求",
	"采购需求", "服务要求", "履约要求",
}

// tierPatterns are evaluated in order against textnorm.Title output, where
// full-width brackets and colons have already been folded to ASCII.
var tierPatterns = buildTiers(map[int][]string{
	1: {
		`^第[` + cnDigits + `]+(章|册|卷|编)`,
		`^第\d+(章|册|卷|编)`,
	},
	2: {
		`^第[` + cnDigits + `]+节`,
		`^第\d+节`,
		`^(` + strings.Join(majorHeadings, "|") + `)$`,
	},
	3: {
		`^第[` + cnDigits + `]+(条|款|项)`,
		`^\d+\.([^\d]|$)`,
		`^\d+、`,
	},
	4: {
		`^\([一二三四五六七八九十]+\)`,
		`^\(\d+\)`,
	},
	5: {
		`^\d+\.\d+`,
	},
})

func buildTiers(src map[int][]string) []tierPattern {
	var out []tierPattern
	for tier := 1; tier <= 5; tier++ {
		for i, expr := range src[tier] {
			out = append(out, tierPattern{
				tier:  tier,
				id:    fmt.Sprintf("L%d-%d", tier, i),
				re:    regexp.MustCompile(expr),
				score: tierScores[tier],
			})
		}
	}
	return out
}

// matchTier returns the first tier pattern matching normalized title text.
func matchTier(title string) (tierPattern, bool) {
	for _, p := range tierPatterns {
		if p.re.MatchString(title) {
			return p, true
		}
	}
	return tierPattern{}, false
}

var (
	tocKeywords    = map[string]bool{"目录": true, "contents": true, "tableofcontents": true}
	dotLeaderRe    = regexp.MustCompile(`(\.{3,}|…{2,}|·{3,})\s*\d{1,4}$`)
	headerFooterRe = regexp.MustCompile(`第\s*\d+\s*页([/|]|\s*共\s*\d+\s*页)?|\b(?i:page)\s*\d+(\s*(?i:of)\s*\d+)?|页码[:：]?\s*\d+`)
	coverKeywords  = []string{
		"封面", "招标文件", "采购文件", "政府采购", "竞争性磋商", "竞争性谈判", "询价",
		"单一来源", "货物类", "工程类", "服务类",
	}
)

const (
	maxCoverRunes        = 20
	maxHeaderFooterRunes = 30
)

// Blacklist reasons.
const (
	BlacklistTOC          = "toc"
	BlacklistCover        = "cover"
	BlacklistHeaderFooter = "header-footer"
)

// Blacklisted reports whether text is table-of-contents, cover or running
// header/footer material, and which.
func Blacklisted(text string) (string, bool) {
	folded := textnorm.Fold(text)
	if folded == "" {
		return "", false
	}
	key := textnorm.Key(text)
	if tocKeywords[key] || dotLeaderRe.MatchString(folded) {
		return BlacklistTOC, true
	}
	title := textnorm.Title(text)
	n := textnorm.RuneLen(title)
	if n <= maxHeaderFooterRunes && headerFooterRe.MatchString(title) {
		return BlacklistHeaderFooter, true
	}
	if n <= maxCoverRunes {
		for _, kw := range coverKeywords {
			if strings.HasPrefix(title, kw) {
				return BlacklistCover, true
			}
		}
	}
	return "", false
}

type heuristicRule struct {
	name  string
	level int
	score float64
	match func(title string, f featureView) bool
}

// featureView is the subset of paragraph evidence the heuristic reads.
type featureView struct {
	bold     bool
	fontSize float64
	length   int
}

var (
	chapterLikeRe  = regexp.MustCompile(`^第[0-9一二三四五六七八九十百千]+[章节条款部分篇]`)
	numeralLeadRe  = regexp.MustCompile(`^[0-9一二三四五六七八九十]+[、.．]`)
	domainKeywords = []string{"评标方法", "技术要求", "商务要求", "项目概况", "采购需求", "资格要求"}
)

var heuristicRules = []heuristicRule{
	{
		name: "bold-chapter-like", level: 1, score: 0.60,
		match: func(t string, f featureView) bool {
			return f.bold && f.length < 100 && chapterLikeRe.MatchString(t)
		},
	},
	{
		name: "bold-numeral-prefix", level: 2, score: 0.55,
		match: func(t string, f featureView) bool {
			return f.bold && f.length < 100 && numeralLeadRe.MatchString(t)
		},
	},
	{
		name: "bold-domain-keyword", level: 2, score: 0.60,
		match: func(t string, f featureView) bool {
			if !f.bold || f.length >= 50 {
				return false
			}
			for _, kw := range domainKeywords {
				if strings.Contains(t, kw) {
					return true
				}
			}
			return false
		},
	},
	{
		name: "bold-large-font", level: 3, score: 0.50,
		match: func(t string, f featureView) bool {
			return f.bold && f.fontSize >= 16 && f.length < 80
		},
	},
}

// fontLevel refines the large-font rule's level by size.
func fontLevel(size float64) int {
	switch {
	case size >= 22:
		return 1
	case size >= 18:
		return 2
	}
	return 3
}
