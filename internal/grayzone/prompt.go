package grayzone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const headingPreamble = `你是一个文档结构分析专家。以下是一些可能的章节标题，请判断它们是否应该作为章节标题。

判断标准：
- 章节标题：短语形式，引领下文内容，通常后面跟着子内容或表格
- 普通段落：长句形式，描述性内容，不引领下文结构

`

const subTablePreamble = `你是一个表格结构分析专家。以下是一些可能的表格内子表，请判断它们是否为独立的子表。

判断标准：
- 子表：有独立的列头，列数与主表不同，内容相对独立
- 非子表：只是主表的一部分，没有独立结构

`

// BuildHeadingPrompt enumerates items with their text and surrounding
// context and asks for one numbered yes/no line per item.
func BuildHeadingPrompt(items []HeadingItem) string {
	var sb strings.Builder
	sb.WriteString(headingPreamble)
	for i, it := range items {
		fmt.Fprintf(&sb, "【%d】ID: %s\n", i+1, it.ID)
		fmt.Fprintf(&sb, "文本: %s\n", it.Text)
		fmt.Fprintf(&sb, "上下文: %s\n\n", it.Context)
	}
	writeAnswerFormat(&sb, len(items))
	return sb.String()
}

// BuildSubTablePrompt enumerates sub-table items with their headers and
// column counts.
func BuildSubTablePrompt(items []SubTableItem) string {
	var sb strings.Builder
	sb.WriteString(subTablePreamble)
	for i, it := range items {
		fmt.Fprintf(&sb, "【%d】表格 ID: %s\n", i+1, it.ID)
		fmt.Fprintf(&sb, "候选列头: %s\n", strings.Join(it.Headers, ", "))
		fmt.Fprintf(&sb, "主表列数: %d，候选子表列数: %d\n", it.ParentColumns, it.Columns)
		fmt.Fprintf(&sb, "置信度: %.2f\n\n", it.Confidence)
	}
	writeAnswerFormat(&sb, len(items))
	return sb.String()
}

func writeAnswerFormat(sb *strings.Builder, n int) {
	sb.WriteString("请对每个候选项回答\"是\"或\"否\"，格式如下：\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(sb, "%d. 是/否\n", i)
	}
}

// Decision is the judge's verdict on one item.
type Decision int

const (
	Undecided Decision = iota
	Yes
	No
)

func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "undecided"
}

// ConservativeDefault resolves a decision to accept or reject. Anything the
// judge did not explicitly confirm is rejected.
func ConservativeDefault(d Decision) bool {
	return d == Yes
}

var answerRe = regexp.MustCompile(`(?i)^(\d+)[.、)）]?\s*(是|否|yes\b|no\b)`)

// ParseAnswers reads numbered yes/no lines from a free-form response. The
// leading number selects the item; the first answer for an item wins and
// numbers outside 1..n are ignored.
func ParseAnswers(response string, n int) []Decision {
	out := make([]Decision, n)
	for _, line := range strings.Split(response, "\n") {
		m := answerRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n || out[idx-1] != Undecided {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "是", "yes":
			out[idx-1] = Yes
		default:
			out[idx-1] = No
		}
	}
	return out
}
