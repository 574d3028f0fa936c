package chunker

import (
	"strings"
	"unicode"
)

// EstimateTokens gives a rough token count: one token per CJK ideograph and
// about 1.33 per whitespace-separated word of other text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	han := 0
	var rest strings.Builder
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
			rest.WriteByte(' ')
			continue
		}
		rest.WriteRune(r)
	}
	words := len(strings.Fields(rest.String()))
	tokens := han + int(float64(words)*1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
