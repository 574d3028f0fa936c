// Package textnorm folds document text into the canonical shape the
// heading and table rules match against.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Fold composes s (NFC) and folds full-width ASCII to its narrow form
// (（１）→ (1)). Ideographs and CJK punctuation such as 、 and 。 are kept.
// Whitespace is collapsed to single spaces and trimmed.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = width.Fold.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Title prepares heading text for the regex tiers: remove all whitespace,
// strip trailing bullet or full-stop marks, then Fold.
func Title(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "·•●◦∙．。")
	return Fold(s)
}

// Key is Title lowercased, for case-insensitive vocabulary lookups.
func Key(s string) string {
	return strings.ToLower(Title(s))
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return len([]rune(s))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// TruncateLeft keeps the last n runes of s.
func TruncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// WordCount counts CJK ideographs individually and other text by
// whitespace-separated words.
func WordCount(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			n++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}
