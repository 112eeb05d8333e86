// Package term normalizes raw text into the tokens the rest of the index
// operates on. A Term is a lowercased, NFKD-normalized, diacritic-stripped
// token; phrase terms additionally preserve adjacency via Position.
package term

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Token is a single normalized term together with its rune offsets in the
// source text and its ordinal position among tokens from the same field.
type Token struct {
	Text     string
	Position int
	Start    int
	End      int
}

// Normalize lowercases s, decomposes it under Unicode NFKD, and strips
// combining marks (diacritics), leaving the base letters behind.
func Normalize(s string) string {
	s = strings.ToLower(s)
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isWordRune reports whether r can appear inside a token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into normalized word tokens, recording the rune
// offsets (indices into []rune(text)) of each token in the original
// (non-normalized) text so that
// snippet generation can map back to source positions.
func Tokenize(text string) []Token {
	var tokens []Token
	runes := []rune(text)
	n := len(runes)
	i := 0
	pos := 0
	for i < n {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < n && isWordRune(runes[i]) {
			i++
		}
		raw := string(runes[start:i])
		norm := Normalize(raw)
		if norm == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:     norm,
			Position: pos,
			Start:    start,
			End:      i,
		})
		pos++
	}
	return tokens
}

// SentenceRanges splits s into sentences, returning the [start, end)
// ranges (as rune indices) of each one. A sentence ends at '.', '!', or '?'
// followed by whitespace or end of string; consecutive terminators are
// treated as a single boundary.
func SentenceRanges(s string) [][2]int {
	runes := []rune(s)
	n := len(runes)
	var ranges [][2]int
	start := 0
	i := 0
	for i < n {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < n && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
				j++
			}
			end := j
			// trim trailing/leading whitespace from the sentence span
			rs, re := start, end
			for rs < re && unicode.IsSpace(runes[rs]) {
				rs++
			}
			if rs < re {
				ranges = append(ranges, [2]int{rs, re})
			}
			for j < n && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j
			continue
		}
		i++
	}
	if start < n {
		rs, re := start, n
		for rs < re && unicode.IsSpace(runes[rs]) {
			rs++
		}
		if rs < re {
			ranges = append(ranges, [2]int{rs, re})
		}
	}
	return ranges
}
