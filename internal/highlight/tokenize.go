// Package highlight implements the lexical highlighting heuristic shared by
// every rendering surface: whitespace tokenization, common-term extraction
// over a cluster's texts, and per-token emphasis flags.
package highlight

import (
	"strings"
	"unicode"
)

// Tokenize splits text into maximal runs of non-whitespace, dropping the
// whitespace runs between them. Punctuation stays attached to its word and
// no case folding is applied.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	for _, run := range Runs(text) {
		if strings.TrimFunc(run, isSpace) == "" {
			continue
		}
		tokens = append(tokens, run)
	}
	return tokens
}

// Runs splits text into alternating maximal whitespace and non-whitespace
// runs. Concatenating the result reproduces text exactly.
func Runs(text string) []string {
	var runs []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := isSpace(r)
		if i > start && space != inSpace {
			runs = append(runs, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		runs = append(runs, text[start:])
	}
	return runs
}

// isSpace matches Unicode white space plus the ASCII information separators
// U+001C..U+001F, which line-oriented text treats as breaks.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
