package highlight

import (
	"strings"
)

// Highlight flags each token that overlaps one of the cluster's common terms.
// Nothing is flagged when emphasize is false or the cluster has no texts.
func Highlight(tokens, clusterTexts []string, emphasize bool) []bool {
	if !emphasize || len(clusterTexts) == 0 {
		return make([]bool, len(tokens))
	}
	return Mark(tokens, CommonTerms(clusterTexts, DefaultMinLength, DefaultTopN))
}

// Mark flags each token whose cleaned form contains, or is contained in,
// one of terms. Callers rendering many examples of one cluster compute the
// terms once and call Mark per example.
func Mark(tokens, terms []string) []bool {
	flags := make([]bool, len(tokens))
	for i, tok := range tokens {
		clean := CleanToken(tok)
		if clean == "" {
			continue
		}
		for _, term := range terms {
			if strings.Contains(clean, term) || strings.Contains(term, clean) {
				flags[i] = true
				break
			}
		}
	}
	return flags
}

// CleanToken lower-cases tok and strips every non-word character,
// keeping letters, digits and underscores.
func CleanToken(tok string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(tok) {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
