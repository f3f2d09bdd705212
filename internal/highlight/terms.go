package highlight

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultMinLength is the shortest word or fragment considered a term.
	DefaultMinLength = 3

	// DefaultTopN is how many terms drive highlighting per cluster.
	DefaultTopN = 2

	// MaxFragmentLength caps the length of substring fragments.
	MaxFragmentLength = 7

	// MinFragmentCount is the number of occurrences a fragment needs
	// before it competes with whole words.
	MinFragmentCount = 5

	// WholeWordWeight multiplies whole-word counts in the merged score.
	WholeWordWeight = 2
)

// scoreTable is an insertion-ordered score map. Ties in the final ranking
// fall back to insertion order.
type scoreTable struct {
	order  []string
	scores map[string]int
}

func newScoreTable() *scoreTable {
	return &scoreTable{order: make([]string, 0), scores: make(map[string]int)}
}

func (t *scoreTable) add(term string, n int) {
	if _, ok := t.scores[term]; !ok {
		t.order = append(t.order, term)
	}
	t.scores[term] += n
}

// CommonTerms returns up to topN of the most salient words and word fragments
// across texts. Whole words of at least minLength letters that are not stop
// words score twice their frequency; fragments (substrings of those words,
// minLength to MaxFragmentLength long) join the ranking only once they occur
// MinFragmentCount times, adding to a coinciding whole word's score.
//
// Equal scores keep insertion order: whole words by first occurrence, then
// fragments by first occurrence. A minLength below 1 means DefaultMinLength.
func CommonTerms(texts []string, minLength, topN int) []string {
	if len(texts) == 0 || topN <= 0 {
		return []string{}
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	words := candidateWords(strings.ToLower(strings.Join(texts, " ")))

	wordCounts := newScoreTable()
	fragmentCounts := newScoreTable()
	for _, w := range words {
		if len(w) < minLength || IsStopWord(w) {
			continue
		}
		wordCounts.add(w, 1)
		for size := minLength; size <= min(len(w), MaxFragmentLength); size++ {
			for start := 0; start+size <= len(w); start++ {
				frag := w[start : start+size]
				if IsStopWord(frag) {
					continue
				}
				fragmentCounts.add(frag, 1)
			}
		}
	}

	merged := newScoreTable()
	for _, w := range wordCounts.order {
		merged.add(w, wordCounts.scores[w]*WholeWordWeight)
	}
	for _, f := range fragmentCounts.order {
		if n := fragmentCounts.scores[f]; n >= MinFragmentCount {
			merged.add(f, n)
		}
	}

	ranked := merged.order
	sort.SliceStable(ranked, func(i, j int) bool {
		return merged.scores[ranked[i]] > merged.scores[ranked[j]]
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// candidateWords returns the word-character runs of s made up solely of
// ASCII lowercase letters. A run touching a digit, underscore or any other
// letter is not a candidate.
func candidateWords(s string) []string {
	var words []string
	start := -1
	ascii := true
	flush := func(end int) {
		if start >= 0 && ascii {
			words = append(words, s[start:end])
		}
		start = -1
		ascii = true
	}
	for i, r := range s {
		if !isWordRune(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
		if r < 'a' || r > 'z' {
			ascii = false
		}
	}
	flush(len(s))
	return words
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
