package highlight

// stopWords are common English function words never treated as salient terms.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "up": {}, "about": {},
	"into": {}, "through": {}, "during": {}, "before": {}, "after": {}, "above": {}, "below": {},
	"between": {}, "among": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {},
	"you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "me": {}, "him": {},
	"her": {}, "us": {}, "them": {}, "my": {}, "your": {}, "his": {}, "its": {}, "our": {},
	"their": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "can": {}, "must": {}, "shall": {},
	"not": {}, "no": {}, "yes": {}, "as": {}, "so": {}, "if": {}, "when": {}, "where": {},
	"why": {}, "how": {}, "what": {}, "who": {}, "which": {}, "whose": {}, "whom": {}, "all": {},
	"any": {}, "some": {}, "many": {}, "few": {}, "most": {}, "more": {}, "less": {}, "much": {},
	"little": {}, "very": {}, "too": {}, "also": {}, "only": {}, "just": {}, "even": {},
	"still": {}, "again": {}, "here": {}, "there": {}, "now": {}, "then": {}, "today": {},
	"yesterday": {}, "tomorrow": {}, "one": {}, "two": {}, "three": {}, "first": {},
	"second": {}, "third": {}, "last": {}, "next": {},
}

// IsStopWord reports whether w (already lower-cased) is a stop word.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
