package retrieval

import (
	"strings"
	"unicode"
)

// stopWords are common English words excluded from keyword extraction.
// Only words longer than three characters need listing; shorter tokens
// are dropped by the length rule.
var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"because": {}, "been": {}, "before": {}, "being": {}, "below": {},
	"between": {}, "both": {}, "cannot": {}, "could": {}, "does": {},
	"doing": {}, "down": {}, "during": {}, "each": {}, "explain": {},
	"find": {}, "from": {}, "further": {}, "have": {}, "having": {},
	"here": {}, "how": {}, "into": {}, "itself": {}, "just": {},
	"more": {}, "most": {}, "much": {}, "once": {}, "only": {},
	"other": {}, "over": {}, "please": {}, "same": {}, "should": {},
	"show": {}, "some": {}, "such": {}, "tell": {}, "than": {},
	"that": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"under": {}, "until": {}, "very": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "whose": {}, "with": {},
	"would": {}, "your": {},
}

// ExtractKeywords returns up to max salient keywords from the
// question: lowercased tokens longer than three characters that are
// not stop words, deduplicated, in order of appearance.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, max)
	for _, tok := range tokens {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}
