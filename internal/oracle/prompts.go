package oracle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NeutralRerankScore is used when a score cannot be parsed from the
// oracle's response.
const NeutralRerankScore = 5

// RewritePrompt asks the fast tier to reformulate a question for
// retrieval.
func RewritePrompt(question string) string {
	return fmt.Sprintf(`Rewrite the following question as a clear, self-contained search query.
Keep the key terms, expand abbreviations, and remove filler words.
Respond with the rewritten query only.

Question: %s`, question)
}

// HyDEPrompt asks the fast tier for a short hypothetical answer
// document whose embedding is searched instead of the raw query.
func HyDEPrompt(question string) string {
	return fmt.Sprintf(`Write a short factual paragraph that would answer the question below.
Write it as if excerpted from a reference document. Do not mention the question.

Question: %s`, question)
}

// RerankPrompt asks the fast tier to score one passage's relevance.
func RerankPrompt(question, passage string) string {
	return fmt.Sprintf(`Rate how relevant the passage is to the question on a scale of 1 to 10,
where 10 means it directly answers the question and 1 means unrelated.
Respond with the number only.

Question: %s

Passage:
%s`, question, passage)
}

// SynthesisPrompt asks the synthesis tier for the final answer over the
// assembled context.
func SynthesisPrompt(question, context string) string {
	return fmt.Sprintf(`Answer the question using only the context below.
If the context does not contain the answer, say so briefly.

Context:
%s

Question: %s

Answer:`, context, question)
}

var scoreRegex = regexp.MustCompile(`\b([1-9]|10)\b`)

// ParseRerankScore extracts a 1-10 score from free-form oracle output.
// The first in-range integer wins; anything unparsable yields the
// neutral score.
func ParseRerankScore(response string) int {
	match := scoreRegex.FindString(strings.TrimSpace(response))
	if match == "" {
		return NeutralRerankScore
	}
	score, err := strconv.Atoi(match)
	if err != nil || score < 1 || score > 10 {
		return NeutralRerankScore
	}
	return score
}
