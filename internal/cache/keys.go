package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Key length caps per tier.
const (
	answerKeyMaxLen = 100
	rerankKeyMaxLen = 50
)

// NormalizeQuestion lowercases, strips punctuation, and collapses
// whitespace. Shared base for the answer and rerank key derivations.
func NormalizeQuestion(question string) string {
	var b strings.Builder
	b.Grow(len(question))

	lastSpace := true
	for _, r := range strings.ToLower(question) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// Punctuation dropped.
		}
	}
	return strings.TrimSpace(b.String())
}

// AnswerKey derives the final-answer cache key: normalized question
// capped at 100 characters.
func AnswerKey(question string) string {
	return truncate(NormalizeQuestion(question), answerKeyMaxLen)
}

// RerankKey derives the re-ranking cache key: normalized 50-character
// question prefix. Structurally similar questions share an entry so
// per-chunk scores can be reapplied without re-invoking the oracle.
func RerankKey(question string) string {
	return truncate(NormalizeQuestion(question), rerankKeyMaxLen)
}

// ContentHash hashes chunk content with FNV-1a. The original design
// used a sum-rolling hash, which invited collision-driven cache
// corruption; FNV-1a is well distributed and dependency-free.
func ContentHash(content string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("%016x", h.Sum64())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
