// Package scoring computes the six-dimensional composite relevance
// score for fused retrieval candidates. Scoring is deterministic for
// identical inputs, which the rerank cache relies on.
package scoring

import (
	"strings"
	"time"
	"unicode"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/retrieval"
)

// SubScores are the six independent relevance dimensions, each in
// [0,1].
type SubScores struct {
	Semantic  float64
	Keyword   float64
	Recency   float64
	Authority float64
	Diversity float64
	Position  float64
}

// ScoredChunk is one candidate with its sub-scores and weighted final
// score.
type ScoredChunk struct {
	Hit        retrieval.FusedHit
	Scores     SubScores
	FinalScore float64
}

// Scorer applies the configured weights to the six sub-scores.
type Scorer struct {
	weights config.ScoringConfig
	now     func() time.Time
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights config.ScoringConfig) *Scorer {
	return &Scorer{weights: weights, now: time.Now}
}

// Score computes sub-scores and the weighted final score for every
// candidate. Order of the input is preserved; the caller re-sorts by
// FinalScore as needed.
func (s *Scorer) Score(candidates []retrieval.FusedHit, queryText string) []ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	now := s.now()
	queryTokens := retrieval.ExtractKeywords(queryText, 16)

	// Pre-tokenize once; diversity compares every candidate against
	// its same-document siblings.
	tokenSets := make([]map[string]struct{}, len(candidates))
	docKeys := make([]string, len(candidates))
	maxFused := 0.0
	for i, c := range candidates {
		tokenSets[i] = tokenSet(c.Content)
		docKeys[i] = documentKey(c)
		if c.FusedScore > maxFused {
			maxFused = c.FusedScore
		}
	}

	scored := make([]ScoredChunk, 0, len(candidates))
	for i, c := range candidates {
		sub := SubScores{
			Semantic:  semanticScore(c, maxFused),
			Keyword:   keywordScore(queryTokens, tokenSets[i]),
			Recency:   recencyScore(c.Metadata, now),
			Authority: authorityScore(c),
			Diversity: diversityScore(i, docKeys, tokenSets),
			Position:  positionScore(c.Metadata),
		}

		final := s.weights.Semantic*sub.Semantic +
			s.weights.Keyword*sub.Keyword +
			s.weights.Recency*sub.Recency +
			s.weights.Authority*sub.Authority +
			s.weights.Diversity*sub.Diversity +
			s.weights.Position*sub.Position

		scored = append(scored, ScoredChunk{
			Hit:        c,
			Scores:     sub,
			FinalScore: clamp01(final),
		})
	}
	return scored
}

// semanticScore converts the raw vector distance when a strategy
// produced one, otherwise normalizes the fused score against the best
// in the set.
func semanticScore(c retrieval.FusedHit, maxFused float64) float64 {
	if c.BestDistance >= 0 && c.BestDistance != retrieval.UnknownDistance {
		return clamp01(1.0 / (1.0 + c.BestDistance))
	}
	if maxFused <= 0 {
		return 0
	}
	return clamp01(c.FusedScore / maxFused)
}

// keywordScore is the fraction of query keywords present in the
// content, counting exact matches and close misspellings.
func keywordScore(queryTokens []string, content map[string]struct{}) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	matched := 0
	for _, q := range queryTokens {
		if _, ok := content[q]; ok {
			matched++
			continue
		}
		for tok := range content {
			if withinEditDistance(q, tok, 2) {
				matched++
				break
			}
		}
	}
	return clamp01(float64(matched) / float64(len(queryTokens)))
}

// recencyScore ladders document age: under 30 days scores 1.0, under
// 90 days 0.8, under a year 0.6, anything older or undated 0.3.
func recencyScore(meta map[string]any, now time.Time) float64 {
	created := metaTime(meta, "createdAt")
	if created.IsZero() {
		return 0.3
	}
	age := now.Sub(created)
	switch {
	case age <= 30*24*time.Hour:
		return 1.0
	case age <= 90*24*time.Hour:
		return 0.8
	case age <= 365*24*time.Hour:
		return 0.6
	default:
		return 0.3
	}
}

// authorityScore applies additive heuristics on document weight
// signals over a 0.4 baseline.
func authorityScore(c retrieval.FusedHit) float64 {
	score := 0.4
	if metaInt64(c.Metadata, "fileSize") > 10*1024 {
		score += 0.2
	}
	if len(c.Content) > 500 {
		score += 0.2
	}
	if metaString(c.Metadata, "version") != "" {
		score += 0.1
	}
	if metaString(c.Metadata, "language") == "en" {
		score += 0.1
	}
	return clamp01(score)
}

// diversityScore is 1 minus the mean Jaccard similarity against
// same-document siblings in the candidate set. A chunk with no
// siblings scores 1.0.
func diversityScore(i int, docKeys []string, tokenSets []map[string]struct{}) float64 {
	var sum float64
	siblings := 0
	for j := range tokenSets {
		if j == i || docKeys[j] != docKeys[i] {
			continue
		}
		sum += jaccard(tokenSets[i], tokenSets[j])
		siblings++
	}
	if siblings == 0 {
		return 1.0
	}
	return clamp01(1.0 - sum/float64(siblings))
}

// positionScore favors chunks nearer the document start.
func positionScore(meta map[string]any) float64 {
	idx := metaInt64(meta, "chunkIndex")
	if idx < 0 {
		idx = 0
	}
	return clamp01(1.0 / (1.0 + 0.1*float64(idx)))
}

// documentKey identifies the source document for sibling grouping.
func documentKey(c retrieval.FusedHit) string {
	if name := metaString(c.Metadata, "documentName"); name != "" {
		return name
	}
	if name := metaString(c.Metadata, "fileName"); name != "" {
		return name
	}
	return c.ParentID
}

func tokenSet(text string) map[string]struct{} {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

func metaInt64(meta map[string]any, key string) int64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func metaTime(meta map[string]any, key string) time.Time {
	if meta == nil {
		return time.Time{}
	}
	switch v := meta[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}
