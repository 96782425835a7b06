package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/retrieval"
)

func testWeights() config.ScoringConfig {
	return config.ScoringConfig{
		Semantic:  0.35,
		Keyword:   0.25,
		Recency:   0.15,
		Authority: 0.10,
		Diversity: 0.10,
		Position:  0.05,
	}
}

func candidate(id string, distance float64, content string, meta map[string]any) retrieval.FusedHit {
	return retrieval.FusedHit{
		ChunkID:      id,
		Content:      content,
		Metadata:     meta,
		ParentID:     "p-" + id,
		FusedScore:   0.01,
		BestDistance: distance,
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(testWeights())
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	candidates := []retrieval.FusedHit{
		candidate("a", 0.2, "virtual memory paging and swapping", map[string]any{"chunkIndex": 0}),
		candidate("b", 0.8, "process scheduling on multicore systems", map[string]any{"chunkIndex": 3}),
	}

	first := s.Score(candidates, "virtual memory")
	for i := 0; i < 10; i++ {
		again := s.Score(candidates, "virtual memory")
		require.Equal(t, first, again, "identical inputs must yield identical scores")
	}
}

func TestScorer_FinalScoreInRangeAndWeighted(t *testing.T) {
	s := NewScorer(testWeights())

	scored := s.Score([]retrieval.FusedHit{
		candidate("a", 0.0, "virtual memory", nil),
	}, "virtual memory")
	require.Len(t, scored, 1)

	sub := scored[0].Scores
	want := 0.35*sub.Semantic + 0.25*sub.Keyword + 0.15*sub.Recency +
		0.10*sub.Authority + 0.10*sub.Diversity + 0.05*sub.Position
	assert.InDelta(t, want, scored[0].FinalScore, 1e-9)
	assert.GreaterOrEqual(t, scored[0].FinalScore, 0.0)
	assert.LessOrEqual(t, scored[0].FinalScore, 1.0)
}

func TestSemanticScore_DistanceBeatsLargerDistance(t *testing.T) {
	s := NewScorer(testWeights())
	scored := s.Score([]retrieval.FusedHit{
		candidate("near", 0.1, "alpha", nil),
		candidate("far", 1.5, "beta", nil),
	}, "query")
	require.Len(t, scored, 2)
	assert.Greater(t, scored[0].Scores.Semantic, scored[1].Scores.Semantic)
}

func TestKeywordScore_ExactAndFuzzy(t *testing.T) {
	s := NewScorer(testWeights())

	// "memory" exact, "paging" misspelled as "pagin" (distance 1)
	scored := s.Score([]retrieval.FusedHit{
		candidate("a", 0.1, "memory and pagin tables", nil),
	}, "memory paging")
	require.Len(t, scored, 1)
	assert.InDelta(t, 1.0, scored[0].Scores.Keyword, 1e-9)

	scored = s.Score([]retrieval.FusedHit{
		candidate("b", 0.1, "completely unrelated text", nil),
	}, "memory paging")
	assert.InDelta(t, 0.0, scored[0].Scores.Keyword, 1e-9)
}

func TestRecencyScore_Ladder(t *testing.T) {
	s := NewScorer(testWeights())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", 10 * 24 * time.Hour, 1.0},
		{"month old", 60 * 24 * time.Hour, 0.8},
		{"half year old", 200 * 24 * time.Hour, 0.6},
		{"ancient", 500 * 24 * time.Hour, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := map[string]any{"createdAt": now.Add(-tt.age)}
			scored := s.Score([]retrieval.FusedHit{candidate("a", 0.1, "x", meta)}, "q")
			assert.InDelta(t, tt.want, scored[0].Scores.Recency, 1e-9)
		})
	}

	t.Run("undated", func(t *testing.T) {
		scored := s.Score([]retrieval.FusedHit{candidate("a", 0.1, "x", nil)}, "q")
		assert.InDelta(t, 0.3, scored[0].Scores.Recency, 1e-9)
	})
}

func TestAuthorityScore_Heuristics(t *testing.T) {
	s := NewScorer(testWeights())

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	meta := map[string]any{
		"fileSize": int64(50 * 1024),
		"version":  "2.1",
		"language": "en",
	}
	scored := s.Score([]retrieval.FusedHit{
		candidate("strong", 0.1, string(long), meta),
		candidate("weak", 0.1, "short", nil),
	}, "q")

	assert.InDelta(t, 1.0, scored[0].Scores.Authority, 1e-9)
	assert.InDelta(t, 0.4, scored[1].Scores.Authority, 1e-9)
}

func TestDiversityScore_PenalizesNearDuplicateSiblings(t *testing.T) {
	s := NewScorer(testWeights())

	meta := map[string]any{"documentName": "doc.md"}
	scored := s.Score([]retrieval.FusedHit{
		candidate("a", 0.1, "the kernel scheduler picks tasks", meta),
		candidate("b", 0.1, "the kernel scheduler picks tasks", meta),
		candidate("c", 0.1, "an entirely different topic here", map[string]any{"documentName": "other.md"}),
	}, "q")
	require.Len(t, scored, 3)

	assert.InDelta(t, 0.0, scored[0].Scores.Diversity, 1e-9, "identical sibling content")
	assert.InDelta(t, 1.0, scored[2].Scores.Diversity, 1e-9, "no siblings")
}

func TestPositionScore_FavorsDocumentStart(t *testing.T) {
	s := NewScorer(testWeights())
	scored := s.Score([]retrieval.FusedHit{
		candidate("first", 0.1, "x", map[string]any{"chunkIndex": 0}),
		candidate("deep", 0.1, "y", map[string]any{"chunkIndex": 20}),
	}, "q")

	assert.InDelta(t, 1.0, scored[0].Scores.Position, 1e-9)
	assert.Less(t, scored[1].Scores.Position, scored[0].Scores.Position)
}

func TestWithinEditDistance(t *testing.T) {
	assert.True(t, withinEditDistance("paging", "paging", 2))
	assert.True(t, withinEditDistance("paging", "pagin", 2))
	assert.True(t, withinEditDistance("memory", "memroy", 2))
	assert.False(t, withinEditDistance("paging", "kernel", 2))
	assert.False(t, withinEditDistance("ab", "abcde", 2))
}
