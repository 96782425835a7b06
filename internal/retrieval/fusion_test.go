package retrieval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(id string, distance float64) RetrievalHit {
	return RetrievalHit{ChunkID: id, Content: "content " + id, Distance: distance, ParentID: "p-" + id}
}

func TestFuseRRF_AccumulatesAcrossStrategies(t *testing.T) {
	lists := []strategyList{
		{StrategySemantic, 0.4, []RetrievalHit{hit("a", 0.1), hit("b", 0.3)}},
		{StrategyKeyword, 0.2, []RetrievalHit{{ChunkID: "b", Content: "content b", Distance: UnknownDistance}}},
	}

	fused := fuseRRF(lists, 60, 10)
	require.Len(t, fused, 2)

	// a: 0.4/61; b: 0.4/62 + 0.2/61 -> b outranks a
	scoreA := 0.4 / 61
	scoreB := 0.4/62 + 0.2/61
	assert.Equal(t, "b", fused[0].ChunkID)
	assert.InDelta(t, scoreB, fused[0].FusedScore, 1e-12)
	assert.Equal(t, "a", fused[1].ChunkID)
	assert.InDelta(t, scoreA, fused[1].FusedScore, 1e-12)

	assert.ElementsMatch(t, []Strategy{StrategySemantic, StrategyKeyword}, fused[0].Strategies)
	assert.InDelta(t, 0.3, fused[0].BestDistance, 1e-9, "distance kept from the strategy that had one")
}

func TestFuseRRF_StableTieBreakByID(t *testing.T) {
	lists := []strategyList{
		{StrategySemantic, 0.4, []RetrievalHit{hit("z", 0.1)}},
		{StrategyHyDE, 0.4, []RetrievalHit{hit("a", 0.1)}},
	}

	// Same rank, same weight: identical scores must order by id.
	for i := 0; i < 5; i++ {
		fused := fuseRRF(lists, 60, 10)
		require.Len(t, fused, 2)
		assert.Equal(t, "a", fused[0].ChunkID)
		assert.Equal(t, "z", fused[1].ChunkID)
	}
}

func TestFuseRRF_TruncatesToMaxResults(t *testing.T) {
	var hits []RetrievalHit
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		hits = append(hits, hit(id, 0.5))
	}
	fused := fuseRRF([]strategyList{{StrategySemantic, 1.0, hits}}, 60, 3)
	assert.Len(t, fused, 3)
	assert.Equal(t, "a", fused[0].ChunkID, "rank order preserved after truncation")
}

func TestFuseRRF_KeywordOnlyHitHasUnknownDistance(t *testing.T) {
	lists := []strategyList{
		{StrategyKeyword, 0.2, []RetrievalHit{{ChunkID: "k", Content: "kw", Distance: UnknownDistance}}},
	}
	fused := fuseRRF(lists, 60, 10)
	require.Len(t, fused, 1)
	assert.True(t, math.IsInf(fused[0].BestDistance, 1))
}
