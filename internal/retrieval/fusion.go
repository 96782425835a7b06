package retrieval

import (
	"math"
	"sort"
)

// strategyList is one strategy's ranked hits with its fusion weight.
type strategyList struct {
	strategy Strategy
	weight   float64
	hits     []RetrievalHit
}

// fuseRRF applies weighted Reciprocal Rank Fusion across strategy
// lists: a chunk at 0-based rank r in a list with weight w accumulates
// w / (k + r + 1). Ties break on chunk id so fused order is stable
// regardless of map iteration.
func fuseRRF(lists []strategyList, k, maxResults int) []FusedHit {
	if k <= 0 {
		k = 60
	}

	fused := make(map[string]*FusedHit)
	for _, list := range lists {
		for rank, hit := range list.hits {
			score := list.weight / float64(k+rank+1)

			f, ok := fused[hit.ChunkID]
			if !ok {
				f = &FusedHit{
					ChunkID:      hit.ChunkID,
					Content:      hit.Content,
					Metadata:     hit.Metadata,
					ParentID:     hit.ParentID,
					BestDistance: UnknownDistance,
				}
				fused[hit.ChunkID] = f
			}
			f.FusedScore += score
			f.Strategies = append(f.Strategies, list.strategy)
			if !math.IsInf(hit.Distance, 1) && hit.Distance < f.BestDistance {
				f.BestDistance = hit.Distance
			}
			// Prefer content/metadata from strategies that carry them.
			if f.Content == "" {
				f.Content = hit.Content
			}
			if f.Metadata == nil {
				f.Metadata = hit.Metadata
			}
			if f.ParentID == "" {
				f.ParentID = hit.ParentID
			}
		}
	}

	results := make([]FusedHit, 0, len(fused))
	for _, f := range fused {
		results = append(results, *f)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
