package retrieval

import (
	"log/slog"
	"math"
	"sort"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// ExpandedParent is one resolved parent chunk with its supporting
// child hits.
type ExpandedParent struct {
	Parent *store.ParentChunk

	// Votes is how many fused child hits mapped to this parent.
	Votes int

	// BestScore is the highest fused score among the child hits.
	BestScore float64

	// BestDistance is the smallest raw distance among the child hits,
	// or UnknownDistance.
	BestDistance float64

	// ChildHits are the fused hits that voted for this parent.
	ChildHits []FusedHit
}

// ExpandedSet is the expander's output. When no parent resolves, the
// child hits themselves become the result set under a lenient distance
// filter and RetrievalMethod reports the degraded mode.
type ExpandedSet struct {
	Parents         []ExpandedParent
	RetrievalMethod string
}

// Expander maps fused child hits to unique parent chunks through the
// hierarchy store.
type Expander struct {
	store *store.HierarchyStore

	// fallbackDistanceThreshold is the relaxed child-hit cutoff used
	// when zero parents resolve.
	fallbackDistanceThreshold float64
}

// NewExpander creates an expander over the hierarchy store.
func NewExpander(s *store.HierarchyStore, fallbackDistanceThreshold float64) *Expander {
	if fallbackDistanceThreshold <= 0 {
		fallbackDistanceThreshold = 5.0
	}
	return &Expander{store: s, fallbackDistanceThreshold: fallbackDistanceThreshold}
}

// Expand groups child hits by parent id, resolves each unique parent,
// and orders parents by vote count. Broken parent links are tolerated;
// if none resolve the child hits are returned directly in fallback
// mode.
func (e *Expander) Expand(hits []FusedHit) *ExpandedSet {
	if e.store == nil {
		return e.childFallback(hits)
	}

	groups := make(map[string][]FusedHit)
	var order []string
	for _, h := range hits {
		if h.ParentID == "" {
			continue
		}
		if _, ok := groups[h.ParentID]; !ok {
			order = append(order, h.ParentID)
		}
		groups[h.ParentID] = append(groups[h.ParentID], h)
	}

	var parents []ExpandedParent
	for _, parentID := range order {
		children := groups[parentID]

		parent, ok := e.store.Get(parentID)
		if !ok {
			// Stale back-reference; a read-time fallback condition,
			// never a hard failure.
			slog.Debug("parent_link_broken", slog.String("parent_id", parentID))
			continue
		}

		ep := ExpandedParent{
			Parent:       parent,
			Votes:        len(children),
			BestDistance: UnknownDistance,
			ChildHits:    children,
		}
		for _, c := range children {
			if c.FusedScore > ep.BestScore {
				ep.BestScore = c.FusedScore
			}
			if c.BestDistance < ep.BestDistance {
				ep.BestDistance = c.BestDistance
			}
		}
		parents = append(parents, ep)
	}

	if len(parents) == 0 {
		return e.childFallback(hits)
	}

	sort.Slice(parents, func(i, j int) bool {
		if parents[i].Votes != parents[j].Votes {
			return parents[i].Votes > parents[j].Votes
		}
		if parents[i].BestScore != parents[j].BestScore {
			return parents[i].BestScore > parents[j].BestScore
		}
		return parents[i].Parent.ID < parents[j].Parent.ID
	})

	return &ExpandedSet{Parents: parents, RetrievalMethod: MethodHierarchical}
}

// childFallback serves result sets where no parent resolved: child
// hits pass a relaxed distance filter and stand in as their own
// parents so the downstream pipeline stays uniform.
func (e *Expander) childFallback(hits []FusedHit) *ExpandedSet {
	set := &ExpandedSet{RetrievalMethod: MethodMixedFallback}
	for _, h := range hits {
		if !math.IsInf(h.BestDistance, 1) && h.BestDistance > e.fallbackDistanceThreshold {
			continue
		}
		set.Parents = append(set.Parents, ExpandedParent{
			Parent: &store.ParentChunk{
				ID:      h.ChunkID,
				Content: h.Content,
			},
			Votes:        1,
			BestScore:    h.FusedScore,
			BestDistance: h.BestDistance,
			ChildHits:    []FusedHit{h},
		})
	}
	return set
}
