// Package rerank implements the optional LLM re-ranking pass: one
// oracle call per expanded parent chunk, scores blended with the
// composite score. Scores are cached by content hash so structurally
// similar candidate sets skip repeat oracle calls.
package rerank

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/cache"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/oracle"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// maxPassageChars caps the passage text sent to the oracle per call.
const maxPassageChars = 1500

// Candidate is one parent chunk entering the re-ranking pass with its
// composite score already computed.
type Candidate struct {
	Parent         *store.ParentChunk
	CompositeScore float64
}

// Ranked is one candidate after re-ranking.
type Ranked struct {
	Candidate

	// LLMScore is the parsed 1-10 oracle score, 0 when the pass was
	// skipped.
	LLMScore int

	// FinalScore is the blended score used for ordering.
	FinalScore float64

	// FromCache marks scores served from the rerank cache.
	FromCache bool
}

// ScoreCache is the rerank result cache: normalized question prefix to
// content-hash/score pairs.
type ScoreCache = cache.Cache[map[string]int]

// Reranker runs the scored pass.
type Reranker struct {
	oracle oracle.Oracle
	cache  *ScoreCache
	config config.RerankConfig
}

// NewReranker wires the pass. The oracle may be nil, which forces
// passthrough mode.
func NewReranker(orc oracle.Oracle, scoreCache *ScoreCache, cfg config.RerankConfig) *Reranker {
	return &Reranker{oracle: orc, cache: scoreCache, config: cfg}
}

// Rerank scores each candidate through the oracle and orders by the
// blended score. When the pass is disabled or the oracle is down, the
// composite-score order is preserved untouched. A single call's
// failure yields the neutral score, never an aborted pass.
func (r *Reranker) Rerank(ctx context.Context, candidates []Candidate, queryText string) []Ranked {
	if len(candidates) == 0 {
		return nil
	}

	if !r.config.Enabled || r.oracle == nil || !r.oracle.Available(ctx) {
		return passthrough(candidates)
	}

	cached := r.cachedScores(queryText)

	ranked := make([]Ranked, len(candidates))
	var wg sync.WaitGroup
	var mu sync.Mutex
	newScores := make(map[string]int)

	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c}

		hash := cache.ContentHash(c.Parent.Content)
		if score, ok := cached[hash]; ok {
			ranked[i].LLMScore = score
			ranked[i].FromCache = true
			continue
		}

		wg.Add(1)
		go func(i int, c Candidate, hash string) {
			defer wg.Done()

			score := r.scoreOne(ctx, c, queryText)
			ranked[i].LLMScore = score

			mu.Lock()
			newScores[hash] = score
			mu.Unlock()
		}(i, c, hash)
	}
	wg.Wait()

	for i := range ranked {
		normalized := float64(ranked[i].LLMScore) / 10.0
		ranked[i].FinalScore = r.config.LLMWeight*normalized +
			r.config.CompositeWeight*ranked[i].CompositeScore
	}

	if len(newScores) > 0 {
		r.storeScores(queryText, cached, newScores)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].Parent.ID < ranked[j].Parent.ID
	})
	return ranked
}

// scoreOne asks the oracle for a single 1-10 relevance score, bounded
// by the per-call timeout.
func (r *Reranker) scoreOne(ctx context.Context, c Candidate, queryText string) int {
	callCtx := ctx
	if r.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.config.CallTimeout)
		defer cancel()
	}

	passage := c.Parent.Content
	if len(passage) > maxPassageChars {
		passage = passage[:maxPassageChars]
	}

	response, err := r.oracle.Generate(callCtx, oracle.RerankPrompt(queryText, passage),
		oracle.GenerateOptions{Tier: oracle.TierFast, Timeout: r.config.CallTimeout})
	if err != nil {
		slog.Debug("rerank_call_failed",
			slog.String("parent_id", c.Parent.ID),
			slog.String("error", err.Error()))
		return oracle.NeutralRerankScore
	}
	return oracle.ParseRerankScore(response)
}

func (r *Reranker) cachedScores(queryText string) map[string]int {
	if r.cache == nil {
		return nil
	}
	stored, ok := r.cache.Get(cache.RerankKey(queryText))
	if !ok {
		return nil
	}
	// Copy so concurrent requests never share the map.
	out := make(map[string]int, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out
}

func (r *Reranker) storeScores(queryText string, old, fresh map[string]int) {
	if r.cache == nil {
		return
	}
	merged := make(map[string]int, len(old)+len(fresh))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range fresh {
		merged[k] = v
	}
	r.cache.Set(cache.RerankKey(queryText), merged)
}

func passthrough(candidates []Candidate) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, Ranked{Candidate: c, FinalScore: c.CompositeScore})
	}
	return ranked
}
