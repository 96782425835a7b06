package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/embed"
	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/keyword"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/oracle"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/vector"
)

// Retriever issues the four search strategies concurrently and fuses
// their ranked lists. A strategy's failure is isolated: it contributes
// an empty list and the others keep going.
type Retriever struct {
	index    vector.Index
	keywords keyword.Searcher
	embedder embed.Embedder
	oracle   oracle.Oracle
	config   config.RetrievalConfig

	// hydeBreaker stops issuing generations while the oracle keeps
	// failing, so queries degrade without paying a timeout per call.
	hydeBreaker *ragerr.CircuitBreaker

	now func() time.Time
}

// NewRetriever wires the retriever's collaborators. The oracle may be
// nil, which disables the HyDE strategy.
func NewRetriever(index vector.Index, kw keyword.Searcher, embedder embed.Embedder, orc oracle.Oracle, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		index:       index,
		keywords:    kw,
		embedder:    embedder,
		oracle:      orc,
		config:      cfg,
		hydeBreaker: ragerr.NewCircuitBreaker("hyde", 3, 30*time.Second),
		now:         time.Now,
	}
}

// Retrieve runs all strategies for the query and returns the fused,
// truncated candidate list. If every strategy fails it falls back to a
// plain semantic search with the full result count.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32, queryText string) (*FusedResultSet, error) {
	if len(queryEmbedding) == 0 {
		return nil, ragerr.ValidationError("query embedding must not be empty")
	}

	type strategyOutcome struct {
		hits []RetrievalHit
		err  error
	}
	outcomes := make(map[Strategy]*strategyOutcome, 4)
	for _, s := range []Strategy{StrategySemantic, StrategyHyDE, StrategyKeyword, StrategyMetadata} {
		outcomes[s] = &strategyOutcome{}
	}

	// All-complete barrier: strategy errors are recorded, never
	// returned, so one failure cannot cancel siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o := outcomes[StrategySemantic]
		o.hits, o.err = r.semanticSearch(gctx, queryEmbedding, r.config.PerStrategyK, nil)
		return nil
	})
	g.Go(func() error {
		o := outcomes[StrategyHyDE]
		o.hits, o.err = r.hydeSearch(gctx, queryText)
		return nil
	})
	g.Go(func() error {
		o := outcomes[StrategyKeyword]
		o.hits, o.err = r.keywordSearch(gctx, queryText)
		return nil
	})
	g.Go(func() error {
		o := outcomes[StrategyMetadata]
		o.hits, o.err = r.metadataSearch(gctx, queryEmbedding, queryText)
		return nil
	})
	_ = g.Wait()

	anyFailed := false
	totalHits := 0
	for s, o := range outcomes {
		if o.err != nil {
			slog.Warn("strategy_failed",
				slog.String("strategy", string(s)),
				slog.String("error", o.err.Error()))
			o.hits = nil
			anyFailed = true
			continue
		}
		totalHits += len(o.hits)
	}

	// Nothing survived and something broke: retry as a plain semantic
	// search with the full result count.
	if totalHits == 0 && anyFailed {
		return r.semanticFallback(ctx, queryEmbedding)
	}

	lists := []strategyList{
		{StrategySemantic, r.config.SemanticWeight, outcomes[StrategySemantic].hits},
		{StrategyHyDE, r.config.HyDEWeight, outcomes[StrategyHyDE].hits},
		{StrategyKeyword, r.config.KeywordWeight, outcomes[StrategyKeyword].hits},
		{StrategyMetadata, r.config.MetadataWeight, outcomes[StrategyMetadata].hits},
	}

	set := &FusedResultSet{
		Hits:            fuseRRF(lists, r.config.RRFConstant, r.config.MaxResults),
		RetrievalMethod: MethodMultiStrategy,
		StrategyCounts:  make(map[Strategy]int, 4),
	}
	for s, o := range outcomes {
		set.StrategyCounts[s] = len(o.hits)
	}
	return set, nil
}

// semanticFallback serves queries where no strategy produced results,
// using a single unfiltered nearest-neighbor search.
func (r *Retriever) semanticFallback(ctx context.Context, queryEmbedding []float32) (*FusedResultSet, error) {
	hits, err := r.semanticSearch(ctx, queryEmbedding, r.config.MaxResults, nil)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.ErrCodeIndexSearch, err)
	}

	lists := []strategyList{{StrategySemantic, 1.0, hits}}
	return &FusedResultSet{
		Hits:            fuseRRF(lists, r.config.RRFConstant, r.config.MaxResults),
		RetrievalMethod: MethodSemanticFallback,
		StrategyCounts:  map[Strategy]int{StrategySemantic: len(hits)},
	}, nil
}

func (r *Retriever) semanticSearch(ctx context.Context, embedding []float32, k int, filters *vector.SearchFilters) ([]RetrievalHit, error) {
	res, err := r.index.Search(ctx, embedding, k, filters)
	if err != nil {
		return nil, err
	}

	strategy := StrategySemantic
	if filters != nil {
		strategy = StrategyMetadata
	}
	return r.collectHits(res, strategy), nil
}

// collectHits converts index results to retrieval hits, dropping
// anything beyond the relevance distance cutoff.
func (r *Retriever) collectHits(res *vector.QueryResult, strategy Strategy) []RetrievalHit {
	hits := make([]RetrievalHit, 0, res.Len())
	for i := 0; i < res.Len(); i++ {
		if r.config.DistanceThreshold > 0 && res.Distances[i] > r.config.DistanceThreshold {
			continue
		}
		hits = append(hits, RetrievalHit{
			ChunkID:        res.IDs[i],
			Content:        res.Documents[i],
			Distance:       res.Distances[i],
			Metadata:       res.Metadatas[i],
			ParentID:       res.ParentIDs[i],
			SourceStrategy: strategy,
		})
	}
	return hits
}

// hydeSearch embeds a generated hypothetical answer and searches on
// that embedding instead of the raw query's.
func (r *Retriever) hydeSearch(ctx context.Context, queryText string) ([]RetrievalHit, error) {
	if !r.config.HyDEEnabled || r.oracle == nil {
		return nil, nil
	}
	if !r.hydeBreaker.Allow() {
		slog.Debug("hyde_skipped", slog.String("reason", "circuit open"))
		return nil, nil
	}
	if !r.oracle.Available(ctx) {
		slog.Debug("hyde_skipped", slog.String("reason", "oracle unavailable"))
		return nil, nil
	}

	doc, err := r.oracle.Generate(ctx, oracle.HyDEPrompt(queryText), oracle.GenerateOptions{Tier: oracle.TierFast})
	if err != nil {
		r.hydeBreaker.RecordFailure()
		return nil, fmt.Errorf("hypothetical document generation: %w", err)
	}
	r.hydeBreaker.RecordSuccess()

	embedding, err := r.embedder.Embed(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("hypothetical document embedding: %w", err)
	}

	res, err := r.index.Search(ctx, embedding, r.config.PerStrategyK, nil)
	if err != nil {
		return nil, err
	}
	return r.collectHits(res, StrategyHyDE), nil
}

// keywordSearch runs one lexical search per salient keyword and
// deduplicates across keywords by document name and chunk index.
func (r *Retriever) keywordSearch(ctx context.Context, queryText string) ([]RetrievalHit, error) {
	if r.keywords == nil {
		return nil, nil
	}

	keywords := ExtractKeywords(queryText, r.config.MaxKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var hits []RetrievalHit
	for _, kw := range keywords {
		found, err := r.keywords.SearchDocuments(ctx, kw, r.config.PerStrategyK)
		if err != nil {
			return nil, err
		}
		for _, h := range found {
			dedupKey := fmt.Sprintf("%s#%d", h.DocumentName, h.ChunkIndex)
			if _, dup := seen[dedupKey]; dup {
				continue
			}
			seen[dedupKey] = struct{}{}
			hits = append(hits, RetrievalHit{
				ChunkID:  h.ChunkID,
				Content:  h.Content,
				Distance: UnknownDistance,
				Metadata: map[string]any{
					"documentName": h.DocumentName,
					"chunkIndex":   h.ChunkIndex,
				},
				ParentID:       h.ParentID,
				SourceStrategy: StrategyKeyword,
			})
		}
	}
	return hits, nil
}

// metadataSearch runs a filtered vector search when the question
// carries lexical cues; without cues the strategy contributes nothing.
func (r *Retriever) metadataSearch(ctx context.Context, embedding []float32, queryText string) ([]RetrievalHit, error) {
	filters := DeriveFilters(queryText, r.now())
	if filters == nil {
		return nil, nil
	}
	return r.semanticSearch(ctx, embedding, r.config.PerStrategyK, filters)
}
