// Package engine wires the retrieval pipeline into the two public
// operations: Ingest and Answer. All state is in process; a restart
// clears the caches, indexes, and hierarchy store, so ingestion must
// be replayable by the caller.
package engine

import (
	"context"
	"log/slog"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/assemble"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/batch"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/cache"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/embed"
	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/keyword"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/oracle"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/rerank"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/retrieval"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/scoring"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/telemetry"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/vector"
)

// Engine is the hybrid retrieval and re-ranking engine.
type Engine struct {
	config *config.Config

	embedder  embed.Embedder
	oracle    oracle.Oracle
	index     vector.Index
	keywords  keyword.Searcher
	hierarchy *store.HierarchyStore
	scheduler *batch.Scheduler

	retriever *retrieval.Retriever
	scorer    *scoring.Scorer
	expander  *retrieval.Expander
	reranker  *rerank.Reranker
	assembler *assemble.Assembler

	rewriteCache *cache.Cache[string]
	rerankCache  *rerank.ScoreCache
	answerCache  *cache.Cache[Answer]

	metrics *telemetry.Metrics
}

// Option overrides a default collaborator, mainly for tests.
type Option func(*Engine)

// WithEmbedder replaces the config-built embedder.
func WithEmbedder(e embed.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithOracle replaces the config-built generation oracle. Use
// oracle.Unavailable to disable generation entirely.
func WithOracle(o oracle.Oracle) Option {
	return func(eng *Engine) { eng.oracle = o }
}

// WithVectorIndex replaces the default HNSW index.
func WithVectorIndex(idx vector.Index) Option {
	return func(eng *Engine) { eng.index = idx }
}

// WithKeywordSearcher replaces the default bleve searcher.
func WithKeywordSearcher(s keyword.Searcher) Option {
	return func(eng *Engine) { eng.keywords = s }
}

// New builds an engine from configuration. Collaborators not
// overridden by options are constructed from the config; the context
// is used only for startup availability probes.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng := &Engine{config: cfg}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.embedder == nil {
		eng.embedder = embed.NewFromConfig(ctx, cfg.Embeddings)
	}
	if eng.oracle == nil {
		eng.oracle = oracle.NewOllamaOracle(oracle.OllamaConfig{
			Host:             cfg.Oracle.Host,
			FastModel:        cfg.Oracle.FastModel,
			SynthesisModel:   cfg.Oracle.SynthesisModel,
			FastTimeout:      cfg.Oracle.FastTimeout,
			SynthesisTimeout: cfg.Oracle.SynthesisTimeout,
		})
	}
	if eng.index == nil {
		eng.index = vector.NewHNSWIndex(vector.HNSWConfig{Dimensions: eng.embedder.Dimensions()})
	}
	if eng.keywords == nil {
		searcher, err := keyword.NewBleveSearcher()
		if err != nil {
			return nil, ragerr.Wrap(ragerr.ErrCodeIndexWrite, err)
		}
		eng.keywords = searcher
	}

	eng.hierarchy = store.NewHierarchyStore(
		store.WithMaxSize(cfg.Store.MaxSize),
		store.WithMaxAge(cfg.Store.MaxAge),
	)
	eng.scheduler = batch.NewScheduler(batch.Config{
		BatchSize:    cfg.Batch.Size,
		Concurrency:  cfg.Batch.Concurrency,
		JobRetention: cfg.Batch.JobRetention,
	})

	eng.rewriteCache = cache.New[string]("rewrite", cfg.Caches.RewriteMaxEntries)
	eng.rerankCache = cache.New[map[string]int]("rerank", cfg.Caches.RerankMaxEntries)
	eng.answerCache = cache.New[Answer]("answer", cfg.Caches.AnswerMaxEntries)

	eng.retriever = retrieval.NewRetriever(eng.index, eng.keywords, eng.embedder, eng.oracle, cfg.Retrieval)
	eng.scorer = scoring.NewScorer(cfg.Scoring)
	eng.expander = retrieval.NewExpander(eng.hierarchy, cfg.Retrieval.FallbackDistanceThreshold)
	eng.reranker = rerank.NewReranker(eng.oracle, eng.rerankCache, cfg.Rerank)
	eng.assembler = assemble.NewAssembler(eng.hierarchy, cfg.Assemble.Enabled)
	eng.metrics = telemetry.NewMetrics()

	slog.Info("engine_ready",
		slog.String("embedder", eng.embedder.ModelName()),
		slog.Int("dimensions", eng.embedder.Dimensions()),
		slog.Bool("rerank_enabled", cfg.Rerank.Enabled),
		slog.Bool("hyde_enabled", cfg.Retrieval.HyDEEnabled))
	return eng, nil
}

// ProcessingStatus reports batch-job progress for a document.
func (e *Engine) ProcessingStatus(documentID string) batch.DocumentStatus {
	return e.scheduler.Status(documentID)
}

// CacheStats returns per-cache counters for the three result caches.
func (e *Engine) CacheStats() []cache.Stats {
	return []cache.Stats{
		e.rewriteCache.StatsSnapshot(),
		e.rerankCache.StatsSnapshot(),
		e.answerCache.StatsSnapshot(),
	}
}

// StoreStats returns hierarchy-store counters.
func (e *Engine) StoreStats() store.Stats {
	return e.hierarchy.StatsSnapshot()
}

// Metrics returns a snapshot of the query telemetry.
func (e *Engine) Metrics() *telemetry.Snapshot {
	return e.metrics.SnapshotNow()
}

// Close releases every collaborator.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range []func() error{
		e.index.Close,
		e.keywords.Close,
		e.hierarchy.Close,
		e.embedder.Close,
		e.oracle.Close,
	} {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
