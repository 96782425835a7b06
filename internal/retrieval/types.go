// Package retrieval implements the multi-strategy retriever: four
// concurrent searches over the vector and keyword collaborators, fused
// with Reciprocal Rank Fusion, plus the hierarchical child-to-parent
// expander.
package retrieval

import "math"

// Strategy identifies one retrieval path.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyHyDE     Strategy = "hyde"
	StrategyKeyword  Strategy = "keyword"
	StrategyMetadata Strategy = "metadata"
)

// Retrieval method labels surfaced in result metadata.
const (
	MethodMultiStrategy    = "multi_strategy"
	MethodSemanticFallback = "semantic_fallback"
	MethodHierarchical     = "hierarchical"
	MethodMixedFallback    = "mixed_fallback"
)

// UnknownDistance marks hits from strategies that do not produce a
// vector distance (keyword search).
var UnknownDistance = math.Inf(1)

// RetrievalHit is one candidate from one strategy before fusion.
type RetrievalHit struct {
	ChunkID        string
	Content        string
	Distance       float64
	Metadata       map[string]any
	ParentID       string
	SourceStrategy Strategy
}

// FusedHit is one candidate after RRF fusion across strategies.
type FusedHit struct {
	ChunkID  string
	Content  string
	Metadata map[string]any
	ParentID string

	// FusedScore is the accumulated RRF score.
	FusedScore float64

	// BestDistance is the smallest raw distance observed across
	// strategies, or UnknownDistance when no strategy produced one.
	BestDistance float64

	// Strategies lists the strategies that surfaced this chunk.
	Strategies []Strategy
}

// FusedResultSet is the retriever's output.
type FusedResultSet struct {
	Hits []FusedHit

	// RetrievalMethod is MethodMultiStrategy, or
	// MethodSemanticFallback when every strategy failed.
	RetrievalMethod string

	// StrategyCounts records how many raw hits each strategy produced.
	StrategyCounts map[Strategy]int
}
