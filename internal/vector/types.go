// Package vector provides the vector-index collaborator: nearest-
// neighbor search over child-chunk embeddings. The engine depends only
// on the Index interface; the default implementation is an in-process
// HNSW graph.
package vector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// ErrIndexClosed is returned for operations on a closed index.
var ErrIndexClosed = errors.New("vector index is closed")

// ErrDimensionMismatch is returned when a vector's dimension does not
// match the index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// SearchFilters restricts a search by child-chunk metadata. Zero-value
// fields are inactive.
type SearchFilters struct {
	FileType     string
	Language     string
	CreatedAfter time.Time
	MinSize      int64
}

// Active reports whether any filter field is set.
func (f *SearchFilters) Active() bool {
	if f == nil {
		return false
	}
	return f.FileType != "" || f.Language != "" || !f.CreatedAfter.IsZero() || f.MinSize > 0
}

// QueryResult is one search's hits in rank order.
type QueryResult struct {
	IDs       []string
	Documents []string
	Distances []float64
	Metadatas []map[string]any
	ParentIDs []string
}

// Len returns the number of hits.
func (r *QueryResult) Len() int { return len(r.IDs) }

// Index is the vector-index collaborator consumed by the retriever.
type Index interface {
	// Add inserts child chunks with their embeddings.
	Add(ctx context.Context, chunks []*store.ChildChunk) error

	// Search finds the k nearest chunks to the embedding, optionally
	// restricted by metadata filters.
	Search(ctx context.Context, embedding []float32, k int, filters *SearchFilters) (*QueryResult, error)

	// Count returns the number of indexed chunks.
	Count() int

	// Close releases resources.
	Close() error
}
