// Package keyword provides the keyword-search collaborator: lexical
// lookup of child chunks by a single salient keyword. The retriever
// depends only on the Searcher interface; the default implementation
// is an in-memory bleve index.
package keyword

import (
	"context"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// Hit is one lexical match in score order.
type Hit struct {
	ChunkID      string
	Content      string
	DocumentName string
	ChunkIndex   int
	ParentID     string
	Score        float64
}

// Searcher is the keyword-search collaborator consumed by the
// retriever.
type Searcher interface {
	// Index adds child chunks to the lexical index. Existing ids are
	// replaced.
	Index(ctx context.Context, chunks []*store.ChildChunk) error

	// SearchDocuments returns chunks whose content matches the keyword.
	SearchDocuments(ctx context.Context, keyword string, limit int) ([]Hit, error)

	// Count returns the number of indexed chunks.
	Count() (int, error)

	// Close releases the index.
	Close() error
}
