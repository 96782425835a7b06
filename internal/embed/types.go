// Package embed generates vector embeddings for chunk and query text.
// The default provider is Ollama's HTTP API; a deterministic hash-based
// embedder serves as the offline fallback.
package embed

import (
	"context"
	"time"
)

// Common embedding constants.
const (
	// DefaultDimensions matches nomic-embed-text.
	DefaultDimensions = 768

	// StaticDimensions is the dimension of the hash-based fallback.
	StaticDimensions = 256

	// DefaultTimeout bounds a single embedding HTTP request.
	DefaultTimeout = 60 * time.Second

	// DefaultCacheSize is the query-embedding LRU capacity.
	DefaultCacheSize = 1000
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
