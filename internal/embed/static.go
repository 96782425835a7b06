package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
)

// StaticEmbedder generates deterministic hash-based embeddings with no
// network or model dependency. Semantic quality is reduced; it exists
// so ingestion and tests work when no provider is reachable.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var staticTokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Token and trigram contributions to the hashed vector.
const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates the embedding for a single text.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, ragerr.New(ragerr.ErrCodeEmbedFailed, "static embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}
	return normalizeVector(e.hashVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// hashVector accumulates hashed token and trigram buckets.
func (e *StaticEmbedder) hashVector(text string) []float32 {
	vec := make([]float32, StaticDimensions)

	tokens := staticTokenRegex.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		vec[hashToIndex(tok, StaticDimensions)] += staticTokenWeight

		for i := 0; i+staticNgramSize <= len(tok); i++ {
			gram := tok[i : i+staticNgramSize]
			vec[hashToIndex(gram, StaticDimensions)] += staticNgramWeight
		}
	}
	return vec
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// ModelName returns the model identifier.
func (e *StaticEmbedder) ModelName() string { return "static-fnv" }

// Available always returns true.
func (e *StaticEmbedder) Available(ctx context.Context) bool { return true }

// Close marks the embedder closed.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func hashToIndex(s string, buckets int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(buckets))
}

func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

var _ Embedder = (*StaticEmbedder)(nil)
