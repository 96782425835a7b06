package vector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// HNSW graph parameters; defaults follow coder/hnsw recommendations.
type HNSWConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// HNSWIndex implements Index with the coder/hnsw pure-Go graph.
// Thread-safe; the graph is guarded by a single RWMutex.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config HNSWConfig

	// String ids map to internal uint64 keys. Updates use lazy
	// deletion: the old key is orphaned rather than removed from the
	// graph, which sidesteps delete-last-node issues in coder/hnsw.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	chunks  map[uint64]*store.ChildChunk
	nextKey uint64

	closed bool
}

// NewHNSWIndex creates an empty HNSW-backed index.
func NewHNSWIndex(cfg HNSWConfig) *HNSWIndex {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWIndex{
		graph:  graph,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
		chunks: make(map[uint64]*store.ChildChunk),
	}
}

// Add inserts child chunks with their embeddings. Existing ids are
// updated in place (lazy deletion).
func (x *HNSWIndex) Add(ctx context.Context, chunks []*store.ChildChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return ErrIndexClosed
	}

	for _, c := range chunks {
		if c == nil || c.ID == "" {
			return fmt.Errorf("child chunk must have an id")
		}
		if x.config.Dimensions == 0 {
			x.config.Dimensions = len(c.Embedding)
		}
		if len(c.Embedding) != x.config.Dimensions {
			return ErrDimensionMismatch{Expected: x.config.Dimensions, Got: len(c.Embedding)}
		}

		if oldKey, exists := x.idMap[c.ID]; exists {
			delete(x.keyMap, oldKey)
			delete(x.chunks, oldKey)
			delete(x.idMap, c.ID)
		}

		key := x.nextKey
		x.nextKey++

		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)

		x.graph.Add(hnsw.MakeNode(key, vec))
		x.idMap[c.ID] = key
		x.keyMap[key] = c.ID
		x.chunks[key] = c
	}
	return nil
}

// Search finds the k nearest chunks. When filters are active the graph
// is over-fetched and post-filtered, since HNSW has no native metadata
// predicate support.
func (x *HNSWIndex) Search(ctx context.Context, embedding []float32, k int, filters *SearchFilters) (*QueryResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, ErrIndexClosed
	}
	if k <= 0 {
		k = 10
	}
	if x.graph.Len() == 0 {
		return &QueryResult{}, nil
	}
	if x.config.Dimensions != 0 && len(embedding) != x.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: x.config.Dimensions, Got: len(embedding)}
	}

	fetch := k
	if filters.Active() {
		fetch = k * 4
	}

	nodes := x.graph.Search(embedding, fetch)

	result := &QueryResult{
		IDs:       make([]string, 0, k),
		Documents: make([]string, 0, k),
		Distances: make([]float64, 0, k),
		Metadatas: make([]map[string]any, 0, k),
		ParentIDs: make([]string, 0, k),
	}
	for _, node := range nodes {
		chunk, ok := x.chunks[node.Key]
		if !ok {
			// Orphaned key from a lazy update.
			continue
		}
		if filters.Active() && !matchesFilters(chunk.Metadata, filters) {
			continue
		}

		result.IDs = append(result.IDs, chunk.ID)
		result.Documents = append(result.Documents, chunk.Content)
		result.Distances = append(result.Distances, float64(x.graph.Distance(embedding, node.Value)))
		result.Metadatas = append(result.Metadatas, chunk.Metadata)
		result.ParentIDs = append(result.ParentIDs, chunk.ParentID)

		if result.Len() >= k {
			break
		}
	}
	return result, nil
}

// Count returns the number of live chunks.
func (x *HNSWIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idMap)
}

// Close releases the graph.
func (x *HNSWIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	x.chunks = nil
	x.idMap = nil
	x.keyMap = nil
	return nil
}

// matchesFilters checks chunk metadata against active filters.
// Metadata values arrive as loosely-typed map entries, so numeric and
// time fields tolerate the common representations.
func matchesFilters(meta map[string]any, f *SearchFilters) bool {
	if f.FileType != "" && metaString(meta, "fileType") != f.FileType {
		return false
	}
	if f.Language != "" && metaString(meta, "language") != f.Language {
		return false
	}
	if f.MinSize > 0 && metaInt64(meta, "fileSize") < f.MinSize {
		return false
	}
	if !f.CreatedAfter.IsZero() {
		created := metaTime(meta, "createdAt")
		if created.IsZero() || created.Before(f.CreatedAfter) {
			return false
		}
	}
	return true
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

func metaInt64(meta map[string]any, key string) int64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func metaTime(meta map[string]any, key string) time.Time {
	if meta == nil {
		return time.Time{}
	}
	switch v := meta[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

var _ Index = (*HNSWIndex)(nil)
