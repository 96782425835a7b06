package keyword

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// proseAnalyzerName is the per-index analyzer: unicode tokens,
// lowercased, English stop words removed.
const proseAnalyzerName = "prose_analyzer"

// bleveChunk is the document shape stored in the index. Field names
// double as the retrieval field list.
type bleveChunk struct {
	Content      string `json:"content"`
	DocumentName string `json:"documentName"`
	ChunkIndex   int    `json:"chunkIndex"`
	ParentID     string `json:"parentId"`
}

// BleveSearcher implements Searcher with an in-memory bleve index.
type BleveSearcher struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// NewBleveSearcher creates an empty in-memory lexical index.
func NewBleveSearcher() (*BleveSearcher, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}

	return &BleveSearcher{index: idx}, nil
}

func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(proseAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			en.StopName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = proseAnalyzerName
	return indexMapping, nil
}

// Index adds child chunks to the lexical index.
func (b *BleveSearcher) Index(ctx context.Context, chunks []*store.ChildChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("keyword index is closed")
	}

	batch := b.index.NewBatch()
	for _, c := range chunks {
		if c == nil || c.ID == "" {
			return fmt.Errorf("child chunk must have an id")
		}
		doc := bleveChunk{
			Content:      c.Content,
			DocumentName: metaString(c.Metadata, "documentName", "fileName"),
			ChunkIndex:   metaInt(c.Metadata, "chunkIndex"),
			ParentID:     c.ParentID,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// SearchDocuments returns chunks whose content matches the keyword,
// best score first.
func (b *BleveSearcher) SearchDocuments(ctx context.Context, keyword string, limit int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("keyword index is closed")
	}
	if strings.TrimSpace(keyword) == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(keyword)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"content", "documentName", "chunkIndex", "parentId"}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{
			ChunkID:      h.ID,
			Content:      fieldString(h.Fields, "content"),
			DocumentName: fieldString(h.Fields, "documentName"),
			ChunkIndex:   fieldInt(h.Fields, "chunkIndex"),
			ParentID:     fieldString(h.Fields, "parentId"),
			Score:        h.Score,
		})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (b *BleveSearcher) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, fmt.Errorf("keyword index is closed")
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close releases the index.
func (b *BleveSearcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// metaString returns the first present string value among keys.
func metaString(meta map[string]any, keys ...string) string {
	if meta == nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := meta[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bleve returns stored fields loosely typed; numbers come back as
// float64.
func fieldString(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}

func fieldInt(fields map[string]interface{}, key string) int {
	if f, ok := fields[key].(float64); ok {
		return int(f)
	}
	return 0
}

var _ Searcher = (*BleveSearcher)(nil)
