package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// ChildText is one child chunk handed in by the ingestion pipeline,
// with its back-reference into the parent records.
type ChildText struct {
	Text     string
	ParentID string
	Metadata map[string]any
}

// IngestResult reports what one document ingestion produced.
type IngestResult struct {
	DocumentID string `json:"documentId"`

	// Embeddings holds one entry per child text, in input order.
	// Positions covered by a failed embedding batch are nil.
	Embeddings [][]float32 `json:"-"`

	// IndexedChunks is how many children made it into the indexes.
	IndexedChunks int `json:"indexedChunks"`

	// FailedChunks is how many children were skipped because their
	// batch failed.
	FailedChunks int `json:"failedChunks"`
}

// Ingest stores the parent records, embeds the child texts in
// mini-batches, and indexes the successfully embedded children into
// the vector and keyword indexes. Children whose batch failed are
// skipped, never indexed with a hole.
func (e *Engine) Ingest(ctx context.Context, documentID string, children []ChildText, parents []*store.ParentChunk) (*IngestResult, error) {
	if documentID == "" {
		return nil, ragerr.ValidationError("document id must not be empty")
	}
	start := time.Now()

	// Parents go in first so every child's back-reference resolves at
	// write time.
	for _, p := range parents {
		if p.DocumentID == "" {
			p.DocumentID = documentID
		}
	}
	if len(parents) > 0 {
		if err := e.hierarchy.Put(parents...); err != nil {
			return nil, err
		}
	}

	result := &IngestResult{DocumentID: documentID}
	if len(children) == 0 {
		result.Embeddings = [][]float32{}
		return result, nil
	}

	parentByID := make(map[string]*store.ParentChunk, len(parents))
	for _, p := range parents {
		parentByID[p.ID] = p
	}

	// Every back-reference must resolve at write time. Broken links
	// are only tolerated later, at read time.
	for i, c := range children {
		if c.ParentID == "" {
			continue
		}
		if _, ok := parentByID[c.ParentID]; ok {
			continue
		}
		if !e.hierarchy.Contains(c.ParentID) {
			return nil, ragerr.New(ragerr.ErrCodeParentNotFound, "child chunk references unknown parent").
				WithDetail("parent_id", c.ParentID).
				WithDetail("chunk_index", fmt.Sprintf("%d", i))
		}
	}

	texts := make([]string, len(children))
	for i, c := range children {
		texts[i] = c.Text
	}

	embeddings, err := e.scheduler.Submit(ctx, documentID, texts, e.embedder.EmbedBatch)
	if err != nil {
		return nil, err
	}
	result.Embeddings = embeddings

	chunks := make([]*store.ChildChunk, 0, len(children))
	for i, c := range children {
		if embeddings[i] == nil {
			result.FailedChunks++
			continue
		}
		chunks = append(chunks, &store.ChildChunk{
			ID:        fmt.Sprintf("%s:%d", documentID, i),
			Content:   c.Text,
			Embedding: embeddings[i],
			ParentID:  c.ParentID,
			Metadata:  childMetadata(documentID, i, c, parentByID[c.ParentID]),
		})
	}

	if len(chunks) > 0 {
		if err := e.index.Add(ctx, chunks); err != nil {
			return nil, ragerr.Wrap(ragerr.ErrCodeIndexWrite, err)
		}
		if err := e.keywords.Index(ctx, chunks); err != nil {
			return nil, ragerr.Wrap(ragerr.ErrCodeIndexWrite, err)
		}
	}
	result.IndexedChunks = len(chunks)

	slog.Info("document_ingested",
		slog.String("document_id", documentID),
		slog.Int("children", len(children)),
		slog.Int("indexed", result.IndexedChunks),
		slog.Int("failed", result.FailedChunks),
		slog.Int("parents", len(parents)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// childMetadata merges the caller's metadata with fields derived from
// the linked parent, so search filters and scoring have what they
// need at the child level.
func childMetadata(documentID string, index int, c ChildText, parent *store.ParentChunk) map[string]any {
	meta := make(map[string]any, len(c.Metadata)+8)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta["chunkIndex"] = index
	if _, ok := meta["documentName"]; !ok {
		meta["documentName"] = documentID
	}
	if parent == nil {
		return meta
	}

	pm := parent.Metadata
	if pm.FileName != "" {
		meta["documentName"] = pm.FileName
	}
	setIfAbsent(meta, "fileType", pm.FileType)
	setIfAbsent(meta, "language", pm.Language)
	setIfAbsent(meta, "version", pm.Version)
	if pm.FileSize > 0 {
		if _, ok := meta["fileSize"]; !ok {
			meta["fileSize"] = pm.FileSize
		}
	}
	if !pm.CreatedAt.IsZero() {
		if _, ok := meta["createdAt"]; !ok {
			meta["createdAt"] = pm.CreatedAt
		}
	}
	return meta
}

func setIfAbsent(meta map[string]any, key, value string) {
	if value == "" {
		return
	}
	if _, ok := meta[key]; !ok {
		meta[key] = value
	}
}
