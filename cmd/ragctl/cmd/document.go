package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// DocumentFile is the JSON shape accepted by --documents and ingest.
type DocumentFile struct {
	DocumentID string        `json:"documentId"`
	Children   []ChildEntry  `json:"children"`
	Parents    []ParentEntry `json:"parents"`
}

// ChildEntry is one child chunk text with its parent link.
type ChildEntry struct {
	Text     string         `json:"text"`
	ParentID string         `json:"parentId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ParentEntry is one parent chunk record.
type ParentEntry struct {
	ID       string               `json:"id"`
	Content  string               `json:"content"`
	Metadata store.ParentMetadata `json:"metadata"`
}

// loadDocumentFile parses one document JSON file.
func loadDocumentFile(path string) (*DocumentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc DocumentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.DocumentID == "" {
		return nil, fmt.Errorf("%s: documentId is required", path)
	}
	return &doc, nil
}

// ingestDocuments loads and ingests every file into the engine.
func ingestDocuments(ctx context.Context, eng *engine.Engine, paths []string) ([]*engine.IngestResult, error) {
	results := make([]*engine.IngestResult, 0, len(paths))
	for _, path := range paths {
		doc, err := loadDocumentFile(path)
		if err != nil {
			return nil, err
		}

		children := make([]engine.ChildText, 0, len(doc.Children))
		for _, c := range doc.Children {
			children = append(children, engine.ChildText{
				Text:     c.Text,
				ParentID: c.ParentID,
				Metadata: c.Metadata,
			})
		}
		parents := make([]*store.ParentChunk, 0, len(doc.Parents))
		for _, p := range doc.Parents {
			parents = append(parents, &store.ParentChunk{
				ID:       p.ID,
				Content:  p.Content,
				Metadata: p.Metadata,
			})
		}

		res, err := eng.Ingest(ctx, doc.DocumentID, children, parents)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest %s: %w", doc.DocumentID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// printJSON writes indented JSON to the writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// commandContext returns a bounded context for one CLI invocation.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Minute)
}
