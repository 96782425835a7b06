// Package store holds the chunk hierarchy: parent (large) chunks keyed
// by id, referenced by the child (small, embedded) chunks that live in
// the vector and keyword indexes. Parents form a doubly-linked sequence
// per source document, linked by id, enabling narrative expansion.
package store

import (
	"time"
)

// ChildChunk is the small, embedded unit used for vector search.
// Immutable once stored; ParentID is a foreign, non-owning reference
// into the hierarchy store. A broken link is tolerated at read time as
// a fallback-to-child-level condition, never a hard failure.
type ChildChunk struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"-"`
	ParentID  string         `json:"parentId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ParentMetadata carries the linked-list and position fields of a parent.
// PreviousChunkID and NextChunkID, when set, must reference another
// parent of the same source document.
type ParentMetadata struct {
	PreviousChunkID       string `json:"previousChunkId,omitempty"`
	NextChunkID           string `json:"nextChunkId,omitempty"`
	PositionInDocument    int    `json:"positionInDocument"`
	TotalChunksInDocument int    `json:"totalChunksInDocument"`

	// Optional source attributes used by the composite scorer.
	FileName  string    `json:"fileName,omitempty"`
	FileType  string    `json:"fileType,omitempty"`
	Language  string    `json:"language,omitempty"`
	FileSize  int64     `json:"fileSize,omitempty"`
	Version   string    `json:"version,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ParentChunk is the larger retrieval unit used for answer context.
// Owned exclusively by the hierarchy store; created at ingestion,
// evicted under LRU-ish cleanup or after the max-age window.
type ParentChunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	Content    string         `json:"content"`
	Metadata   ParentMetadata `json:"metadata"`

	StoredAt     time.Time `json:"storedAt"`
	AccessCount  int64     `json:"accessCount"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// Stats is a snapshot of store counters.
type Stats struct {
	Size      int    `json:"size"`
	MaxSize   int    `json:"maxSize"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
}
