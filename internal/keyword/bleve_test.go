package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

func textChunk(id, content, docName string, idx int) *store.ChildChunk {
	return &store.ChildChunk{
		ID:       id,
		Content:  content,
		ParentID: "parent-" + id,
		Metadata: map[string]any{
			"documentName": docName,
			"chunkIndex":   idx,
		},
	}
}

func TestBleveSearcher_IndexAndSearch(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, []*store.ChildChunk{
		textChunk("c1", "Virtual memory lets a process address more memory than physically installed.", "os-notes.md", 0),
		textChunk("c2", "The scheduler picks the next runnable process from the run queue.", "os-notes.md", 1),
		textChunk("c3", "Photosynthesis converts light into chemical energy.", "biology.md", 0),
	}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := s.SearchDocuments(ctx, "memory", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "os-notes.md", hits[0].DocumentName)
	assert.Equal(t, 0, hits[0].ChunkIndex)
	assert.Equal(t, "parent-c1", hits[0].ParentID)
	assert.Contains(t, hits[0].Content, "Virtual memory")
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestBleveSearcher_CaseInsensitive(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, []*store.ChildChunk{
		textChunk("c1", "CPU caches sit between registers and main memory.", "hw.md", 0),
	}))

	hits, err := s.SearchDocuments(ctx, "CACHES", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestBleveSearcher_EmptyKeyword(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	hits, err := s.SearchDocuments(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleveSearcher_LimitRespected(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	var chunks []*store.ChildChunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, textChunk(
			string(rune('a'+i)), "kernel threads share the kernel address space", "k.md", i))
	}
	require.NoError(t, s.Index(ctx, chunks))

	hits, err := s.SearchDocuments(ctx, "kernel", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestBleveSearcher_ReindexReplacesByID(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, []*store.ChildChunk{
		textChunk("c1", "original content about databases", "d.md", 0),
	}))
	require.NoError(t, s.Index(ctx, []*store.ChildChunk{
		textChunk("c1", "replacement content about compilers", "d.md", 0),
	}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := s.SearchDocuments(ctx, "databases", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = s.SearchDocuments(ctx, "compilers", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBleveSearcher_ClosedOperationsFail(t *testing.T) {
	s, err := NewBleveSearcher()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Index(context.Background(), []*store.ChildChunk{textChunk("c1", "x", "d.md", 0)})
	assert.Error(t, err)

	_, err = s.SearchDocuments(context.Background(), "x", 10)
	assert.Error(t, err)
}
