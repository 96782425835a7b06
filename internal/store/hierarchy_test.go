package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeParent(id, docID string) *ParentChunk {
	return &ParentChunk{
		ID:         id,
		DocumentID: docID,
		Content:    "content of " + id,
	}
}

func TestHierarchyStore_PutGet(t *testing.T) {
	s := NewHierarchyStore()

	require.NoError(t, s.Put(makeParent("p1", "doc1")))

	got, ok := s.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "content of p1", got.Content)
	assert.Equal(t, int64(1), got.AccessCount)
	assert.False(t, got.StoredAt.IsZero())
}

func TestHierarchyStore_GetMissing(t *testing.T) {
	s := NewHierarchyStore()
	_, ok := s.Get("absent")
	assert.False(t, ok)
}

func TestHierarchyStore_GetBumpsAccess(t *testing.T) {
	s := NewHierarchyStore()
	require.NoError(t, s.Put(makeParent("p1", "doc1")))

	s.Get("p1")
	s.Get("p1")
	got, _ := s.Get("p1")
	assert.Equal(t, int64(3), got.AccessCount)
}

func TestHierarchyStore_ReturnedCopyIsIsolated(t *testing.T) {
	s := NewHierarchyStore()
	require.NoError(t, s.Put(makeParent("p1", "doc1")))

	got, _ := s.Get("p1")
	got.Content = "mutated"

	again, _ := s.Get("p1")
	assert.Equal(t, "content of p1", again.Content)
}

func TestHierarchyStore_CapacityEvictionNeverFailsWrite(t *testing.T) {
	s := NewHierarchyStore(WithMaxSize(10))

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Put(makeParent(fmt.Sprintf("p%02d", i), "doc1")))
		assert.LessOrEqual(t, s.Len(), 10)
	}

	stats := s.StatsSnapshot()
	assert.Greater(t, stats.Evictions, uint64(0))
}

func TestHierarchyStore_EvictsLeastRecentlyAccessed(t *testing.T) {
	s := NewHierarchyStore(WithMaxSize(5))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(makeParent(fmt.Sprintf("p%d", i), "doc1")))
	}

	// Touch everything except p0 so p0 is the eviction candidate.
	for i := 1; i < 5; i++ {
		s.Get(fmt.Sprintf("p%d", i))
	}

	require.NoError(t, s.Put(makeParent("p5", "doc1")))

	_, ok := s.Get("p0")
	assert.False(t, ok, "least recently accessed parent should be evicted")
	_, ok = s.Get("p5")
	assert.True(t, ok)
}

func TestHierarchyStore_MaxAgeSweep(t *testing.T) {
	s := NewHierarchyStore(WithMaxAge(10 * time.Millisecond))

	require.NoError(t, s.Put(makeParent("old", "doc1")))
	time.Sleep(20 * time.Millisecond)

	// A later write triggers the sweep.
	require.NoError(t, s.Put(makeParent("fresh", "doc1")))

	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), s.StatsSnapshot().Expired)
}

func TestHierarchyStore_GetSameDocument(t *testing.T) {
	s := NewHierarchyStore()
	require.NoError(t, s.Put(makeParent("p1", "doc1"), makeParent("p2", "doc2")))

	_, ok := s.GetSameDocument("p1", "doc1")
	assert.True(t, ok)

	// Cross-document neighbor references are rejected.
	_, ok = s.GetSameDocument("p2", "doc1")
	assert.False(t, ok)
}

func TestHierarchyStore_PutValidation(t *testing.T) {
	s := NewHierarchyStore()
	assert.Error(t, s.Put(&ParentChunk{}))
	assert.Error(t, s.Put(nil))
}

func TestHierarchyStore_ClosedRejectsWrites(t *testing.T) {
	s := NewHierarchyStore()
	require.NoError(t, s.Close())
	assert.Error(t, s.Put(makeParent("p1", "doc1")))
}
