package store

import (
	"log/slog"
	"sync"
	"time"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
)

// Default capacity and age bounds.
const (
	DefaultMaxSize = 10000
	DefaultMaxAge  = 24 * time.Hour
)

// evictFraction is the share of parents removed when capacity is hit.
const evictFraction = 0.2

// HierarchyStore is the in-memory parent-chunk store. There is no
// durable persistence: a process restart clears it, so ingestion must
// be replayable by upstream callers.
type HierarchyStore struct {
	maxSize int
	maxAge  time.Duration

	mu        sync.Mutex
	parents   map[string]*ParentChunk
	evictions uint64
	expired   uint64
	closed    bool
}

// HierarchyOption configures a HierarchyStore.
type HierarchyOption func(*HierarchyStore)

// WithMaxSize sets the parent-chunk capacity.
func WithMaxSize(n int) HierarchyOption {
	return func(s *HierarchyStore) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithMaxAge sets the max-age eviction window.
func WithMaxAge(d time.Duration) HierarchyOption {
	return func(s *HierarchyStore) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// NewHierarchyStore creates an empty store with the given options.
func NewHierarchyStore(opts ...HierarchyOption) *HierarchyStore {
	s := &HierarchyStore{
		maxSize: DefaultMaxSize,
		maxAge:  DefaultMaxAge,
		parents: make(map[string]*ParentChunk),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores parent chunks. If a write would exceed capacity the store
// evicts synchronously first; the write itself never fails on capacity.
func (s *HierarchyStore) Put(parents ...*ParentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ragerr.New(ragerr.ErrCodeStoreClosed, "hierarchy store is closed")
	}

	now := time.Now()
	s.sweepExpiredLocked(now)

	for _, p := range parents {
		if p == nil || p.ID == "" {
			return ragerr.ValidationError("parent chunk must have an id")
		}
		if _, exists := s.parents[p.ID]; !exists && len(s.parents) >= s.maxSize {
			s.evictOldestLocked()
		}

		stored := *p
		stored.StoredAt = now
		stored.LastAccessed = now
		stored.AccessCount = 0
		s.parents[p.ID] = &stored
	}
	return nil
}

// Get looks up a parent by id, bumping its access stats.
// Returns a copy so callers cannot mutate store-owned state.
func (s *HierarchyStore) Get(id string) (*ParentChunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parents[id]
	if !ok {
		return nil, false
	}
	p.AccessCount++
	p.LastAccessed = time.Now()

	cp := *p
	return &cp, true
}

// Contains reports whether a parent id exists, without touching its
// access stats.
func (s *HierarchyStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.parents[id]
	return ok
}

// GetSameDocument looks up a parent by id and verifies it belongs to
// documentID. Used for linked-list neighbor resolution, where a
// neighbor reference must stay within the source document.
func (s *HierarchyStore) GetSameDocument(id, documentID string) (*ParentChunk, bool) {
	p, ok := s.Get(id)
	if !ok || p.DocumentID != documentID {
		return nil, false
	}
	return p, true
}

// Len returns the number of stored parents.
func (s *HierarchyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parents)
}

// StatsSnapshot returns current counters.
func (s *HierarchyStore) StatsSnapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Size:      len(s.parents),
		MaxSize:   s.maxSize,
		Evictions: s.evictions,
		Expired:   s.expired,
	}
}

// Close marks the store closed; further writes fail.
func (s *HierarchyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.parents = make(map[string]*ParentChunk)
	return nil
}

// evictOldestLocked removes the oldest 20% of parents by last access
// (falling back to store time for never-read parents). Caller holds the
// mutex.
func (s *HierarchyStore) evictOldestLocked() {
	n := int(float64(s.maxSize) * evictFraction)
	if n < 1 {
		n = 1
	}

	type victim struct {
		id   string
		last time.Time
	}
	victims := make([]victim, 0, n)
	for id, p := range s.parents {
		last := p.LastAccessed
		if last.IsZero() {
			last = p.StoredAt
		}
		if len(victims) < n {
			victims = append(victims, victim{id, last})
			continue
		}
		maxIdx := 0
		for i := 1; i < len(victims); i++ {
			if victims[i].last.After(victims[maxIdx].last) {
				maxIdx = i
			}
		}
		if last.Before(victims[maxIdx].last) {
			victims[maxIdx] = victim{id, last}
		}
	}

	for _, v := range victims {
		delete(s.parents, v.id)
		s.evictions++
	}

	slog.Debug("hierarchy_evicted",
		slog.Int("removed", len(victims)),
		slog.Int("remaining", len(s.parents)))
}

// sweepExpiredLocked removes parents older than maxAge. Caller holds
// the mutex.
func (s *HierarchyStore) sweepExpiredLocked(now time.Time) {
	if s.maxAge <= 0 {
		return
	}
	cutoff := now.Add(-s.maxAge)
	for id, p := range s.parents {
		if p.StoredAt.Before(cutoff) {
			delete(s.parents, id)
			s.expired++
		}
	}
}
