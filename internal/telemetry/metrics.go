// Package telemetry collects in-process query metrics: latency
// histogram, cache hit rates, retrieval-method counts, and
// degraded-mode counters. Everything is in memory; a restart clears
// it.
package telemetry

import (
	"sync"
	"time"
)

// LatencyBucket is one histogram bucket label.
type LatencyBucket string

const (
	BucketUnder100ms LatencyBucket = "lt_100ms"
	BucketUnder500ms LatencyBucket = "lt_500ms"
	BucketUnder2s    LatencyBucket = "lt_2s"
	BucketUnder10s   LatencyBucket = "lt_10s"
	BucketSlow       LatencyBucket = "slow"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 100:
		return BucketUnder100ms
	case ms < 500:
		return BucketUnder500ms
	case ms < 2000:
		return BucketUnder2s
	case ms < 10000:
		return BucketUnder10s
	default:
		return BucketSlow
	}
}

// QueryEvent is one answered question.
type QueryEvent struct {
	Question        string
	RetrievalMethod string
	ResultCount     int
	Cached          bool
	Fallback        bool
	Latency         time.Duration
	Timestamp       time.Time
}

// recentCapacity bounds the in-memory event window.
const recentCapacity = 256

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	TotalQueries       int64
	CacheHits          int64
	CacheMisses        int64
	FallbackAnswers    int64
	DegradedRetrievals int64

	LatencyBuckets map[LatencyBucket]int64
	MethodCounts   map[string]int64

	AverageLatency time.Duration
	ZeroResults    int64
}

// CacheHitRate returns hits / (hits + misses).
func (s *Snapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// Metrics accumulates query events. Safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	totalQueries       int64
	cacheHits          int64
	cacheMisses        int64
	fallbackAnswers    int64
	degradedRetrievals int64
	zeroResults        int64

	latencyBuckets map[LatencyBucket]int64
	methodCounts   map[string]int64
	totalLatency   time.Duration

	recent *ring[QueryEvent]
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		latencyBuckets: make(map[LatencyBucket]int64),
		methodCounts:   make(map[string]int64),
		recent:         newRing[QueryEvent](recentCapacity),
	}
}

// Record adds one query event.
func (m *Metrics) Record(ev QueryEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	m.totalLatency += ev.Latency
	m.latencyBuckets[LatencyToBucket(ev.Latency)]++
	if ev.RetrievalMethod != "" {
		m.methodCounts[ev.RetrievalMethod]++
	}
	if ev.Cached {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	if ev.Fallback {
		m.fallbackAnswers++
	}
	if ev.ResultCount == 0 {
		m.zeroResults++
	}
	m.recent.add(ev)
}

// RecordDegradedRetrieval counts a retrieval that fell back to a
// degraded mode (semantic-only or child-level results).
func (m *Metrics) RecordDegradedRetrieval() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradedRetrievals++
}

// Recent returns the retained event window, oldest first.
func (m *Metrics) Recent() []QueryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recent.items()
}

// SnapshotNow copies the current counters.
func (m *Metrics) SnapshotNow() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Snapshot{
		TotalQueries:       m.totalQueries,
		CacheHits:          m.cacheHits,
		CacheMisses:        m.cacheMisses,
		FallbackAnswers:    m.fallbackAnswers,
		DegradedRetrievals: m.degradedRetrievals,
		ZeroResults:        m.zeroResults,
		LatencyBuckets:     make(map[LatencyBucket]int64, len(m.latencyBuckets)),
		MethodCounts:       make(map[string]int64, len(m.methodCounts)),
	}
	for k, v := range m.latencyBuckets {
		s.LatencyBuckets[k] = v
	}
	for k, v := range m.methodCounts {
		s.MethodCounts[k] = v
	}
	if m.totalQueries > 0 {
		s.AverageLatency = m.totalLatency / time.Duration(m.totalQueries)
	}
	return s
}

// ring is a fixed-capacity FIFO buffer. Callers hold the Metrics
// mutex, so the ring itself is unsynchronized.
type ring[T any] struct {
	buf      []T
	head     int
	size     int
	capacity int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &ring[T]{buf: make([]T, capacity), capacity: capacity}
}

func (r *ring[T]) add(item T) {
	r.buf[r.head] = item
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

func (r *ring[T]) items() []T {
	out := make([]T, r.size)
	if r.size < r.capacity {
		copy(out, r.buf[:r.size])
		return out
	}
	copy(out, r.buf[r.head:])
	copy(out[r.capacity-r.head:], r.buf[:r.head])
	return out
}
