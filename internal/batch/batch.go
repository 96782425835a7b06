// Package batch schedules embedding work during ingestion. A
// document's child-chunk texts are split into fixed-size mini-batches
// and run through a bounded worker pool shared by all documents.
// Per-batch lifecycle events are published to subscribers.
package batch

import (
	"context"
	"time"
)

// Defaults; overridable through Config.
const (
	DefaultBatchSize    = 10
	DefaultConcurrency  = 3
	DefaultJobRetention = 10 * time.Minute
)

// Status is a batch job's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// EventType identifies a lifecycle signal.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// BatchJob records one mini-batch's lifecycle. Jobs are retained for a
// fixed window after their document completes, then garbage-collected.
type BatchJob struct {
	DocumentID string
	BatchID    string
	BatchIndex int
	Size       int
	Status     Status
	StartTime  time.Time
	EndTime    time.Time
	Error      string
}

// Event is one lifecycle signal with a snapshot of the job.
type Event struct {
	Type EventType
	Job  BatchJob
}

// Listener receives lifecycle events. Listeners run synchronously on
// the worker goroutine and must not block.
type Listener func(Event)

// EmbedFunc turns a batch of texts into embeddings, one per text in
// input order.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// DocumentStatus summarizes all batch jobs for one document.
type DocumentStatus struct {
	DocumentID string
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
	Done       bool
	Jobs       []BatchJob
}

// Config sizes the scheduler.
type Config struct {
	// BatchSize is the number of texts per mini-batch.
	BatchSize int

	// Concurrency caps in-flight batches across all documents.
	Concurrency int

	// JobRetention is how long finished job records stay visible after
	// their document completes.
	JobRetention time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.JobRetention <= 0 {
		c.JobRetention = DefaultJobRetention
	}
	return c
}
