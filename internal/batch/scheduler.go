package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
)

// Scheduler runs embedding mini-batches through a worker pool bounded
// by a weighted semaphore. The semaphore is global, so documents
// submitted concurrently share the same budget. Admission order under
// contention follows semaphore FIFO, no fairness across documents.
type Scheduler struct {
	config Config
	sem    *semaphore.Weighted

	mu        sync.Mutex
	jobs      map[string][]*BatchJob
	docDone   map[string]time.Time
	listeners []Listener
}

// NewScheduler creates a scheduler with the given sizing.
func NewScheduler(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		config:  cfg,
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
		jobs:    make(map[string][]*BatchJob),
		docDone: make(map[string]time.Time),
	}
}

// Subscribe registers a lifecycle listener.
func (s *Scheduler) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Submit embeds a document's texts in mini-batches and returns one
// embedding per input text, in input order. A failed batch does not
// abort the document; its positions hold nil so the caller keeps
// positional alignment with the chunk list. The returned error is
// non-nil only for invalid input, context cancellation, or when every
// batch failed.
func (s *Scheduler) Submit(ctx context.Context, documentID string, texts []string, embed EmbedFunc) ([][]float32, error) {
	if documentID == "" {
		return nil, ragerr.ValidationError("document id must not be empty")
	}
	if embed == nil {
		return nil, ragerr.ValidationError("embed function must not be nil")
	}

	s.gc()

	if len(texts) == 0 {
		s.markDocumentDone(documentID)
		return [][]float32{}, nil
	}

	jobs := s.enqueue(documentID, texts)
	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		start := i * s.config.BatchSize
		end := start + job.Size
		batchTexts := texts[start:end]
		job := job
		offset := start

		g.Go(func() error {
			if err := s.sem.Acquire(gctx, 1); err != nil {
				s.finishJob(job, err)
				return err
			}
			defer s.sem.Release(1)

			s.startJob(job)

			embeddings, err := embed(gctx, batchTexts)
			if err == nil && len(embeddings) != len(batchTexts) {
				err = ragerr.New(ragerr.ErrCodeEmbedFailed, "embedder returned wrong batch size").
					WithDetail("batch_id", job.BatchID)
			}
			s.finishJob(job, err)
			if err != nil {
				// Partial-failure semantics: the batch's positions stay
				// nil and remaining batches keep going.
				slog.Warn("embed_batch_failed",
					slog.String("document_id", job.DocumentID),
					slog.String("batch_id", job.BatchID),
					slog.Int("batch_index", job.BatchIndex),
					slog.String("error", err.Error()))
				return nil
			}

			for j, e := range embeddings {
				results[offset+j] = e
			}
			return nil
		})
	}

	err := g.Wait()
	s.markDocumentDone(documentID)
	if err != nil {
		return results, ragerr.Wrap(ragerr.ErrCodeEmbedFailed, err)
	}

	if s.allFailed(documentID) {
		return results, ragerr.New(ragerr.ErrCodeEmbedFailed, "all embedding batches failed").
			WithDetail("document_id", documentID)
	}
	return results, nil
}

// Status reports the batch jobs known for a document. The zero value
// is returned for unknown or garbage-collected documents.
func (s *Scheduler) Status(documentID string) DocumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := DocumentStatus{DocumentID: documentID}
	jobs, ok := s.jobs[documentID]
	if !ok {
		return status
	}

	status.Total = len(jobs)
	status.Jobs = make([]BatchJob, 0, len(jobs))
	for _, j := range jobs {
		status.Jobs = append(status.Jobs, *j)
		switch j.Status {
		case StatusQueued:
			status.Queued++
		case StatusProcessing:
			status.Processing++
		case StatusCompleted:
			status.Completed++
		case StatusFailed:
			status.Failed++
		}
	}
	_, status.Done = s.docDone[documentID]
	return status
}

// NumBatches returns how many mini-batches a text count splits into.
func (s *Scheduler) NumBatches(textCount int) int {
	if textCount <= 0 {
		return 0
	}
	return (textCount + s.config.BatchSize - 1) / s.config.BatchSize
}

func (s *Scheduler) enqueue(documentID string, texts []string) []*BatchJob {
	n := s.NumBatches(len(texts))
	jobs := make([]*BatchJob, 0, n)
	for i := 0; i < n; i++ {
		size := s.config.BatchSize
		if rem := len(texts) - i*s.config.BatchSize; rem < size {
			size = rem
		}
		jobs = append(jobs, &BatchJob{
			DocumentID: documentID,
			BatchID:    uuid.NewString(),
			BatchIndex: i,
			Size:       size,
			Status:     StatusQueued,
		})
	}

	s.mu.Lock()
	// Re-ingestion of the same document starts a fresh job list.
	s.jobs[documentID] = jobs
	delete(s.docDone, documentID)
	s.mu.Unlock()

	return jobs
}

func (s *Scheduler) startJob(job *BatchJob) {
	s.mu.Lock()
	job.Status = StatusProcessing
	job.StartTime = time.Now()
	snapshot := *job
	s.mu.Unlock()

	slog.Debug("embed_batch_started",
		slog.String("document_id", snapshot.DocumentID),
		slog.String("batch_id", snapshot.BatchID),
		slog.Int("batch_index", snapshot.BatchIndex),
		slog.Int("size", snapshot.Size))
	s.publish(Event{Type: EventStarted, Job: snapshot})
}

func (s *Scheduler) finishJob(job *BatchJob, err error) {
	s.mu.Lock()
	job.EndTime = time.Now()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
	}
	snapshot := *job
	s.mu.Unlock()

	if err != nil {
		s.publish(Event{Type: EventFailed, Job: snapshot})
		return
	}
	slog.Debug("embed_batch_completed",
		slog.String("document_id", snapshot.DocumentID),
		slog.String("batch_id", snapshot.BatchID),
		slog.Duration("duration", snapshot.EndTime.Sub(snapshot.StartTime)))
	s.publish(Event{Type: EventCompleted, Job: snapshot})
}

func (s *Scheduler) publish(ev Event) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

func (s *Scheduler) markDocumentDone(documentID string) {
	s.mu.Lock()
	s.docDone[documentID] = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) allFailed(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.jobs[documentID]
	if len(jobs) == 0 {
		return false
	}
	for _, j := range jobs {
		if j.Status != StatusFailed {
			return false
		}
	}
	return true
}

// gc drops job records for documents that completed longer ago than
// the retention window.
func (s *Scheduler) gc() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.config.JobRetention)
	for doc, done := range s.docDone {
		if done.Before(cutoff) {
			delete(s.docDone, doc)
			delete(s.jobs, doc)
		}
	}
}
