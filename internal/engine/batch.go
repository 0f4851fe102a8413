package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/kvittering/internal/model"
)

// Document is one receipt queued for batch classification.
type Document struct {
	Name string
	Blob []byte
}

// BatchOptions configures batch classification behavior.
type BatchOptions struct {
	OnProgress      func(done int) // Called after each document; may be nil
	ParallelWorkers int
}

// DefaultBatchOptions returns sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{ParallelWorkers: 4}
}

// BatchResult is the outcome for one document.
type BatchResult struct {
	Error    error
	Analysis *model.NorwegianAnalysis
	Name     string
}

// BatchSummary contains statistics about a batch run.
type BatchSummary struct {
	Results        []BatchResult
	Classified     int
	Failed         int
	ProcessingTime time.Duration
}

type batchJob struct {
	doc   Document
	index int
}

// ClassifyBatch classifies documents in parallel. Results keep the input order.
func (e *Engine) ClassifyBatch(ctx context.Context, docs []Document, orgType string, now time.Time, opts BatchOptions) *BatchSummary {
	startTime := time.Now()
	if opts.ParallelWorkers <= 0 {
		opts.ParallelWorkers = DefaultBatchOptions().ParallelWorkers
	}

	workChan := make(chan batchJob, len(docs))
	for i, doc := range docs {
		workChan <- batchJob{index: i, doc: doc}
	}
	close(workChan)

	results := make([]BatchResult, len(docs))
	var mu sync.Mutex
	done := 0

	var wg sync.WaitGroup
	wg.Add(opts.ParallelWorkers)

	for i := 0; i < opts.ParallelWorkers; i++ {
		go func(workerID int) {
			defer wg.Done()
			for job := range workChan {
				result := BatchResult{Name: job.doc.Name}
				if err := ctx.Err(); err != nil {
					result.Error = err
				} else {
					result.Analysis, result.Error = e.ClassifyDocument(ctx, job.doc.Blob, orgType, now)
				}
				if result.Error != nil {
					slog.Debug("Document classification failed",
						"worker_id", workerID,
						"document", job.doc.Name,
						"error", result.Error)
				}

				mu.Lock()
				results[job.index] = result
				done++
				if opts.OnProgress != nil {
					opts.OnProgress(done)
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	summary := &BatchSummary{Results: results, ProcessingTime: time.Since(startTime)}
	for _, r := range results {
		if r.Error != nil {
			summary.Failed++
		} else {
			summary.Classified++
		}
	}
	return summary
}
