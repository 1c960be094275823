package indexer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// BuildFunc indexes a single subject and returns its page count.
type BuildFunc func(ctx context.Context, src Source) (int, error)

// Batcher runs subject builds concurrently with configurable parallelism.
type Batcher struct {
	concurrency int
	build       BuildFunc
	onProgress  ProgressFunc
}

// NewBatcher creates a new Batcher with the given concurrency limit.
func NewBatcher(concurrency int, build BuildFunc, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{
		concurrency: concurrency,
		build:       build,
		onProgress:  onProgress,
	}
}

// Process builds every source. Results are returned in source order; one
// failing subject does not stop the others.
func (b *Batcher) Process(ctx context.Context, sources []Source) []SubjectResult {
	total := len(sources)
	results := make([]SubjectResult, total)
	if total == 0 {
		return results
	}

	sem := make(chan struct{}, b.concurrency)
	var processed int64

	report := func(subject string) {
		count := atomic.AddInt64(&processed, 1)
		if b.onProgress != nil {
			b.onProgress(int(count), total, subject)
		}
	}

	var wg sync.WaitGroup
	for i, src := range sources {
		select {
		case <-ctx.Done():
			results[i] = SubjectResult{Subject: src.Subject, Err: ctx.Err()}
			report(src.Subject)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			pages, err := b.build(ctx, src)
			results[i] = SubjectResult{
				Subject:  src.Subject,
				Pages:    pages,
				Err:      err,
				Duration: time.Since(start),
			}
			report(src.Subject)
		}(i, src)
	}

	wg.Wait()
	return results
}
