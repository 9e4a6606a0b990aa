package combine

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type job struct {
	index int
	path  string
}

type result struct {
	index   int
	content FileContent
	err     error
}

// ProcessFilesConcurrently processes files using a worker pool and hands each
// result to emit in the order of files. The first error stops the pool.
func ProcessFilesConcurrently(ctx context.Context, files []string, maxWorkers int, s Summarizer, emit func(FileContent) error, logger *zap.Logger) error {
	if len(files) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	jobs := make(chan job)
	results := make(chan result, maxWorkers)
	var wg sync.WaitGroup

	logger.Debug("Initializing worker pool", zap.Int("workers", maxWorkers))
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go worker(ctx, w, jobs, results, s, &wg, logger.With(zap.Int("workerID", w)))
	}

	go func() {
		defer close(jobs)
		for i, file := range files {
			select {
			case jobs <- job{index: i, path: file}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]FileContent)
	next := 0
	var firstErr error
	for r := range results {
		if firstErr != nil {
			continue
		}
		if r.err != nil {
			firstErr = r.err
			cancel()
			continue
		}

		pending[r.index] = r.content
		for {
			content, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := emit(content); err != nil {
				firstErr = err
				cancel()
				break
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if next < len(files) {
		return ctx.Err()
	}
	logger.Debug("All files processed", zap.Int("processedFiles", next))
	return nil
}

// worker is a goroutine that processes files from the jobs channel.
func worker(ctx context.Context, id int, jobs <-chan job, results chan<- result, s Summarizer, wg *sync.WaitGroup, logger *zap.Logger) {
	defer wg.Done()
	logger.Debug("Worker started")

	for j := range jobs {
		if ctx.Err() != nil {
			results <- result{index: j.index, err: ctx.Err()}
			continue
		}
		content, err := ProcessSingleFile(ctx, j.path, s, logger)
		results <- result{index: j.index, content: content, err: err}
	}

	logger.Debug("Worker finished processing", zap.Int("workerID", id))
}
