package tags

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jward/tags/internal/store"
)

type tagResult struct {
	path  string
	batch *store.TagBatch
	err   error
}

// indexFilesParallel indexes files in two stages:
//
//	Workers (parallel): read, hash check and tag generation, one Context each.
//	Writer (serial):    commit each file's batch to SQLite.
//
// Configurations are shared read-only between workers.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(paths))

	pool := sync.Pool{
		New: func() any { return NewContext(WithContextLogger(e.logger)) },
	}
	results := make(chan tagResult, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		for _, path := range paths {
			if gctx.Err() != nil {
				return
			}
			g.Go(func() error {
				tc := pool.Get().(*Context)
				defer pool.Put(tc)
				batch, err := e.tagFile(gctx, tc, path)
				results <- tagResult{path: path, batch: batch, err: err}
				return nil
			})
		}
	}()

	go func() {
		producers.Wait()
		g.Wait()
		close(results)
	}()

	var errs []error
	committed := 0
	for res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", res.path, res.err))
			continue
		}
		if res.batch == nil {
			continue
		}
		if err := e.store.CommitBatch(res.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.path, err))
			continue
		}
		committed++
	}
	e.logger.Debug("parallel indexing done",
		zap.Int("files", len(paths)), zap.Int("committed", committed), zap.Int("workers", workers))

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}
