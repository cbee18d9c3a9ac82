package validate

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkResult holds the outcome for the input at position Seq.
type WorkResult struct {
	Seq    int
	Path   string
	Result *Result
}

// ParallelValidate validates paths using a bounded pool of workers, one
// engine per input. Results arrive in completion order; use OrderedCollect
// to consume them in input order. If workers is 0, runtime.NumCPU() is used.
func ParallelValidate(ctx context.Context, paths []string, cfg Config, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Buffered for every input so workers never block on a stopped collector.
	results := make(chan WorkResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for i, path := range paths {
			g.Go(func() error {
				results <- WorkResult{
					Seq:    i,
					Path:   path,
					Result: ValidateFile(gctx, path, cfg),
				}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// Files validates every path concurrently and calls fn with each result in
// input order. It stops at the first error returned by fn.
func Files(ctx context.Context, paths []string, cfg Config, workers int, fn func(WorkResult) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return OrderedCollect(ParallelValidate(ctx, paths, cfg, workers), func(r WorkResult) error {
		if err := fn(r); err != nil {
			cancel()
			return err
		}
		return nil
	})
}
