// Package parallel runs independent jobs on a bounded number of goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	NumWorkers int // Maximum goroutines running jobs at once. Values below 1 mean 1.
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	return Config{NumWorkers: runtime.NumCPU()}
}

// For runs f(ctx, i) for every i in [0, n) with at most cfg.NumWorkers jobs
// in flight. It returns the first error. Once a job fails, ctx is canceled
// and jobs that have not started are skipped.
func For(ctx context.Context, n int, cfg Config, f func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.NumWorkers, 1))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, i)
		})
	}
	return g.Wait()
}
