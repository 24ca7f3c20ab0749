// Package workpool runs independent work units on a bounded set of goroutines.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every item using at most workers goroutines and returns
// the results in item order. Each call writes only its own result slot, so
// the output does not depend on scheduling. The first error cancels the
// context passed to pending calls and is returned once all calls finished.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, items[i])
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
