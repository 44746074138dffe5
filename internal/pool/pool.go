// Package pool runs a worker over a slice with bounded concurrency.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every element of items with at most limit calls in
// flight and returns the results positionally: out[i] is fn's result for
// items[i] whatever order the calls finish in. A limit below 1 is treated
// as 1 (strictly sequential).
//
// Worker errors are not handled here. Map returns the first error any
// worker reported, after all workers have finished; one worker failing
// does not cancel or skip its siblings.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(min(limit, len(items)))

	for i, item := range items {
		g.Go(func() error {
			r, err := fn(ctx, i, item)
			// Each goroutine owns exactly one slot.
			out[i] = r
			return err
		})
	}

	err := g.Wait()
	return out, err
}
