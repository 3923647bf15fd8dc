package upstream

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/portal/core"
)

// Result is the settled outcome of one fetch.
type Result[T any] struct {
	ID    string
	Value T
	Err   error
}

// Settle runs fetch for every id concurrently and waits for all of them.
// It never short-circuits; results are in the order of ids.
func Settle[T any](ctx context.Context, ids []string, fetch func(context.Context, string) (T, error)) []Result[T] {
	results := make([]Result[T], len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			v, err := fetch(ctx, id)
			results[i] = Result[T]{ID: id, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// GetBatch settles fetch over ids and keeps the successes, in input order.
// Failed ids are logged and dropped: the result may be shorter than ids.
func GetBatch[T any](ctx context.Context, logger core.Logger, ids []string, fetch func(context.Context, string) (T, error)) []T {
	out := make([]T, 0, len(ids))
	for _, r := range Settle(ctx, ids, fetch) {
		if r.Err != nil {
			logger.Warn("batch fetch dropped an item", r.Err, map[string]interface{}{"id": r.ID})
			continue
		}
		out = append(out, r.Value)
	}
	return out
}
