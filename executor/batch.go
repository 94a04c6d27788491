package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentloop/core"
)

// CallBatch runs Call for every input concurrently, with at most limit calls
// in flight (limit <= 0 means no limit). Results keep the order of inputs.
// The first failure cancels the remaining calls and is returned.
func (e *Executor) CallBatch(ctx context.Context, inputs []core.Values, limit int) ([]core.Values, error) {
	results := make([]core.Values, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, in := range inputs {
		g.Go(func() error {
			out, err := e.Call(gctx, in)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
