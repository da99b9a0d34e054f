package structure

import (
	"context"

	"github.com/nickng/gostruct/flowgraph"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of structuring one unit.
type Result struct {
	Node        Node
	Diagnostics []Diagnostic
	Err         error // Hard failure of this unit.
}

// StructureAll structures independent units in parallel, at most
// conf.workers at a time. A unit failing does not stop the others; the
// returned error is only set if ctx ends first.
func StructureAll(ctx context.Context, conf *Config, units ...*flowgraph.FlowGraph) ([]Result, error) {
	if conf == nil {
		conf = NewConfig()
	}
	results := make([]Result, len(units))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(conf.workers)
	for i, g := range units {
		i, g := i, g
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, ds, err := NewEngine(conf).Structure(ctx, g)
			results[i] = Result{Node: n, Diagnostics: ds, Err: err}
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
