// Package transform implements spec.md §4.6's intraprocedural transform
// scaffold: a pure graph→graph rewrite built on a flow.Builder, plus the
// two concrete transforms ember ships — delegate lowering and copy
// propagation.
//
// Grounded on back/back.go's allBlocks traversal: a transform walks
// every block's instructions once, rewriting in place through the
// builder rather than constructing a parallel output graph by hand.
package transform

import (
	"context"
	"fmt"

	"github.com/emberlang/ember/flow"

	"tlog.app/go/tlog"
)

// Transform rewrites a graph in place through b. Implementations must
// be pure with respect to anything outside b: no global state, no
// reliance on traversal order across blocks.
type Transform interface {
	Apply(b *flow.Builder) error
}

// Run converts g to a builder, applies t, and returns the resulting
// immutable graph.
func Run(ctx context.Context, t Transform, g flow.Graph) (_ flow.Graph, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "transform: apply", "transform", fmt.Sprintf("%T", t))
	defer tr.Finish("err", &err)

	b := flow.NewBuilder(g)

	if err := t.Apply(b); err != nil {
		return flow.Graph{}, err
	}

	return b.ToImmutable(), nil
}

// RunAll applies each transform in sequence, threading the resulting
// graph from one into the next.
func RunAll(ctx context.Context, ts []Transform, g flow.Graph) (_ flow.Graph, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "transform: apply all", "count", len(ts))
	defer tr.Finish("err", &err)

	for _, t := range ts {
		var err error

		g, err = Run(ctx, t, g)
		if err != nil {
			return flow.Graph{}, err
		}
	}

	return g, nil
}
