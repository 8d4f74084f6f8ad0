package analysis

import (
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/set"
	"github.com/emberlang/ember/tag"

	"nikand.dev/go/heap"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

// Dominators is the result of running dominatorAnalysis over a graph:
// for each reachable block, the set of blocks that dominate it.
// Grounded on the teacher's back-end dominator pass (back5.go's
// dom[i] = intersect(dom[preds]) + Set(i), back6.go's funContext.dom
// field), rebuilt here as a fixed-point over set.Bitmap keyed by
// reachable-block discovery order rather than linear instruction index.
type Dominators struct {
	order map[tag.Block]int
	dom   []set.Bitmap
}

// Dominates reports whether a dominates b (every path from the entry to
// b passes through a). A block always dominates itself.
func (d Dominators) Dominates(a, b tag.Block) bool {
	ai, ok := d.order[a]
	if !ok {
		return false
	}

	bi, ok := d.order[b]
	if !ok {
		return false
	}

	return d.dom[bi].IsSet(ai)
}

// ImmediateDominator returns b's closest strict dominator — the highest
// discovery-order block in b's dominator set other than b itself.
func (d Dominators) ImmediateDominator(b tag.Block) (tag.Block, bool) {
	bi, ok := d.order[b]
	if !ok {
		return tag.Block{}, false
	}

	best := -1

	d.dom[bi].Range(func(i int) bool {
		if i != bi {
			best = i
		}

		return true
	})

	if best < 0 {
		return tag.Block{}, false
	}

	for blk, idx := range d.order {
		if idx == best {
			return blk, true
		}
	}

	return tag.Block{}, false
}

func computeDominators(g flow.Graph) Dominators {
	blocks := g.Reachable()

	order := make(map[tag.Block]int, len(blocks))
	for i, b := range blocks {
		order[b] = i
	}

	preds := make([][]int, len(blocks))

	for i, b := range blocks {
		bb, _ := g.Block(b)

		for _, fb := range bb.Flow.Branches() {
			if j, ok := order[fb.Branch.Target]; ok {
				preds[j] = append(preds[j], i)
			}
		}
	}

	full := set.MakeBitmap(len(blocks))
	for i := 0; i < len(blocks); i++ {
		full.Set(i)
	}

	dom := make([]set.Bitmap, len(blocks))
	if len(blocks) > 0 {
		dom[0] = set.MakeBitmap(len(blocks))
		dom[0].Set(0)
	}

	for i := 1; i < len(blocks); i++ {
		dom[i] = full.Copy()
	}

	changed := true

	for changed {
		changed = false

		worklist := heap.Heap[int]{Less: func(d []int, i, j int) bool { return d[i] < d[j] }}
		for i := 1; i < len(blocks); i++ {
			worklist.Push(i)
			tlog.V("dominators").Printw("push worklist item", "block", i, "from", loc.Caller(0))
		}

		for worklist.Len() > 0 {
			i := worklist.Pop()

			if len(preds[i]) == 0 {
				continue
			}

			nd := dom[preds[i][0]].Copy()
			for _, p := range preds[i][1:] {
				nd.Intersect(dom[p])
			}

			nd.Set(i)

			if !nd.Equal(dom[i]) {
				dom[i] = nd
				changed = true
			}
		}
	}

	return Dominators{order: order, dom: dom}
}

// dominatorAnalysis implements Analysis, computing Dominators fresh on
// every Run and every Update — an incremental dominator update is its
// own algorithm family the cache's generic update contract doesn't
// require, so this analysis takes the simple, always-correct path.
type dominatorAnalysis struct{}

// NewDominatorAnalysis returns the Analysis that computes Dominators.
func NewDominatorAnalysis() Analysis { return dominatorAnalysis{} }

func (dominatorAnalysis) Keys() []Key { return []Key{KeyOf[Dominators]()} }

func (dominatorAnalysis) Run(g flow.Graph) (any, error) {
	return computeDominators(g), nil
}

func (a dominatorAnalysis) Update(prev any, hadPrev bool, delta flow.GraphDelta, g flow.Graph) (any, error) {
	return a.Run(g)
}
