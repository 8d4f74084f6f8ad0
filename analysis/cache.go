// Package analysis implements the macro (analysis) cache: a registry of
// analyses over a flow.Graph, indexed by result type, with refcounted
// slot reuse and per-slot incremental update.
package analysis

import (
	"reflect"

	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/flow"

	"tlog.app/go/errors"
)

// Key identifies a result type an analysis can satisfy.
type Key = reflect.Type

// KeyOf returns the Key for T.
func KeyOf[T any]() Key {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Analysis computes a cached result of some type over a flow.Graph.
// Keys names every result type this analysis satisfies — its own result
// type plus any supertype/interface the caller wants callers to be able
// to query it as.
type Analysis interface {
	Keys() []Key
	Run(g flow.Graph) (any, error)

	// Update refreshes a previously computed result after delta.
	// hadPrev reports whether the slot holds a computed result in prev.
	// WithAnalysis runs the analysis when it registers it, so slots it
	// fills are always passed hadPrev true; when hadPrev is false, prev
	// is nil and Update should behave like Run.
	Update(prev any, hadPrev bool, delta flow.GraphDelta, g flow.Graph) (any, error)
}

type slot struct {
	analysis Analysis
	keys     []Key
	refcount int
	result   any
	computed bool
}

// Cache is a persistent registry of analyses. The zero value is not
// usable; construct with New.
type Cache struct {
	slots []slot
	index map[Key]int
}

// New returns an empty cache.
func New() Cache {
	return Cache{index: map[Key]int{}}
}

func (c Cache) clone() Cache {
	n := Cache{
		slots: append([]slot{}, c.slots...),
		index: make(map[Key]int, len(c.index)),
	}

	for k, v := range c.index {
		n.index[k] = v
	}

	return n
}

// WithAnalysis registers a, reusing a dangling slot (one whose refcount
// drops to zero as a's keys steal its bindings) when one exists,
// compacting the slot list when more than one goes dangling at once.
// The analysis runs immediately against g to populate its slot.
func (c Cache) WithAnalysis(g flow.Graph, a Analysis) (Cache, error) {
	n := c.clone()
	keys := a.Keys()

	dangling := map[int]bool{}

	for _, k := range keys {
		idx, ok := n.index[k]
		if !ok {
			continue
		}

		n.slots[idx].refcount--
		if n.slots[idx].refcount <= 0 {
			dangling[idx] = true
		}

		delete(n.index, k)
	}

	target := n.reuseOrAppendSlot(dangling)

	result, err := a.Run(g)
	if err != nil {
		return c, errors.Wrap(err, "run analysis")
	}

	n.slots[target] = slot{analysis: a, keys: append([]Key{}, keys...), refcount: len(keys), result: result, computed: true}

	for _, k := range keys {
		n.index[k] = target
	}

	return n, nil
}

// reuseOrAppendSlot picks a slot index for a newly registered analysis:
// zero dangling slots appends one, exactly one reuses it directly, more
// than one compacts the slot list down to the lowest dangling index.
func (c *Cache) reuseOrAppendSlot(dangling map[int]bool) int {
	switch len(dangling) {
	case 0:
		c.slots = append(c.slots, slot{})
		return len(c.slots) - 1
	case 1:
		for idx := range dangling {
			return idx
		}
	}

	keep := minIndex(dangling)
	remap := c.compact(dangling, keep)

	return remap[keep]
}

func minIndex(m map[int]bool) int {
	first := true
	min := 0

	for idx := range m {
		if first || idx < min {
			min = idx
			first = false
		}
	}

	return min
}

// compact drops every dangling slot except keep, returning the index
// remap old→new every surviving slot moved under.
func (c *Cache) compact(dangling map[int]bool, keep int) map[int]int {
	remove := map[int]bool{}
	for idx := range dangling {
		if idx != keep {
			remove[idx] = true
		}
	}

	remap := make(map[int]int, len(c.slots))
	newSlots := make([]slot, 0, len(c.slots)-len(remove))

	for i, s := range c.slots {
		if remove[i] {
			continue
		}

		remap[i] = len(newSlots)
		newSlots = append(newSlots, s)
	}

	c.slots = newSlots

	for k, idx := range c.index {
		c.index[k] = remap[idx]
	}

	return remap
}

// Update maps every distinct slot through slot.analysis.Update(delta),
// in slot-list order, rebinding each slot's result in place. It
// iterates the cache's existing slots — never a yet-unpopulated output
// slice — so every analysis sees every delta exactly once regardless of
// how many result types currently point at its slot.
func (c Cache) Update(g flow.Graph, delta flow.GraphDelta) (Cache, error) {
	n := c.clone()

	for i, s := range n.slots {
		if s.analysis == nil {
			continue
		}

		result, err := s.analysis.Update(s.result, s.computed, delta, g)
		if err != nil {
			return c, errors.Wrap(err, "update analysis slot %d", i)
		}

		s.result = result
		s.computed = true
		n.slots[i] = s
	}

	return n, nil
}

// GetResultAs dispatches to the slot registered for T's key, failing
// with diag.AnalysisNotRegistered if nothing has bound it.
func GetResultAs[T any](c Cache) (T, error) {
	var zero T

	k := KeyOf[T]()

	idx, ok := c.index[k]
	if !ok {
		return zero, diag.AnalysisNotRegistered{ResultType: k.String()}
	}

	v, ok := c.slots[idx].result.(T)
	if !ok {
		return zero, errors.New("analysis cache: slot for %v holds %T, not %v", k, c.slots[idx].result, k)
	}

	return v, nil
}
