package flow

import "github.com/emberlang/ember/tag"

// GraphDelta describes what changed between two Graph snapshots: the
// concrete shape analyses are handed by the macro cache's update, since
// the abstract "graph_delta" the cache algorithm passes around has to
// resolve to something a slot can actually inspect.
type GraphDelta struct {
	AddedBlocks   []tag.Block
	RemovedBlocks []tag.Block
	AddedValues   []tag.Value
	RemovedValues []tag.Value
}

// Empty reports whether the delta carries no changes at all — a cache
// slot can treat this as a no-op refresh.
func (d GraphDelta) Empty() bool {
	return len(d.AddedBlocks) == 0 && len(d.RemovedBlocks) == 0 &&
		len(d.AddedValues) == 0 && len(d.RemovedValues) == 0
}

// Diff computes the delta from prev to next. Both must be snapshots
// produced from a common ancestor by the same Builder lineage for the
// result to be meaningful; Diff itself only compares block and value
// membership, not content.
func Diff(prev, next Graph) GraphDelta {
	var d GraphDelta

	for _, b := range next.blockOrder {
		if !prev.ContainsBlock(b) {
			d.AddedBlocks = append(d.AddedBlocks, b)
		}
	}

	for _, b := range prev.blockOrder {
		if !next.ContainsBlock(b) {
			d.RemovedBlocks = append(d.RemovedBlocks, b)
		}
	}

	for v := range next.owners {
		if !prev.ContainsValue(v) {
			d.AddedValues = append(d.AddedValues, v)
		}
	}

	for v := range prev.owners {
		if !next.ContainsValue(v) {
			d.RemovedValues = append(d.RemovedValues, v)
		}
	}

	return d
}
