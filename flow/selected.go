package flow

import (
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/tag"
)

// SelectedInstruction is a view combining an instruction's owning block,
// its value tag, the instruction itself, and a cached position in the
// owning block's instruction list. The cached index is monotonic within
// one snapshot: once computed it stays correct until the instruction is
// removed, per the ordering guarantees a single builder snapshot gives
// its observers.
type SelectedInstruction struct {
	Block       tag.Block
	Value       tag.Value
	Instruction instr.Instruction
	index       int
}

// Index returns the cached position of this instruction within its
// owning block's Code list, as of the snapshot it was selected from.
func (s SelectedInstruction) Index() int { return s.index }

// Select resolves a value tag to a SelectedInstruction against g,
// recomputing its index by scanning the owning block's Code list. Views
// obtained from InsertInstruction carry an already-correct index and
// don't need this; Builder re-resolves through it on every access
// because its current snapshot may have changed underneath a held tag.
func Select(g Graph, v tag.Value) (SelectedInstruction, bool) {
	b, ok := g.owners[v]
	if !ok {
		return SelectedInstruction{}, false
	}

	i, ok := g.instructions[v]
	if !ok {
		return SelectedInstruction{}, false // v is a block parameter, not an instruction
	}

	bb := g.blocks[b]

	for idx, c := range bb.Code {
		if c == v {
			return SelectedInstruction{Block: b, Value: v, Instruction: i, index: idx}, true
		}
	}

	return SelectedInstruction{}, false
}

// PreviousInstruction returns the instruction immediately before s in
// its owning block, re-resolved against g.
func (s SelectedInstruction) PreviousInstruction(g Graph) (SelectedInstruction, bool) {
	bb, ok := g.blocks[s.Block]
	if !ok || s.index <= 0 || s.index > len(bb.Code) {
		return SelectedInstruction{}, false
	}

	return Select(g, bb.Code[s.index-1])
}

// NextInstruction returns the instruction immediately after s in its
// owning block, re-resolved against g.
func (s SelectedInstruction) NextInstruction(g Graph) (SelectedInstruction, bool) {
	bb, ok := g.blocks[s.Block]
	if !ok || s.index+1 >= len(bb.Code) {
		return SelectedInstruction{}, false
	}

	return Select(g, bb.Code[s.index+1])
}
