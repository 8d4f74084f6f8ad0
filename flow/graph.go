// Package flow implements the persistent control-flow graph: an
// immutable Graph of basic blocks and typed values, and a mutable
// Builder façade that publishes a new Graph snapshot on every edit.
package flow

import (
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// Param is a typed, named value supplied at block entry by every
// incoming branch — the SSA-less equivalent of a phi node.
type Param struct {
	Tag  tag.Value
	Type typ.Type
}

// BasicBlock is the maximal straight-line unit of the graph: its
// parameters, its ordered instructions (named by value tag), and its
// terminating flow.
type BasicBlock struct {
	Params []Param
	Code   []tag.Value
	Flow   instr.Flow
}

// Graph is a persistent snapshot of a control-flow graph. Every mutator
// below returns a new Graph; the receiver is never modified. Graphs
// share no mutable state with each other — each holds its own maps — so
// concurrent reads of distinct snapshots never race.
type Graph struct {
	blocks       map[tag.Block]BasicBlock
	blockOrder   []tag.Block
	instructions map[tag.Value]instr.Instruction
	types        map[tag.Value]typ.Type
	owners       map[tag.Value]tag.Block
	entry        tag.Block
}

// New returns an empty graph with no entry point.
func New() Graph {
	return Graph{
		blocks:       map[tag.Block]BasicBlock{},
		instructions: map[tag.Value]instr.Instruction{},
		types:        map[tag.Value]typ.Type{},
		owners:       map[tag.Value]tag.Block{},
	}
}

// clone returns a shallow copy of g with freshly allocated maps, so
// that mutating the copy never touches g's maps. Values stored in the
// maps (instructions, types, blocks) are themselves immutable, so a
// shallow per-entry copy is sufficient structural sharing.
func (g Graph) clone() Graph {
	n := Graph{
		blocks:       make(map[tag.Block]BasicBlock, len(g.blocks)),
		blockOrder:   append([]tag.Block{}, g.blockOrder...),
		instructions: make(map[tag.Value]instr.Instruction, len(g.instructions)),
		types:        make(map[tag.Value]typ.Type, len(g.types)),
		owners:       make(map[tag.Value]tag.Block, len(g.owners)),
		entry:        g.entry,
	}

	for k, v := range g.blocks {
		n.blocks[k] = v
	}

	for k, v := range g.instructions {
		n.instructions[k] = v
	}

	for k, v := range g.types {
		n.types[k] = v
	}

	for k, v := range g.owners {
		n.owners[k] = v
	}

	return n
}

// EntryPoint returns the graph's designated entry block.
func (g Graph) EntryPoint() tag.Block { return g.entry }

// WithEntryPoint returns a graph with a new designated entry block. b
// must already be a block in the graph.
func (g Graph) WithEntryPoint(b tag.Block) Graph {
	n := g.clone()
	n.entry = b

	return n
}

// ContainsBlock reports whether b names a block in this graph.
func (g Graph) ContainsBlock(b tag.Block) bool {
	_, ok := g.blocks[b]
	return ok
}

// ContainsValue reports whether v names a value (block parameter or
// instruction result) in this graph.
func (g Graph) ContainsValue(v tag.Value) bool {
	_, ok := g.owners[v]
	return ok
}

// Block returns the basic block named by b.
func (g Graph) Block(b tag.Block) (BasicBlock, bool) {
	bb, ok := g.blocks[b]
	return bb, ok
}

// Instruction returns the instruction named by v. Returns false for
// block-parameter values, which have no backing instruction.
func (g Graph) Instruction(v tag.Value) (instr.Instruction, bool) {
	i, ok := g.instructions[v]
	return i, ok
}

// GetValueType returns the type of v, whether it names a block
// parameter or an instruction result.
func (g Graph) GetValueType(v tag.Value) (typ.Type, bool) {
	t, ok := g.types[v]
	return t, ok
}

// GetValueParent returns the block that owns v.
func (g Graph) GetValueParent(v tag.Value) (tag.Block, bool) {
	b, ok := g.owners[v]
	return b, ok
}

// AllBlocks returns every block tag in the graph, in the order blocks
// were added (AddBlock order, with removed blocks omitted).
func (g Graph) AllBlocks() []tag.Block {
	return append([]tag.Block{}, g.blockOrder...)
}

// Reachable returns every block reachable from the entry point, in
// breadth-first discovery order, entry first. Grounded on the
// allBlocks worklist helper in the teacher's back-end compiler, which
// walks a function's blocks by following branch targets rather than
// trusting declaration order.
func (g Graph) Reachable() []tag.Block {
	if g.entry.IsZero() {
		return nil
	}

	seen := map[tag.Block]bool{g.entry: true}
	queue := []tag.Block{g.entry}
	order := []tag.Block{g.entry}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		bb, ok := g.blocks[b]
		if !ok {
			continue
		}

		for _, fb := range bb.Flow.Branches() {
			t := fb.Branch.Target
			if seen[t] {
				continue
			}

			seen[t] = true
			order = append(order, t)
			queue = append(queue, t)
		}
	}

	return order
}

// AddBlock adds a new, empty-bodied block with the given parameters and
// flow, returning the new graph and the fresh block tag. The parameters'
// value tags are the caller's own; each is registered with its type as
// owned by the new block.
func (g Graph) AddBlock(hint string, params []Param, fl instr.Flow) (Graph, tag.Block) {
	n := g.clone()

	b := tag.NewBlock(hint)
	n.blocks[b] = BasicBlock{Params: append([]Param{}, params...), Flow: fl}
	n.blockOrder = append(n.blockOrder, b)

	for _, p := range params {
		n.types[p.Tag] = p.Type
		n.owners[p.Tag] = b
	}

	return n, b
}

// AddBlockUnreachable adds a block whose flow defaults to Unreachable,
// the shape every freshly minted block starts in before its real flow
// is known.
func (g Graph) AddBlockUnreachable(hint string, params []Param) (Graph, tag.Block) {
	return g.AddBlock(hint, params, instr.Unreachable{})
}

// RemoveBlock deletes a block and every value it owns.
func (g Graph) RemoveBlock(b tag.Block) Graph {
	n := g.clone()

	bb, ok := n.blocks[b]
	if !ok {
		return n
	}

	for _, p := range bb.Params {
		delete(n.types, p.Tag)
		delete(n.owners, p.Tag)
	}

	for _, v := range bb.Code {
		delete(n.instructions, v)
		delete(n.types, v)
		delete(n.owners, v)
	}

	delete(n.blocks, b)

	for i, t := range n.blockOrder {
		if t == b {
			n.blockOrder = append(n.blockOrder[:i:i], n.blockOrder[i+1:]...)
			break
		}
	}

	return n
}

// UpdateBlockFlow replaces a block's terminator.
func (g Graph) UpdateBlockFlow(b tag.Block, fl instr.Flow) Graph {
	n := g.clone()

	bb := n.blocks[b]
	bb.Flow = fl
	n.blocks[b] = bb

	return n
}

// UpdateBlockParameters replaces a block's parameter list wholesale.
// Tags only in the old list are dropped from the graph; every tag in the
// new list is registered as owned by b with the type the new list gives
// it, including tags that were already parameters.
func (g Graph) UpdateBlockParameters(b tag.Block, params []Param) Graph {
	n := g.clone()

	bb, ok := n.blocks[b]
	if !ok {
		return n
	}

	old := map[tag.Value]bool{}
	for _, p := range bb.Params {
		old[p.Tag] = true
	}

	keep := map[tag.Value]bool{}
	for _, p := range params {
		keep[p.Tag] = true
	}

	for v := range old {
		if !keep[v] {
			delete(n.types, v)
			delete(n.owners, v)
		}
	}

	for _, p := range params {
		n.types[p.Tag] = p.Type
		n.owners[p.Tag] = b
	}

	bb.Params = append([]Param{}, params...)
	n.blocks[b] = bb

	return n
}

// InsertInstruction inserts i at position index in block's instruction
// list (0 <= index <= len(Code)), allocating a fresh value tag for its
// result. Returns the new graph and a SelectedInstruction view of the
// inserted instruction bound to that graph.
func (g Graph) InsertInstruction(b tag.Block, index int, i instr.Instruction, resultType typ.Type, hint string) (Graph, SelectedInstruction) {
	n := g.clone()

	bb := n.blocks[b]

	if index < 0 {
		index = 0
	}
	if index > len(bb.Code) {
		index = len(bb.Code)
	}

	v := tag.NewValue(hint)

	code := make([]tag.Value, 0, len(bb.Code)+1)
	code = append(code, bb.Code[:index]...)
	code = append(code, v)
	code = append(code, bb.Code[index:]...)
	bb.Code = code

	n.blocks[b] = bb
	n.instructions[v] = i
	n.types[v] = resultType
	n.owners[v] = b

	return n, SelectedInstruction{Block: b, Value: v, Instruction: i, index: index}
}

// ReplaceInstruction swaps the instruction bound to an existing value
// tag, keeping its position, owning block, and result type. The new
// instruction's result type is left unchanged (it must already be
// consistent with the value's recorded type — the validator catches it
// if not).
func (g Graph) ReplaceInstruction(v tag.Value, i instr.Instruction) Graph {
	n := g.clone()

	if _, ok := n.instructions[v]; !ok {
		return n
	}

	n.instructions[v] = i

	return n
}

// RemoveInstruction deletes an instruction and its value from the graph.
func (g Graph) RemoveInstruction(v tag.Value) Graph {
	n := g.clone()

	b, ok := n.owners[v]
	if !ok {
		return n
	}

	if _, isInstr := n.instructions[v]; !isInstr {
		return n // block parameters are not removed through this API
	}

	bb := n.blocks[b]

	code := make([]tag.Value, 0, len(bb.Code))
	for _, c := range bb.Code {
		if c != v {
			code = append(code, c)
		}
	}
	bb.Code = code
	n.blocks[b] = bb

	delete(n.instructions, v)
	delete(n.types, v)
	delete(n.owners, v)

	return n
}
