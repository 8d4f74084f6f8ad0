package flow

import (
	"sync/atomic"

	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// Builder is a mutable façade over a single Graph snapshot. Every
// mutator below swaps the current snapshot for its successor; handles
// returned by the builder (BlockBuilder, InstructionBuilder) are live
// views bound to a tag, not to any one snapshot — they re-resolve
// through Current() on every access, so they stay valid across edits
// made through the same Builder as long as their tag survives.
//
// The current snapshot is held behind an atomic pointer so that a
// reader holding it sees either the old or the new graph in full,
// never a partially applied edit, matching the single-builder ordering
// guarantee the core requires.
type Builder struct {
	current atomic.Pointer[Graph]
}

// NewBuilder wraps g as the builder's initial snapshot.
func NewBuilder(g Graph) *Builder {
	b := &Builder{}
	b.current.Store(&g)

	return b
}

// Current returns the builder's current immutable snapshot.
func (b *Builder) Current() Graph {
	return *b.current.Load()
}

// mutate applies f to the current snapshot and republishes the result,
// retrying if a concurrent mutator raced ahead of it.
func (b *Builder) mutate(f func(Graph) Graph) {
	for {
		old := b.current.Load()
		n := f(*old)

		if b.current.CompareAndSwap(old, &n) {
			return
		}
	}
}

func (b *Builder) AddBlock(hint string, params []Param, fl instr.Flow) tag.Block {
	var bt tag.Block

	b.mutate(func(g Graph) Graph {
		n, t := g.AddBlock(hint, params, fl)
		bt = t

		return n
	})

	return bt
}

func (b *Builder) RemoveBlock(blk tag.Block) {
	b.mutate(func(g Graph) Graph { return g.RemoveBlock(blk) })
}

func (b *Builder) InsertInstruction(blk tag.Block, index int, i instr.Instruction, resultType typ.Type, hint string) SelectedInstruction {
	var sel SelectedInstruction

	b.mutate(func(g Graph) Graph {
		n, s := g.InsertInstruction(blk, index, i, resultType, hint)
		sel = s

		return n
	})

	return sel
}

func (b *Builder) ReplaceInstruction(v tag.Value, i instr.Instruction) {
	b.mutate(func(g Graph) Graph { return g.ReplaceInstruction(v, i) })
}

func (b *Builder) RemoveInstruction(v tag.Value) {
	b.mutate(func(g Graph) Graph { return g.RemoveInstruction(v) })
}

func (b *Builder) UpdateBlockFlow(blk tag.Block, fl instr.Flow) {
	b.mutate(func(g Graph) Graph { return g.UpdateBlockFlow(blk, fl) })
}

func (b *Builder) UpdateBlockParameters(blk tag.Block, params []Param) {
	b.mutate(func(g Graph) Graph { return g.UpdateBlockParameters(blk, params) })
}

func (b *Builder) WithEntryPoint(blk tag.Block) {
	b.mutate(func(g Graph) Graph { return g.WithEntryPoint(blk) })
}

func (b *Builder) ContainsBlock(blk tag.Block) bool { return b.Current().ContainsBlock(blk) }
func (b *Builder) ContainsValue(v tag.Value) bool   { return b.Current().ContainsValue(v) }

func (b *Builder) GetValueType(v tag.Value) (typ.Type, bool) { return b.Current().GetValueType(v) }
func (b *Builder) GetValueParent(v tag.Value) (tag.Block, bool) {
	return b.Current().GetValueParent(v)
}

// ToImmutable returns the builder's current snapshot, for handing back
// to a caller that only wants the resulting Graph (the shape every
// Transform.Apply returns).
func (b *Builder) ToImmutable() Graph { return b.Current() }

// Block returns a BlockBuilder view bound to blk. The view stays valid
// for as long as blk remains a block in b's current snapshot.
func (b *Builder) Block(blk tag.Block) BlockBuilder {
	return BlockBuilder{b: b, Tag: blk}
}

// Instruction returns an InstructionBuilder view bound to v. The view
// stays valid for as long as v remains an instruction's value tag in
// b's current snapshot.
func (b *Builder) Instruction(v tag.Value) InstructionBuilder {
	return InstructionBuilder{b: b, Tag: v}
}

// Instructions returns InstructionBuilder views for every instruction in
// blk's current Code list, in order. Re-read it after any mutation that
// might have changed blk's instruction list.
func (b *Builder) Instructions(blk tag.Block) []InstructionBuilder {
	bb, ok := b.Current().Block(blk)
	if !ok {
		return nil
	}

	out := make([]InstructionBuilder, 0, len(bb.Code))
	for _, v := range bb.Code {
		out = append(out, b.Instruction(v))
	}

	return out
}

// BlockBuilder is a live view of one block, bound by tag to its
// builder. It is valid as long as Tag is still a block in the
// builder's current snapshot.
type BlockBuilder struct {
	b   *Builder
	Tag tag.Block
}

func (bb BlockBuilder) Valid() bool { return bb.b.ContainsBlock(bb.Tag) }

func (bb BlockBuilder) Block() (BasicBlock, bool) { return bb.b.Current().Block(bb.Tag) }

func (bb BlockBuilder) SetFlow(fl instr.Flow) { bb.b.UpdateBlockFlow(bb.Tag, fl) }

func (bb BlockBuilder) SetParameters(params []Param) { bb.b.UpdateBlockParameters(bb.Tag, params) }

func (bb BlockBuilder) Append(i instr.Instruction, resultType typ.Type, hint string) InstructionBuilder {
	blk, _ := bb.Block()
	sel := bb.b.InsertInstruction(bb.Tag, len(blk.Code), i, resultType, hint)

	return bb.b.Instruction(sel.Value)
}

// InstructionBuilder is a live view of one instruction, bound by value
// tag to its builder.
type InstructionBuilder struct {
	b   *Builder
	Tag tag.Value
}

func (ib InstructionBuilder) Valid() bool {
	_, ok := ib.b.Current().Instruction(ib.Tag)
	return ok
}

func (ib InstructionBuilder) Selected() (SelectedInstruction, bool) {
	return Select(ib.b.Current(), ib.Tag)
}

func (ib InstructionBuilder) Instruction() (instr.Instruction, bool) {
	return ib.b.Current().Instruction(ib.Tag)
}

func (ib InstructionBuilder) Replace(i instr.Instruction) {
	ib.b.ReplaceInstruction(ib.Tag, i)
}

func (ib InstructionBuilder) Remove() {
	ib.b.RemoveInstruction(ib.Tag)
}

// InsertBefore inserts a new instruction immediately before ib in its
// owning block, returning a view of the new instruction.
func (ib InstructionBuilder) InsertBefore(i instr.Instruction, resultType typ.Type, hint string) InstructionBuilder {
	sel, ok := ib.Selected()
	if !ok {
		return InstructionBuilder{}
	}

	newSel := ib.b.InsertInstruction(sel.Block, sel.Index(), i, resultType, hint)

	return ib.b.Instruction(newSel.Value)
}

func (ib InstructionBuilder) PreviousInstruction() (InstructionBuilder, bool) {
	sel, ok := ib.Selected()
	if !ok {
		return InstructionBuilder{}, false
	}

	prev, ok := sel.PreviousInstruction(ib.b.Current())
	if !ok {
		return InstructionBuilder{}, false
	}

	return ib.b.Instruction(prev.Value), true
}

func (ib InstructionBuilder) NextInstruction() (InstructionBuilder, bool) {
	sel, ok := ib.Selected()
	if !ok {
		return InstructionBuilder{}, false
	}

	next, ok := sel.NextInstruction(ib.b.Current())
	if !ok {
		return InstructionBuilder{}, false
	}

	return ib.b.Instruction(next.Value), true
}
