package flow

import (
	"testing"

	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/typ"
)

func TestDiffTracksAddedBlockAndValue(t *testing.T) {
	prev := New()
	prev, entry := prev.AddBlockUnreachable("entry", nil)
	prev = prev.WithEntryPoint(entry)

	next, sel := prev.InsertInstruction(entry, 0, instr.New(proto.Const(typ.Int(i32, nil))), i32, "c")
	next, extra := next.AddBlockUnreachable("extra", nil)

	d := Diff(prev, next)

	if len(d.AddedBlocks) != 1 || d.AddedBlocks[0] != extra {
		t.Fatalf("expected exactly the new block in AddedBlocks, got %v", d.AddedBlocks)
	}

	if len(d.AddedValues) != 1 || d.AddedValues[0] != sel.Value {
		t.Fatalf("expected exactly the new value in AddedValues, got %v", d.AddedValues)
	}

	if !Diff(prev, prev).Empty() {
		t.Fatalf("expected diffing a snapshot against itself to be empty")
	}
}

func TestDiffTracksRemoved(t *testing.T) {
	g := New()
	g, entry := g.AddBlockUnreachable("entry", nil)
	g, sel := g.InsertInstruction(entry, 0, instr.New(proto.Const(typ.Int(i32, nil))), i32, "c")
	g = g.WithEntryPoint(entry)

	next := g.RemoveInstruction(sel.Value)

	d := Diff(g, next)
	if len(d.RemovedValues) != 1 || d.RemovedValues[0] != sel.Value {
		t.Fatalf("expected removed value tracked, got %v", d.RemovedValues)
	}
}
