package flow

import (
	"testing"

	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

type fakeType string

func (f fakeType) String() string { return string(f) }

var i32 = fakeType("int32")

func TestAddBlockRegistersParams(t *testing.T) {
	g := New()

	p := tag.NewValue("p")
	g, b := g.AddBlock("entry", []Param{{Tag: p, Type: i32}}, instr.Return{Value: p})
	g = g.WithEntryPoint(b)

	if !g.ContainsBlock(b) {
		t.Fatalf("expected block to exist")
	}

	gotType, ok := g.GetValueType(p)
	if !ok || gotType != i32 {
		t.Fatalf("expected param type %v, got %v, %v", i32, gotType, ok)
	}

	parent, ok := g.GetValueParent(p)
	if !ok || parent != b {
		t.Fatalf("expected param owned by entry block")
	}
}

func TestInsertAndRemoveInstruction(t *testing.T) {
	g := New()
	g, b := g.AddBlockUnreachable("entry", nil)

	c := typ.Int(i32, nil)
	g, sel := g.InsertInstruction(b, 0, instr.New(proto.Const(c)), i32, "c")

	if sel.Index() != 0 {
		t.Fatalf("expected index 0, got %d", sel.Index())
	}

	if !g.ContainsValue(sel.Value) {
		t.Fatalf("expected inserted value to be registered")
	}

	g = g.RemoveInstruction(sel.Value)
	if g.ContainsValue(sel.Value) {
		t.Fatalf("expected removed value to be gone")
	}
}

func TestCloneIsolatesMutation(t *testing.T) {
	g := New()
	g, b := g.AddBlockUnreachable("entry", nil)

	g2, _ := g.InsertInstruction(b, 0, instr.New(proto.Const(typ.Int(i32, nil))), i32, "c")

	bb1, _ := g.Block(b)
	bb2, _ := g2.Block(b)

	if len(bb1.Code) != 0 {
		t.Fatalf("expected original snapshot untouched, got %d instructions", len(bb1.Code))
	}

	if len(bb2.Code) != 1 {
		t.Fatalf("expected new snapshot to carry the inserted instruction")
	}
}

func TestReachableFollowsBranches(t *testing.T) {
	g := New()

	g, c := g.AddBlock("c", nil, instr.Return{})
	g, b := g.AddBlock("b", nil, instr.Jump{To: instr.Branch{Target: c}})
	g, a := g.AddBlock("a", nil, instr.Jump{To: instr.Branch{Target: b}})
	g = g.WithEntryPoint(a)

	order := g.Reachable()
	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("unexpected reachable order: %v", order)
	}
}

func TestSelectNavigatesNeighbors(t *testing.T) {
	g := New()
	g, b := g.AddBlockUnreachable("entry", nil)

	g, s0 := g.InsertInstruction(b, 0, instr.New(proto.Const(typ.Int(i32, nil))), i32, "a")
	g, s1 := g.InsertInstruction(b, 1, instr.New(proto.Const(typ.Int(i32, nil))), i32, "b")

	sel0, ok := Select(g, s0.Value)
	if !ok {
		t.Fatalf("expected to select first instruction")
	}

	next, ok := sel0.NextInstruction(g)
	if !ok || next.Value != s1.Value {
		t.Fatalf("expected next instruction to be the second insert")
	}

	prev, ok := next.PreviousInstruction(g)
	if !ok || prev.Value != sel0.Value {
		t.Fatalf("expected previous instruction to round-trip")
	}
}
