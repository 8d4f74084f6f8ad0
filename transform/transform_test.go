package transform

import (
	"context"
	"math/big"
	"testing"

	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

type fakeType string

func (f fakeType) String() string { return string(f) }

const (
	intT      fakeType = "int32"
	delegateT fakeType = "ActionDelegate"
	fptrT     fakeType = "fptr(int32)->int32"
	objT      fakeType = "object"
)

func isDelegate(t typ.Type) bool { return t == delegateT }

func testDelegateConfig() DelegateConfig {
	return DelegateConfig{
		Invoke:              func(typ.Type) tag.Name { return tag.Name{Pkg: "ActionDelegate", Member: "Invoke"} },
		Constructor:         func(typ.Type) tag.Name { return tag.Name{Pkg: "ActionDelegate", Member: ".ctor"} },
		FunctionPointerType: func(typ.Type) typ.Type { return fptrT },
		IsDelegateType:      isDelegate,
		NullBoundObject:     typ.Null(objT),
	}
}

func TestDelegateLoweringRewritesBoundNewDelegate(t *testing.T) {
	b := flow.NewBuilder(flow.New())

	thisTag := tag.NewValue("this")
	blk := b.AddBlock("entry", []flow.Param{{Tag: thisTag, Type: objT}}, instr.Unreachable{})
	bb := b.Block(blk)

	method := tag.Name{Pkg: "Foo", Member: "Bar"}
	d := bb.Append(instr.New(proto.NewDelegate(delegateT, method, true, proto.Virtual, objT), thisTag), delegateT, "del")
	bb.SetFlow(instr.Return{Value: d.Tag})

	out, err := Run(context.Background(), DelegateLowering{Cfg: testDelegateConfig()}, b.ToImmutable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resBlk, ok := out.Block(blk)
	if !ok {
		t.Fatalf("block missing after lowering")
	}

	i, ok := out.Instruction(d.Tag)
	if !ok {
		t.Fatalf("expected the original result value to still exist, now bound to NewObject")
	}

	if _, _, _, _, isDel := proto.DelegateInfo(i.Proto); isDel {
		t.Fatalf("expected the outer NewDelegate to be replaced by NewObject")
	}

	if len(i.Args) != 2 {
		t.Fatalf("expected the lowered NewObject to take 2 arguments, got %d", len(i.Args))
	}

	if len(resBlk.Code) != 2 {
		t.Fatalf("expected exactly 2 instructions (the fptr materialization + the NewObject), got %d", len(resBlk.Code))
	}
}

func TestDelegateLoweringRewritesIndirectCallThroughDelegate(t *testing.T) {
	b := flow.NewBuilder(flow.New())

	dTag := tag.NewValue("d")
	blk := b.AddBlock("entry", []flow.Param{{Tag: dTag, Type: delegateT}}, instr.Unreachable{})
	bb := b.Block(blk)

	call := bb.Append(instr.New(proto.IndirectCall(nil, intT, nil), dTag), intT, "call")
	bb.SetFlow(instr.Return{Value: call.Tag})

	out, err := Run(context.Background(), DelegateLowering{Cfg: testDelegateConfig()}, b.ToImmutable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i, ok := out.Instruction(call.Tag)
	if !ok {
		t.Fatalf("call instruction missing after lowering")
	}

	if _, _, _, ok := proto.IndirectCallInfo(i.Proto); ok {
		t.Fatalf("expected IndirectCall to be replaced by a direct Call")
	}
}

func TestCopyPropagationRewritesDownstreamUses(t *testing.T) {
	b := flow.NewBuilder(flow.New())
	blk := b.AddBlock("entry", nil, instr.Unreachable{})
	bb := b.Block(blk)

	src := bb.Append(instr.New(proto.Const(typ.Int(intT, big.NewInt(1)))), intT, "c")
	cp := bb.Append(instr.New(proto.Copy(intT), src.Tag), intT, "cp")
	use := bb.Append(instr.New(proto.Intrinsic("arith.add", intT, []typ.Type{intT, intT}, proto.NoThrow), cp.Tag, cp.Tag), intT, "add")
	bb.SetFlow(instr.Return{Value: use.Tag})

	out, err := Run(context.Background(), CopyPropagation{}, b.ToImmutable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i, ok := out.Instruction(use.Tag)
	if !ok {
		t.Fatalf("use instruction missing")
	}

	for _, a := range i.Args {
		if a == cp.Tag {
			t.Fatalf("expected every use of the copy's result to be rewritten to its source")
		}

		if a != src.Tag {
			t.Fatalf("expected rewritten args to reference the copy's source")
		}
	}
}
