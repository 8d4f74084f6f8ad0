package translate

import (
	"context"
	"testing"

	"github.com/emberlang/ember/cil"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/typ"
)

type fakeType string

func (f fakeType) String() string { return string(f) }

const (
	i32   fakeType = "int32"
	ptr32 fakeType = "ptr(int32)"
	boolT fakeType = "bool"
	voidT fakeType = "void"
)

type fakeResolver struct{}

func (fakeResolver) Kind(t typ.Type) typ.Kind        { return typ.KindOther }
func (fakeResolver) IntWidth(t typ.Type) (int, bool) { return 32, true }
func (fakeResolver) FloatWidth(t typ.Type) int       { return 32 }
func (fakeResolver) PointerElem(t typ.Type) typ.Type { return nil }
func (fakeResolver) Equal(a, b typ.Type) bool        { return a == b }

func testConfig() Config {
	return Config{Resolver: fakeResolver{}, BoolType: boolT, VoidType: voidT}
}

// TestAnalyzeBlockAdvancesPastStraightLineCode is the regression test for
// the non-advancing analyzeBlock loop (Open Question decision 3): five
// straight-line ldloc instructions, never branched into from anywhere
// but the method's own start, must produce a block with exactly five IR
// instructions. A loop that failed to advance past straight-line code
// would either hang or keep re-processing the same instruction.
func TestAnalyzeBlockAdvancesPastStraightLineCode(t *testing.T) {
	const n = 5

	instrs := make([]*cil.Instruction, 0, n+1)
	for i := 0; i < n; i++ {
		instrs = append(instrs, &cil.Instruction{Opcode: cil.LdLoc, IntOperand: 0})
	}
	instrs = append(instrs, &cil.Instruction{Opcode: cil.Ret})

	entry := cil.Chain(instrs...)

	body := cil.MethodBody{
		Locals:     []cil.Slot{{Type: i32, PointerType: ptr32}},
		ReturnType: nil,
		Entry:      entry,
	}

	g, err := Translate(context.Background(), body, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false

	for _, b := range g.AllBlocks() {
		bb, _ := g.Block(b)
		if len(bb.Code) == n {
			found = true
			break
		}
	}

	if !found {
		t.Fatalf("expected exactly one block with %d IR instructions (the straight-line ldloc chain)", n)
	}
}

func TestTranslateVoidReturnWithNoLocals(t *testing.T) {
	entry := cil.Chain(&cil.Instruction{Opcode: cil.Ret})

	body := cil.MethodBody{Entry: entry}

	g, err := Translate(context.Background(), body, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.EntryPoint().IsZero() {
		t.Fatalf("expected a valid entry point")
	}
}

func TestTranslateReturnsParameterThroughSlot(t *testing.T) {
	ldarg := &cil.Instruction{Opcode: cil.LdArg, IntOperand: 0}
	ret := &cil.Instruction{Opcode: cil.Ret}
	entry := cil.Chain(ldarg, ret)

	body := cil.MethodBody{
		Params:     []cil.Slot{{Type: i32, PointerType: ptr32}},
		ReturnType: i32,
		Entry:      entry,
	}

	g, err := Translate(context.Background(), body, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reachable := g.Reachable()
	if len(reachable) != 2 {
		t.Fatalf("expected the synthesized entry block plus one real block, got %d", len(reachable))
	}
}

func TestTranslateConditionalBranchCreatesThreeBlocks(t *testing.T) {
	ldarg := &cil.Instruction{Opcode: cil.LdArg, IntOperand: 0}
	brtrue := &cil.Instruction{Opcode: cil.BrTrue}
	falseLit := &cil.Instruction{Opcode: cil.LdcI4, Type: i32, IntOperand: 0}
	falseRet := &cil.Instruction{Opcode: cil.Ret}
	trueLit := &cil.Instruction{Opcode: cil.LdcI4, Type: i32, IntOperand: 1}
	trueRet := &cil.Instruction{Opcode: cil.Ret}

	cil.Chain(ldarg, brtrue, falseLit, falseRet, trueLit, trueRet)
	brtrue.Target = trueLit

	body := cil.MethodBody{
		Params:     []cil.Slot{{Type: boolT, PointerType: ptr32}},
		ReturnType: i32,
		Entry:      ldarg,
	}

	g, err := Translate(context.Background(), body, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reachable := g.Reachable()
	if len(reachable) != 4 {
		t.Fatalf("expected synthesized entry + 3 CIL blocks (cond, false path, true path), got %d", len(reachable))
	}
}

func TestTranslateRejectsEmptyBody(t *testing.T) {
	if _, err := Translate(context.Background(), cil.MethodBody{}, testConfig()); err == nil {
		t.Fatalf("expected an error for a method body with no entry instruction")
	}
}

// TestTranslateRejectsIncompatibleStackAtMergePoint covers the
// second-visit branch of analyzeBlock (translate.go:210): one predecessor
// reaches the merge instruction with an empty operand stack (the brtrue
// taken edge, which pops its condition and jumps directly), the other
// pushes an int constant first (the not-taken edge) before branching to
// the same instruction. The merge point sees two disagreeing stack
// shapes and must fail with diag.MalformedIR rather than silently pick
// one.
func TestTranslateRejectsIncompatibleStackAtMergePoint(t *testing.T) {
	ldarg := &cil.Instruction{Opcode: cil.LdArg, IntOperand: 0}
	brtrue := &cil.Instruction{Opcode: cil.BrTrue}
	pushConst := &cil.Instruction{Opcode: cil.LdcI4, Type: i32, IntOperand: 1}
	br := &cil.Instruction{Opcode: cil.Br}
	merge := &cil.Instruction{Opcode: cil.Ret}

	cil.Chain(ldarg, brtrue, pushConst, br, merge)
	brtrue.Target = merge
	br.Target = merge

	body := cil.MethodBody{
		Params: []cil.Slot{{Type: boolT, PointerType: ptr32}},
		Entry:  ldarg,
	}

	_, err := Translate(context.Background(), body, testConfig())
	if err == nil {
		t.Fatalf("expected an error for disagreeing stack shapes entering the merge block")
	}

	mal, ok := err.(diag.MalformedIR)
	if !ok {
		t.Fatalf("expected a diag.MalformedIR, got %T: %v", err, err)
	}

	t.Logf("got expected diagnostic: %s", mal.Reason)
}
