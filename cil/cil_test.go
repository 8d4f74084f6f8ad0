package cil

import "testing"

func TestChainLinksInProgramOrder(t *testing.T) {
	a := &Instruction{Opcode: LdcI4, IntOperand: 1}
	b := &Instruction{Opcode: LdcI4, IntOperand: 2}
	c := &Instruction{Opcode: Add}

	entry := Chain(a, b, c)

	if entry != a {
		t.Fatalf("expected Chain to return the first instruction")
	}

	if a.Next != b || b.Next != c {
		t.Fatalf("expected Next pointers to follow argument order")
	}

	if c.Next != nil {
		t.Fatalf("expected the last instruction's Next to be nil")
	}
}

func TestChainEmpty(t *testing.T) {
	if Chain() != nil {
		t.Fatalf("expected Chain() with no instructions to return nil")
	}
}

func TestOpcodeClassification(t *testing.T) {
	if !Br.IsTerminator() || !Br.IsBranch() {
		t.Fatalf("expected br to be both a terminator and a branch")
	}

	if !Ret.IsTerminator() || Ret.IsBranch() {
		t.Fatalf("expected ret to terminate but carry no branch target")
	}

	if Add.IsTerminator() || Add.IsBranch() {
		t.Fatalf("expected add to be neither a terminator nor a branch")
	}

	if Br.String() != "br" {
		t.Fatalf("expected br's display name to be %q, got %q", "br", Br.String())
	}
}
