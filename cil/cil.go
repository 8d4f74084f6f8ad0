// Package cil models the stack-based bytecode method body translate
// consumes: a linear, Next-linked instruction sequence, operands
// (including branch targets referenced by instruction identity), a
// local-variable slot list, and an optional this parameter.
//
// No teacher file owns this shape (the teacher's own front end is a
// recursive-descent source parser, not a bytecode reader); the opcode
// table and instruction layout follow the representative set spec.md
// §4.5 names, widened per the decision recorded in cil/opcode.go.
package cil

import (
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// Instruction is one bytecode operation. Only the operand fields
// relevant to Opcode are meaningful; the rest are zero.
type Instruction struct {
	Opcode Opcode

	// Next is the instruction that follows this one in program order,
	// nil at the end of a method body.
	Next *Instruction

	// Target is the branch destination, meaningful when Opcode.IsBranch().
	Target *Instruction

	// IntOperand carries ldc.i4/ldc.i8's literal value, and the slot
	// index for ldloc/stloc/ldarg.
	IntOperand int64

	Float32Operand float32
	Float64Operand float64

	// Type is the operand type: ldc's literal type, castclass's target
	// type, ldfld/stfld's field type.
	Type typ.Type

	// Method names the callee (call/callvirt/calli), constructor
	// (newobj), or field (ldfld/stfld).
	Method tag.Name

	// Lookup distinguishes call from callvirt.
	Lookup proto.LookupKind

	// Arity is the explicit argument count for call/callvirt/calli/newobj
	// — real bytecode formats encode this in the method/field token's
	// signature; cil carries it directly since it has no signature table
	// of its own.
	Arity int
}

// Slot is a stack-allocated storage location: a parameter or local
// variable. Both the element type and its pointer type are carried
// explicitly, pre-resolved by the front end — typ.Resolver only answers
// structural queries about a type it is given, it never constructs a
// "pointer to T" from a bare T, so the bytecode input model supplies
// both halves up front rather than asking the core to synthesize one.
type Slot struct {
	Type        typ.Type
	PointerType typ.Type
}

// MethodBody is the input to translate.Translate: a resolved signature
// plus the instruction stream that implements it.
type MethodBody struct {
	HasThis bool
	This    Slot // meaningful only when HasThis

	Params []Slot

	// ReturnType is nil for a void-returning method.
	ReturnType typ.Type

	Locals []Slot

	// Entry is the first instruction. Must be non-nil.
	Entry *Instruction
}

// Chain links a sequence of instructions in program order via Next and
// returns the first one, nil if instrs is empty. A convenience for
// building method bodies (by hand, or in tests) without threading Next
// pointers manually.
func Chain(instrs ...*Instruction) *Instruction {
	for i := 0; i < len(instrs)-1; i++ {
		instrs[i].Next = instrs[i+1]
	}

	if len(instrs) == 0 {
		return nil
	}

	return instrs[0]
}
