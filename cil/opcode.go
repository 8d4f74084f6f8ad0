package cil

// Opcode names one bytecode operation. The table below is the
// representative-but-widened subset spec.md §4.5 calls for: constants,
// stack manipulation, locals/args, arithmetic, comparisons, branches,
// calls, and basic object operations.
//
// Widening this table further is a two-step change, not an architectural
// one: add the Opcode constant here, then add its case arm to
// translate.analyzeBlock. An opcode with no case arm there is rejected
// with diag.NotSupportedOperation, never a panic.
type Opcode int

const (
	// Constants.
	LdcI4 Opcode = iota
	LdcI8
	LdcR4
	LdcR8
	LdNull

	// Stack manipulation.
	Dup
	Pop

	// Locals and arguments.
	LdLoc
	StLoc
	LdArg

	// Arithmetic.
	Add
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Neg
	Not
	Shl
	Shr

	// Comparisons.
	Ceq
	Cgt
	Clt

	// Control flow.
	Br
	BrTrue
	BrFalse
	Beq
	Bne
	Blt
	Bgt
	Ret
	Throw
	Rethrow

	// Calls.
	Call
	CallVirt
	Calli

	// Objects.
	NewObj
	LdFld
	StFld
	CastClass
)

var names = map[Opcode]string{
	LdcI4: "ldc.i4", LdcI8: "ldc.i8", LdcR4: "ldc.r4", LdcR8: "ldc.r8", LdNull: "ldnull",
	Dup: "dup", Pop: "pop",
	LdLoc: "ldloc", StLoc: "stloc", LdArg: "ldarg",
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Rem: "rem",
	And: "and", Or: "or", Xor: "xor", Neg: "neg", Not: "not", Shl: "shl", Shr: "shr",
	Ceq: "ceq", Cgt: "cgt", Clt: "clt",
	Br: "br", BrTrue: "brtrue", BrFalse: "brfalse",
	Beq: "beq", Bne: "bne", Blt: "blt", Bgt: "bgt",
	Ret: "ret", Throw: "throw", Rethrow: "rethrow",
	Call: "call", CallVirt: "callvirt", Calli: "calli",
	NewObj: "newobj", LdFld: "ldfld", StFld: "stfld", CastClass: "castclass",
}

func (o Opcode) String() string {
	if n, ok := names[o]; ok {
		return n
	}

	return "?opcode"
}

// IsTerminator reports whether o ends a basic block's straight-line code
// (branch-target analysis creates a fresh block for whatever follows).
func (o Opcode) IsTerminator() bool {
	switch o {
	case Br, BrTrue, BrFalse, Beq, Bne, Blt, Bgt, Ret, Throw, Rethrow:
		return true
	default:
		return false
	}
}

// IsBranch reports whether o carries a Target operand.
func (o Opcode) IsBranch() bool {
	switch o {
	case Br, BrTrue, BrFalse, Beq, Bne, Blt, Bgt:
		return true
	default:
		return false
	}
}
