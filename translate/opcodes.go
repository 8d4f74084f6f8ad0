package translate

import (
	"math/big"

	"github.com/emberlang/ember/cil"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// analyzeInstruction applies one CIL instruction's opcode semantics
// (spec §4.5 step 4) to the operand stack, emitting IR instructions into
// blk via tr.builder. next is the instruction to continue from when
// !terminated; terminated means cur set blk's flow (a Jump, Return or
// Unreachable, or for a conditional branch a Switch over its two
// successors).
func (tr *translator) analyzeInstruction(blk tag.Block, cur *cil.Instruction, stack []tag.Value) (next *cil.Instruction, out []tag.Value, terminated bool, err error) {
	bb := tr.builder.Block(blk)

	switch cur.Opcode {
	case cil.LdcI4, cil.LdcI8:
		v := bb.Append(instr.New(proto.Const(typ.Int(cur.Type, big.NewInt(cur.IntOperand)))), cur.Type, "const")
		return cur.Next, push(stack, v.Tag), false, nil

	case cil.LdcR4:
		v := bb.Append(instr.New(proto.Const(typ.Float32Const(cur.Type, cur.Float32Operand))), cur.Type, "const")
		return cur.Next, push(stack, v.Tag), false, nil

	case cil.LdcR8:
		v := bb.Append(instr.New(proto.Const(typ.Float64Const(cur.Type, cur.Float64Operand))), cur.Type, "const")
		return cur.Next, push(stack, v.Tag), false, nil

	case cil.LdNull:
		v := bb.Append(instr.New(proto.Const(typ.Null(cur.Type))), cur.Type, "null")
		return cur.Next, push(stack, v.Tag), false, nil

	case cil.Dup:
		top, ok := peek(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "dup: empty operand stack"}
		}

		return cur.Next, push(stack, top), false, nil

	case cil.Pop:
		rest, _, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "pop: empty operand stack"}
		}

		return cur.Next, rest, false, nil

	case cil.LdLoc:
		return tr.ldSlot(bb, cur, stack, tr.localSlots, tr.localElemType, tr.localPtrType)

	case cil.StLoc:
		return tr.stSlot(bb, cur, stack, tr.localSlots, tr.localElemType, tr.localPtrType)

	case cil.LdArg:
		return tr.ldSlot(bb, cur, stack, tr.paramSlots, tr.paramElemType, tr.paramPtrType)

	case cil.Add, cil.Sub, cil.Mul, cil.Div, cil.Rem, cil.And, cil.Or, cil.Xor, cil.Shl, cil.Shr:
		return tr.binaryArith(bb, cur, stack)

	case cil.Neg, cil.Not:
		return tr.unaryArith(bb, cur, stack)

	case cil.Ceq, cil.Cgt, cil.Clt:
		rest, cond, err := tr.compare(bb, cur.Opcode, stack)
		if err != nil {
			return nil, nil, false, err
		}

		return cur.Next, push(rest, cond), false, nil

	case cil.Br:
		target := tr.blockFor[cur.Target]
		bb.SetFlow(instr.Jump{To: tr.branchFromStack(target, stack)})
		tr.pushJob(cur.Target, tr.typesOf(stack))

		return nil, nil, true, nil

	case cil.BrTrue, cil.BrFalse:
		rest, cond, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: cur.Opcode.String() + ": empty operand stack"}
		}

		tr.emitConditionalBranch(bb, cond, cur.Opcode == cil.BrTrue, cur.Target, cur.Next, rest)

		return nil, nil, true, nil

	case cil.Beq, cil.Bne, cil.Blt, cil.Bgt:
		rest, cond, err := tr.compareForBranch(bb, cur.Opcode, stack)
		if err != nil {
			return nil, nil, false, err
		}

		takenWhenTrue := cur.Opcode != cil.Bne
		tr.emitConditionalBranch(bb, cond, takenWhenTrue, cur.Target, cur.Next, rest)

		return nil, nil, true, nil

	case cil.Ret:
		return tr.ret(bb, cur, stack)

	case cil.Throw:
		_, exc, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "throw: empty operand stack"}
		}

		excType, _ := tr.builder.GetValueType(exc)
		bb.Append(instr.New(proto.Intrinsic("lang.throw", tr.cfg.VoidType, []typ.Type{excType}, proto.MayThrow), exc), tr.cfg.VoidType, "throw")
		bb.SetFlow(instr.Unreachable{})

		return nil, nil, true, nil

	case cil.Rethrow:
		bb.Append(instr.New(proto.Intrinsic("lang.rethrow", tr.cfg.VoidType, nil, proto.MayThrow)), tr.cfg.VoidType, "rethrow")
		bb.SetFlow(instr.Unreachable{})

		return nil, nil, true, nil

	case cil.Call, cil.CallVirt:
		return tr.call(bb, cur, stack)

	case cil.Calli:
		return tr.calli(bb, cur, stack)

	case cil.NewObj:
		return tr.newObj(bb, cur, stack)

	case cil.LdFld:
		rest, obj, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "ldfld: empty operand stack"}
		}

		objType, _ := tr.builder.GetValueType(obj)
		v := bb.Append(instr.New(proto.Load(cur.Type, objType), obj), cur.Type, "ldfld")

		return cur.Next, push(rest, v.Tag), false, nil

	case cil.StFld:
		rest, value, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "stfld: empty operand stack"}
		}

		rest, obj, ok := pop(rest)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "stfld: expected an object reference beneath the field value"}
		}

		objType, _ := tr.builder.GetValueType(obj)
		bb.Append(instr.New(proto.Store(cur.Type, objType, tr.cfg.VoidType), obj, value), tr.cfg.VoidType, "stfld")

		return cur.Next, rest, false, nil

	case cil.CastClass:
		rest, obj, ok := pop(stack)
		if !ok {
			return nil, nil, false, diag.MalformedIR{Reason: "castclass: empty operand stack"}
		}

		v := bb.Append(instr.New(proto.ReinterpretCast(cur.Type), obj), cur.Type, "castclass")

		return cur.Next, push(rest, v.Tag), false, nil

	default:
		return nil, nil, false, diag.NotSupportedOperation{Operation: cur.Opcode.String()}
	}
}

func (tr *translator) ldSlot(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value, slots []tag.Value, elemT, ptrT []typ.Type) (*cil.Instruction, []tag.Value, bool, error) {
	idx := int(cur.IntOperand)
	if idx < 0 || idx >= len(slots) {
		return nil, nil, false, diag.MalformedIR{Reason: "slot index out of range"}
	}

	v := bb.Append(instr.New(proto.Load(elemT[idx], ptrT[idx]), slots[idx]), elemT[idx], "ld")

	return cur.Next, push(stack, v.Tag), false, nil
}

func (tr *translator) stSlot(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value, slots []tag.Value, elemT, ptrT []typ.Type) (*cil.Instruction, []tag.Value, bool, error) {
	idx := int(cur.IntOperand)
	if idx < 0 || idx >= len(slots) {
		return nil, nil, false, diag.MalformedIR{Reason: "slot index out of range"}
	}

	rest, value, ok := pop(stack)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "st: empty operand stack"}
	}

	bb.Append(instr.New(proto.Store(elemT[idx], ptrT[idx], tr.cfg.VoidType), slots[idx], value), tr.cfg.VoidType, "st")

	return cur.Next, rest, false, nil
}

func (tr *translator) binaryArith(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	rest, b, ok := pop(stack)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: cur.Opcode.String() + ": empty operand stack"}
	}

	rest, a, ok := pop(rest)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: cur.Opcode.String() + ": expected two operands"}
	}

	aType, _ := tr.builder.GetValueType(a)
	bType, _ := tr.builder.GetValueType(b)

	exc := proto.NoThrow
	if cur.Opcode == cil.Div || cur.Opcode == cil.Rem {
		exc = proto.MayThrow
	}

	name := "arith." + cur.Opcode.String()
	v := bb.Append(instr.New(proto.Intrinsic(name, aType, []typ.Type{aType, bType}, exc), a, b), aType, name)

	return cur.Next, push(rest, v.Tag), false, nil
}

func (tr *translator) unaryArith(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	rest, a, ok := pop(stack)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: cur.Opcode.String() + ": empty operand stack"}
	}

	aType, _ := tr.builder.GetValueType(a)
	name := "arith." + cur.Opcode.String()
	v := bb.Append(instr.New(proto.Intrinsic(name, aType, []typ.Type{aType}, proto.NoThrow), a), aType, name)

	return cur.Next, push(rest, v.Tag), false, nil
}

func (tr *translator) compare(bb flow.BlockBuilder, op cil.Opcode, stack []tag.Value) ([]tag.Value, tag.Value, error) {
	rest, b, ok := pop(stack)
	if !ok {
		return nil, tag.Value{}, diag.MalformedIR{Reason: op.String() + ": empty operand stack"}
	}

	rest, a, ok := pop(rest)
	if !ok {
		return nil, tag.Value{}, diag.MalformedIR{Reason: op.String() + ": expected two operands"}
	}

	aType, _ := tr.builder.GetValueType(a)
	bType, _ := tr.builder.GetValueType(b)

	name := "cmp." + op.String()
	v := bb.Append(instr.New(proto.Intrinsic(name, tr.cfg.BoolType, []typ.Type{aType, bType}, proto.NoThrow), a, b), tr.cfg.BoolType, name)

	return rest, v.Tag, nil
}

// compareForBranch lowers beq/bne/blt/bgt into the equivalent primitive
// comparison intrinsic (ceq/clt/cgt) the conditional-branch lowering
// below then treats exactly like brtrue/brfalse.
func (tr *translator) compareForBranch(bb flow.BlockBuilder, op cil.Opcode, stack []tag.Value) ([]tag.Value, tag.Value, error) {
	switch op {
	case cil.Beq, cil.Bne:
		return tr.compare(bb, cil.Ceq, stack)
	case cil.Blt:
		return tr.compare(bb, cil.Clt, stack)
	case cil.Bgt:
		return tr.compare(bb, cil.Cgt, stack)
	default:
		return nil, tag.Value{}, diag.NotSupportedOperation{Operation: op.String()}
	}
}

// emitConditionalBranch sets blk's flow to the Switch spec.md describes
// for brtrue/brfalse: a single False case plus a default, arranged so
// control reaches takenTarget when cond matches takenWhenTrue.
func (tr *translator) emitConditionalBranch(bb flow.BlockBuilder, cond tag.Value, takenWhenTrue bool, takenTarget, notTakenInstr *cil.Instruction, stack []tag.Value) {
	taken := tr.blockFor[takenTarget]
	notTaken := tr.blockFor[notTakenInstr]

	falseBranch, defaultBranch := taken, notTaken
	if takenWhenTrue {
		falseBranch, defaultBranch = notTaken, taken
	}

	boolType := tr.cfg.BoolType

	bb.SetFlow(instr.Switch{
		Value: cond,
		Cases: []instr.Case{{
			Values: []typ.Constant{typ.BoolConst(boolType, false)},
			Branch: tr.branchFromStack(falseBranch, stack),
		}},
		Default: tr.branchFromStack(defaultBranch, stack),
	})

	tr.pushJob(takenTarget, tr.typesOf(stack))
	tr.pushJob(notTakenInstr, tr.typesOf(stack))
}

func (tr *translator) ret(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	if isVoid(tr.cfg, tr.body.ReturnType) {
		bb.SetFlow(instr.Return{})
		return nil, nil, true, nil
	}

	_, v, ok := pop(stack)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "ret: expected a return value on the operand stack"}
	}

	copied := bb.Append(instr.New(proto.Copy(tr.body.ReturnType), v), tr.body.ReturnType, "ret")
	bb.SetFlow(instr.Return{Value: copied.Tag})

	return nil, nil, true, nil
}

func (tr *translator) call(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	rest, args, ok := popN(stack, cur.Arity)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "call: fewer operands than the declared arity"}
	}

	lookup := proto.Static
	if cur.Opcode == cil.CallVirt {
		lookup = proto.Virtual
	}

	paramTypes := tr.typesOf(args)
	p := proto.Call(cur.Method, lookup, paramTypes, cur.Type)

	v := bb.Append(instr.New(p, args...), cur.Type, "call")

	if isVoid(tr.cfg, cur.Type) {
		return cur.Next, rest, false, nil
	}

	return cur.Next, push(rest, v.Tag), false, nil
}

func (tr *translator) calli(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	rest, callee, ok := pop(stack)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "calli: empty operand stack (callee)"}
	}

	rest, args, ok := popN(rest, cur.Arity)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "calli: fewer operands than the declared arity"}
	}

	calleeType, _ := tr.builder.GetValueType(callee)
	paramTypes := tr.typesOf(args)
	p := proto.IndirectCall(calleeType, cur.Type, paramTypes)

	callArgs := append([]tag.Value{callee}, args...)
	v := bb.Append(instr.New(p, callArgs...), cur.Type, "calli")

	if isVoid(tr.cfg, cur.Type) {
		return cur.Next, rest, false, nil
	}

	return cur.Next, push(rest, v.Tag), false, nil
}

func (tr *translator) newObj(bb flow.BlockBuilder, cur *cil.Instruction, stack []tag.Value) (*cil.Instruction, []tag.Value, bool, error) {
	rest, args, ok := popN(stack, cur.Arity)
	if !ok {
		return nil, nil, false, diag.MalformedIR{Reason: "newobj: fewer operands than the declared arity"}
	}

	paramTypes := tr.typesOf(args)
	p := proto.NewObject(cur.Method, paramTypes, cur.Type)

	v := bb.Append(instr.New(p, args...), cur.Type, "newobj")

	return cur.Next, push(rest, v.Tag), false, nil
}

func push(stack []tag.Value, v tag.Value) []tag.Value {
	return append(append([]tag.Value{}, stack...), v)
}

func peek(stack []tag.Value) (tag.Value, bool) {
	if len(stack) == 0 {
		return tag.Value{}, false
	}

	return stack[len(stack)-1], true
}

func pop(stack []tag.Value) ([]tag.Value, tag.Value, bool) {
	if len(stack) == 0 {
		return nil, tag.Value{}, false
	}

	return stack[:len(stack)-1], stack[len(stack)-1], true
}

// popN pops n values off the top of stack, returning them in left-to-
// right (declaration) order — the reverse of pop order, since the last
// argument pushed sits on top.
func popN(stack []tag.Value, n int) ([]tag.Value, []tag.Value, bool) {
	if len(stack) < n {
		return nil, nil, false
	}

	rest := stack[:len(stack)-n]
	args := make([]tag.Value, n)

	for i := 0; i < n; i++ {
		args[n-1-i] = stack[len(stack)-1-i]
	}

	return rest, args, true
}
