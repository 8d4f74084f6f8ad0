package transform

import (
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// DelegateConfig supplies the host knowledge delegate lowering needs but
// cannot derive from typ.Resolver's structural queries alone — the same
// reason cil.Slot carries a pre-resolved PointerType and translate.Config
// carries BoolType/VoidType.
type DelegateConfig struct {
	// Invoke returns a delegate type's Invoke method, the static call
	// target an IndirectCall against a delegate-typed callee lowers to.
	Invoke func(delegateType typ.Type) tag.Name

	// Constructor returns a delegate type's constructor, taking
	// (bound_object_or_null, function_pointer).
	Constructor func(delegateType typ.Type) tag.Name

	// FunctionPointerType returns the raw function-pointer result type
	// used to materialize a delegate's callee as a bare pointer, the
	// second NewDelegate of the two-step lowering.
	FunctionPointerType func(delegateType typ.Type) typ.Type

	// IsDelegateType reports whether t is a delegate type, for
	// recognizing an IndirectCall whose callee should lower to a direct
	// virtual Invoke call.
	IsDelegateType func(t typ.Type) bool

	// NullBoundObject is the null constant substituted for the
	// bound-object argument of an unbound (hasThis=false) delegate.
	NullBoundObject typ.Constant
}

// DelegateLowering rewrites IndirectCall-through-a-delegate and
// NewDelegate per spec §4.6's "canonical hard example":
//
//   - IndirectCall whose callee has delegate type -> Call(Invoke, Virtual).
//   - NewDelegate(T, callee, hasThis, lookup) -> NewObject(T.ctor) over
//     (bound_object_or_null, fptr), where fptr is itself materialized by
//     a NewDelegate with a raw function-pointer result type, preserving
//     the original virtual-vs-static dispatch.
type DelegateLowering struct {
	Cfg DelegateConfig
}

func (t DelegateLowering) Apply(b *flow.Builder) error {
	for _, blk := range b.Current().AllBlocks() {
		for _, ib := range b.Instructions(blk) {
			i, ok := ib.Instruction()
			if !ok {
				continue
			}

			if calleeType, result, params, ok := proto.IndirectCallInfo(i.Proto); ok {
				t.lowerIndirectCall(b, ib, i, calleeType, result, params)
				continue
			}

			if delegateType, callee, hasThis, lookup, ok := proto.DelegateInfo(i.Proto); ok {
				t.lowerNewDelegate(ib, i, delegateType, callee, hasThis, lookup)
			}
		}
	}

	return nil
}

func (t DelegateLowering) lowerIndirectCall(b *flow.Builder, ib flow.InstructionBuilder, i instr.Instruction, calleeType, result typ.Type, params []typ.Type) {
	if calleeType == nil {
		var ok bool

		calleeType, ok = b.GetValueType(i.Args[0])
		if !ok {
			return
		}
	}

	if !t.Cfg.IsDelegateType(calleeType) {
		return
	}

	method := t.Cfg.Invoke(calleeType)
	ib.Replace(instr.New(proto.Call(method, proto.Virtual, params, result), i.Args...))
}

func (t DelegateLowering) lowerNewDelegate(ib flow.InstructionBuilder, i instr.Instruction, delegateType typ.Type, callee tag.Name, hasThis bool, lookup proto.LookupKind) {
	boundType := i.Proto.ParamType(0)
	fptrType := t.Cfg.FunctionPointerType(delegateType)

	var fptrArgs []tag.Value
	if hasThis {
		fptrArgs = []tag.Value{i.Args[0]}
	}

	fptr := ib.InsertBefore(instr.New(proto.NewDelegate(fptrType, callee, hasThis, lookup, boundType), fptrArgs...), fptrType, "fptr")

	var boundValue tag.Value
	boundValueType := boundType

	if hasThis {
		boundValue = i.Args[0]
	} else {
		null := ib.InsertBefore(instr.New(proto.Const(t.Cfg.NullBoundObject)), t.Cfg.NullBoundObject.Type, "null")
		boundValue = null.Tag
		boundValueType = t.Cfg.NullBoundObject.Type
	}

	ctor := t.Cfg.Constructor(delegateType)
	paramTypes := []typ.Type{boundValueType, fptrType}

	ib.Replace(instr.New(proto.NewObject(ctor, paramTypes, delegateType), boundValue, fptr.Tag))
}
