package proto

import (
	"fmt"

	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

type (
	allocaProto struct {
		elem typ.Type
		ptr  typ.Type
	}

	allocaArrayProto struct {
		elem     typ.Type
		ptr      typ.Type
		lenType  typ.Type
	}

	constProto struct {
		value typ.Constant
	}

	copyProto struct {
		t typ.Type
	}

	loadProto struct {
		t   typ.Type
		ptr typ.Type
	}

	storeProto struct {
		t    typ.Type
		ptr  typ.Type
		void typ.Type
	}

	callProto struct {
		method tag.Name
		lookup LookupKind
		params []typ.Type
		result typ.Type
	}

	indirectCallProto struct {
		calleeType typ.Type
		params     []typ.Type
		result     typ.Type
	}

	newObjectProto struct {
		ctor   tag.Name
		params []typ.Type
		result typ.Type
	}

	newDelegateProto struct {
		delegateType typ.Type
		callee       tag.Name
		hasThis      bool
		lookup       LookupKind
		boundType    typ.Type
	}

	reinterpretCastProto struct {
		ptr typ.Type
	}

	intrinsicProto struct {
		name   string
		result typ.Type
		params []typ.Type
		exc    ExceptionSpec
	}
)

// Alloca allocates stack space for a value of type elem, producing a
// value of the (host-supplied) pointer type ptr.
func Alloca(elem, ptr typ.Type) Prototype {
	key := fmt.Sprintf("alloca(%s,%s)", typeKey(elem), typeKey(ptr))

	return intern(key, func() Prototype {
		return allocaProto{elem: elem, ptr: ptr}
	})
}

func (p allocaProto) ResultType() typ.Type    { return p.ptr }
func (p allocaProto) Arity() int              { return 0 }
func (p allocaProto) ParamType(int) typ.Type  { return nil }
func (p allocaProto) Exception() ExceptionSpec { return NoThrow }

func (p allocaProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	return checkArity(args, 0)
}

func (p allocaProto) Map(m typ.Mapper) Prototype {
	return Alloca(m.Map(p.elem), m.Map(p.ptr))
}

// AllocaArray allocates stack space for an array of elem, with the
// element count supplied as the single value argument (of lenType).
func AllocaArray(elem, ptr, lenType typ.Type) Prototype {
	key := fmt.Sprintf("alloca_array(%s,%s,%s)", typeKey(elem), typeKey(ptr), typeKey(lenType))

	return intern(key, func() Prototype {
		return allocaArrayProto{elem: elem, ptr: ptr, lenType: lenType}
	})
}

func (p allocaArrayProto) ResultType() typ.Type { return p.ptr }
func (p allocaArrayProto) Arity() int            { return 1 }

func (p allocaArrayProto) ParamType(i int) typ.Type {
	if i == 0 {
		return p.lenType
	}

	return nil
}

func (p allocaArrayProto) Exception() ExceptionSpec { return NoThrow }

func (p allocaArrayProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 1)
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p allocaArrayProto) Map(m typ.Mapper) Prototype {
	return AllocaArray(m.Map(p.elem), m.Map(p.ptr), m.Map(p.lenType))
}

// Const materializes a literal value.
func Const(c typ.Constant) Prototype {
	key := fmt.Sprintf("const(%d,%s,%s)", c.Kind, typeKey(c.Type), c.String())

	return intern(key, func() Prototype {
		return constProto{value: c}
	})
}

func (p constProto) ResultType() typ.Type     { return p.value.Type }
func (p constProto) Arity() int               { return 0 }
func (p constProto) ParamType(int) typ.Type   { return nil }
func (p constProto) Exception() ExceptionSpec { return NoThrow }

func (p constProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	return checkArity(args, 0)
}

func (p constProto) Map(m typ.Mapper) Prototype {
	c := p.value
	c.Type = m.Map(c.Type)

	return Const(c)
}

// Copy is the identity operation on a value of type t. Used to express
// the terminal value of a Return flow.
func Copy(t typ.Type) Prototype {
	key := fmt.Sprintf("copy(%s)", typeKey(t))

	return intern(key, func() Prototype {
		return copyProto{t: t}
	})
}

func (p copyProto) ResultType() typ.Type { return p.t }
func (p copyProto) Arity() int           { return 1 }

func (p copyProto) ParamType(i int) typ.Type {
	if i == 0 {
		return p.t
	}

	return nil
}

func (p copyProto) Exception() ExceptionSpec { return NoThrow }

func (p copyProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 1)
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p copyProto) Map(m typ.Mapper) Prototype {
	return Copy(m.Map(p.t))
}

// CopyInfo extracts a Copy prototype's operand type, for the
// copy-propagation transform.
func CopyInfo(p Prototype) (t typ.Type, ok bool) {
	cp, ok := p.(copyProto)
	if !ok {
		return nil, false
	}

	return cp.t, true
}

// AllocaInfo extracts an Alloca prototype's fields, for the on-disk codec.
func AllocaInfo(p Prototype) (elem, ptr typ.Type, ok bool) {
	ap, ok := p.(allocaProto)
	if !ok {
		return nil, nil, false
	}

	return ap.elem, ap.ptr, true
}

// AllocaArrayInfo extracts an AllocaArray prototype's fields, for the
// on-disk codec.
func AllocaArrayInfo(p Prototype) (elem, ptr, lenType typ.Type, ok bool) {
	ap, ok := p.(allocaArrayProto)
	if !ok {
		return nil, nil, nil, false
	}

	return ap.elem, ap.ptr, ap.lenType, true
}

// ConstInfo extracts a Const prototype's value, for the on-disk codec.
func ConstInfo(p Prototype) (c typ.Constant, ok bool) {
	cp, ok := p.(constProto)
	if !ok {
		return typ.Constant{}, false
	}

	return cp.value, true
}

// Load reads a value of type t through a pointer of type ptr.
func Load(t, ptr typ.Type) Prototype {
	key := fmt.Sprintf("load(%s,%s)", typeKey(t), typeKey(ptr))

	return intern(key, func() Prototype {
		return loadProto{t: t, ptr: ptr}
	})
}

func (p loadProto) ResultType() typ.Type { return p.t }
func (p loadProto) Arity() int           { return 1 }

func (p loadProto) ParamType(i int) typ.Type {
	if i == 0 {
		return p.ptr
	}

	return nil
}

func (p loadProto) Exception() ExceptionSpec { return NoThrow }

func (p loadProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 1)
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p loadProto) Map(m typ.Mapper) Prototype {
	return Load(m.Map(p.t), m.Map(p.ptr))
}

// LoadInfo extracts a Load prototype's fields, for the on-disk codec.
func LoadInfo(p Prototype) (t, ptr typ.Type, ok bool) {
	lp, ok := p.(loadProto)
	if !ok {
		return nil, nil, false
	}

	return lp.t, lp.ptr, true
}

// Store writes a value of type t through a pointer of type ptr. void is
// the host's void type, used as the result type of the instruction.
func Store(t, ptr, void typ.Type) Prototype {
	key := fmt.Sprintf("store(%s,%s,%s)", typeKey(t), typeKey(ptr), typeKey(void))

	return intern(key, func() Prototype {
		return storeProto{t: t, ptr: ptr, void: void}
	})
}

func (p storeProto) ResultType() typ.Type { return p.void }
func (p storeProto) Arity() int           { return 2 }

func (p storeProto) ParamType(i int) typ.Type {
	switch i {
	case 0:
		return p.ptr
	case 1:
		return p.t
	default:
		return nil
	}
}

func (p storeProto) Exception() ExceptionSpec { return NoThrow }

func (p storeProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 2)
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p storeProto) Map(m typ.Mapper) Prototype {
	return Store(m.Map(p.t), m.Map(p.ptr), m.Map(p.void))
}

// StoreInfo extracts a Store prototype's fields, for the on-disk codec.
func StoreInfo(p Prototype) (t, ptr, void typ.Type, ok bool) {
	sp, ok := p.(storeProto)
	if !ok {
		return nil, nil, nil, false
	}

	return sp.t, sp.ptr, sp.void, true
}

// Call invokes method by static or virtual dispatch.
func Call(method tag.Name, lookup LookupKind, params []typ.Type, result typ.Type) Prototype {
	key := fmt.Sprintf("call(%s,%s,%s,%s)", method, lookup, typesKey(params), typeKey(result))

	return intern(key, func() Prototype {
		return callProto{method: method, lookup: lookup, params: append([]typ.Type{}, params...), result: result}
	})
}

func (p callProto) ResultType() typ.Type { return p.result }
func (p callProto) Arity() int           { return len(p.params) }

func (p callProto) ParamType(i int) typ.Type {
	if i < 0 || i >= len(p.params) {
		return nil
	}

	return p.params[i]
}

func (p callProto) Exception() ExceptionSpec { return MayThrow }

func (p callProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, len(p.params))
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p callProto) Map(m typ.Mapper) Prototype {
	params := make([]typ.Type, len(p.params))
	for i, t := range p.params {
		params[i] = m.Map(t)
	}

	return Call(p.method, p.lookup, params, m.Map(p.result))
}

// CallInfo extracts a Call prototype's fields, for the on-disk codec.
func CallInfo(p Prototype) (method tag.Name, lookup LookupKind, params []typ.Type, result typ.Type, ok bool) {
	cp, ok := p.(callProto)
	if !ok {
		return tag.Name{}, Static, nil, nil, false
	}

	return cp.method, cp.lookup, append([]typ.Type{}, cp.params...), cp.result, true
}

// IndirectCall invokes a callee value (the first value argument) whose
// declared type is calleeType — function/delegate-compatible with
// (params) -> result. calleeType may be nil when the caller has no
// resolved type for the callee yet; CheckConformance then falls back to
// a structural Kind check instead of an exact-type comparison.
func IndirectCall(calleeType, result typ.Type, params []typ.Type) Prototype {
	key := fmt.Sprintf("indirect_call(%s,%s,%s)", typeKey(calleeType), typeKey(result), typesKey(params))

	return intern(key, func() Prototype {
		return indirectCallProto{calleeType: calleeType, result: result, params: append([]typ.Type{}, params...)}
	})
}

func (p indirectCallProto) ResultType() typ.Type { return p.result }
func (p indirectCallProto) Arity() int            { return 1 + len(p.params) }

func (p indirectCallProto) ParamType(i int) typ.Type {
	if i == 0 {
		return p.calleeType
	}

	j := i - 1
	if j < 0 || j >= len(p.params) {
		return nil
	}

	return p.params[j]
}

func (p indirectCallProto) Exception() ExceptionSpec { return MayThrow }

// CheckConformance verifies arity and, for arguments beyond the callee,
// type equality. The callee (argument 0) is checked against calleeType
// when the prototype carries one; otherwise it falls back to a
// structural Kind check, since only the resolver can tell a function or
// delegate handle apart from anything else.
func (p indirectCallProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 1+len(p.params))
	if errs != nil {
		return errs
	}

	var out []string

	callee := args[0]
	switch {
	case p.calleeType != nil:
		if callee == nil || !r.Equal(p.calleeType, callee) {
			out = append(out, fmt.Sprintf("argument 0: expected callee %s, got %s", typeKey(p.calleeType), typeKey(callee)))
		}
	case callee == nil || r.Kind(callee) != typ.KindPointer:
		out = append(out, fmt.Sprintf("argument 0: callee %s is not a function/delegate handle", typeKey(callee)))
	}

	for i, want := range p.params {
		got := args[i+1]
		if got == nil || !r.Equal(want, got) {
			out = append(out, fmt.Sprintf("argument %d: expected %s, got %s", i+1, typeKey(want), typeKey(got)))
		}
	}

	return out
}

func (p indirectCallProto) Map(m typ.Mapper) Prototype {
	var calleeType typ.Type
	if p.calleeType != nil {
		calleeType = m.Map(p.calleeType)
	}

	params := make([]typ.Type, len(p.params))
	for i, t := range p.params {
		params[i] = m.Map(t)
	}

	return IndirectCall(calleeType, m.Map(p.result), params)
}

// NewObjectInfo extracts a NewObject prototype's fields, for the
// on-disk codec.
func NewObjectInfo(p Prototype) (ctor tag.Name, params []typ.Type, result typ.Type, ok bool) {
	np, ok := p.(newObjectProto)
	if !ok {
		return tag.Name{}, nil, nil, false
	}

	return np.ctor, append([]typ.Type{}, np.params...), np.result, true
}

// NewObject constructs a new instance via ctor.
func NewObject(ctor tag.Name, params []typ.Type, result typ.Type) Prototype {
	key := fmt.Sprintf("new_object(%s,%s,%s)", ctor, typesKey(params), typeKey(result))

	return intern(key, func() Prototype {
		return newObjectProto{ctor: ctor, params: append([]typ.Type{}, params...), result: result}
	})
}

func (p newObjectProto) ResultType() typ.Type { return p.result }
func (p newObjectProto) Arity() int           { return len(p.params) }

func (p newObjectProto) ParamType(i int) typ.Type {
	if i < 0 || i >= len(p.params) {
		return nil
	}

	return p.params[i]
}

func (p newObjectProto) Exception() ExceptionSpec { return MayThrow }

func (p newObjectProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, len(p.params))
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p newObjectProto) Map(m typ.Mapper) Prototype {
	params := make([]typ.Type, len(p.params))
	for i, t := range p.params {
		params[i] = m.Map(t)
	}

	return NewObject(p.ctor, params, m.Map(p.result))
}

// NewDelegate materializes a bound or unbound delegate of delegateType
// over callee. When hasThis, the single value argument is the bound
// object; otherwise the prototype is nullary. boundType is the type of
// that bound-object argument (meaningless when !hasThis).
func NewDelegate(delegateType typ.Type, callee tag.Name, hasThis bool, lookup LookupKind, boundType typ.Type) Prototype {
	key := fmt.Sprintf("new_delegate(%s,%s,%v,%s,%s)", typeKey(delegateType), callee, hasThis, lookup, typeKey(boundType))

	return intern(key, func() Prototype {
		return newDelegateProto{delegateType: delegateType, callee: callee, hasThis: hasThis, lookup: lookup, boundType: boundType}
	})
}

func (p newDelegateProto) ResultType() typ.Type { return p.delegateType }

func (p newDelegateProto) Arity() int {
	if p.hasThis {
		return 1
	}

	return 0
}

func (p newDelegateProto) ParamType(i int) typ.Type {
	if p.hasThis && i == 0 {
		return p.boundType
	}

	return nil
}

func (p newDelegateProto) Exception() ExceptionSpec { return NoThrow }

func (p newDelegateProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	want := 0
	if p.hasThis {
		want = 1
	}

	errs := checkArity(args, want)
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p newDelegateProto) Map(m typ.Mapper) Prototype {
	bound := p.boundType
	if bound != nil {
		bound = m.Map(bound)
	}

	return NewDelegate(m.Map(p.delegateType), p.callee, p.hasThis, p.lookup, bound)
}

// ReinterpretCastInfo extracts a ReinterpretCast prototype's field, for
// the on-disk codec.
func ReinterpretCastInfo(p Prototype) (ptr typ.Type, ok bool) {
	rp, ok := p.(reinterpretCastProto)
	if !ok {
		return nil, false
	}

	return rp.ptr, true
}

// ReinterpretCast reinterprets a pointer as ptr without changing bits.
func ReinterpretCast(ptr typ.Type) Prototype {
	key := fmt.Sprintf("reinterpret_cast(%s)", typeKey(ptr))

	return intern(key, func() Prototype {
		return reinterpretCastProto{ptr: ptr}
	})
}

func (p reinterpretCastProto) ResultType() typ.Type { return p.ptr }
func (p reinterpretCastProto) Arity() int           { return 1 }

func (p reinterpretCastProto) ParamType(i int) typ.Type {
	if i == 0 {
		return nil // any pointer-kind type is accepted; checked via resolver.Kind
	}

	return nil
}

func (p reinterpretCastProto) Exception() ExceptionSpec { return NoThrow }

func (p reinterpretCastProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, 1)
	if errs != nil {
		return errs
	}

	if args[0] == nil || r.Kind(args[0]) != typ.KindPointer {
		return []string{fmt.Sprintf("argument 0: expected a pointer-kind type, got %s", typeKey(args[0]))}
	}

	return nil
}

func (p reinterpretCastProto) Map(m typ.Mapper) Prototype {
	return ReinterpretCast(m.Map(p.ptr))
}

// Intrinsic is a named primitive operation supplied by the back-end's
// runtime, e.g. "arith.add".
func Intrinsic(name string, result typ.Type, params []typ.Type, exc ExceptionSpec) Prototype {
	key := fmt.Sprintf("intrinsic(%s,%s,%s,%d)", name, typeKey(result), typesKey(params), exc)

	return intern(key, func() Prototype {
		return intrinsicProto{name: name, result: result, params: append([]typ.Type{}, params...), exc: exc}
	})
}

func (p intrinsicProto) ResultType() typ.Type { return p.result }
func (p intrinsicProto) Arity() int           { return len(p.params) }

func (p intrinsicProto) ParamType(i int) typ.Type {
	if i < 0 || i >= len(p.params) {
		return nil
	}

	return p.params[i]
}

func (p intrinsicProto) Exception() ExceptionSpec { return p.exc }

func (p intrinsicProto) CheckConformance(args []typ.Type, r typ.Resolver) []string {
	errs := checkArity(args, len(p.params))
	if errs != nil {
		return errs
	}

	return checkParamTypes(p, args, r)
}

func (p intrinsicProto) Map(m typ.Mapper) Prototype {
	params := make([]typ.Type, len(p.params))
	for i, t := range p.params {
		params[i] = m.Map(t)
	}

	return Intrinsic(p.name, m.Map(p.result), params, p.exc)
}

// Name returns the intrinsic's opcode name. Only meaningful for prototypes
// returned by Intrinsic.
func Name(p Prototype) (string, bool) {
	ip, ok := p.(intrinsicProto)
	return ip.name, ok
}

// IntrinsicInfo extracts an Intrinsic prototype's fields, for the
// on-disk codec.
func IntrinsicInfo(p Prototype) (name string, result typ.Type, params []typ.Type, exc ExceptionSpec, ok bool) {
	ip, ok := p.(intrinsicProto)
	if !ok {
		return "", nil, nil, NoThrow, false
	}

	return ip.name, ip.result, append([]typ.Type{}, ip.params...), ip.exc, true
}

// DelegateInfo extracts the fields of a NewDelegate prototype, for the
// delegate-lowering transform.
func DelegateInfo(p Prototype) (delegateType typ.Type, callee tag.Name, hasThis bool, lookup LookupKind, ok bool) {
	dp, ok := p.(newDelegateProto)
	if !ok {
		return nil, tag.Name{}, false, Static, false
	}

	return dp.delegateType, dp.callee, dp.hasThis, dp.lookup, true
}

// IndirectCallInfo extracts the fields of an IndirectCall prototype, for
// the delegate-lowering transform.
func IndirectCallInfo(p Prototype) (calleeType, result typ.Type, params []typ.Type, ok bool) {
	ip, ok := p.(indirectCallProto)
	if !ok {
		return nil, nil, nil, false
	}

	return ip.calleeType, ip.result, append([]typ.Type{}, ip.params...), true
}
