package sexpr

import (
	"tlog.app/go/errors"

	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// ProtoHost is the host knowledge the prototype codec needs beyond what
// a bare Node can express: turning a TypeRef back into the live Type
// the rest of the compiler works with, and vice versa. Reuses TypeHost
// rather than inventing a parallel struct.
type ProtoHost struct {
	TypeHost
}

func nameToNode(n tag.Name) Node {
	return Keyed("name", Str(n.Pkg), Str(n.Member))
}

func nameFromNode(n Node) (tag.Name, error) {
	if n.IsAtom() || n.Head != "name" {
		return tag.Name{}, errors.New("sexpr: expected a qualified name, got %v", n)
	}

	pkgNode, err := n.Arg(0)
	if err != nil {
		return tag.Name{}, err
	}

	memberNode, err := n.Arg(1)
	if err != nil {
		return tag.Name{}, err
	}

	return tag.Name{Pkg: pkgNode.Str, Member: memberNode.Str}, nil
}

func lookupIdent(k proto.LookupKind) Node { return Ident(k.String()) }

func lookupFromNode(n Node) (proto.LookupKind, error) {
	if n.Kind != AtomIdent {
		return proto.Static, errors.New("sexpr: expected a lookup-kind atom, got %v", n.Kind)
	}

	switch n.Str {
	case "static":
		return proto.Static, nil
	case "virtual":
		return proto.Virtual, nil
	default:
		return proto.Static, errors.New("sexpr: not a lookup kind: %q", n.Str)
	}
}

func excIdent(e proto.ExceptionSpec) Node {
	if e == proto.MayThrow {
		return Ident("may_throw")
	}

	return Ident("no_throw")
}

func excFromNode(n Node) (proto.ExceptionSpec, error) {
	if n.Kind != AtomIdent {
		return proto.NoThrow, errors.New("sexpr: expected an exception-spec atom, got %v", n.Kind)
	}

	switch n.Str {
	case "may_throw":
		return proto.MayThrow, nil
	case "no_throw":
		return proto.NoThrow, nil
	default:
		return proto.NoThrow, errors.New("sexpr: not an exception spec: %q", n.Str)
	}
}

func typesToNodes(h ProtoHost, ts []typ.Type) ([]Node, error) {
	out := make([]Node, len(ts))

	for i, t := range ts {
		ref, err := h.ToRef(t)
		if err != nil {
			return nil, errors.Wrap(err, "operand %d", i)
		}

		out[i] = ToNode(ref)
	}

	return out, nil
}

func typesFromList(n Node, h ProtoHost) ([]typ.Type, error) {
	out := make([]typ.Type, len(n.Args))

	for i, a := range n.Args {
		ref, err := TypeRefFromNode(a)
		if err != nil {
			return nil, err
		}

		t, err := h.FromRef(ref)
		if err != nil {
			return nil, errors.Wrap(err, "operand %d", i)
		}

		out[i] = t
	}

	return out, nil
}

func typeArg(n Node, i int, h ProtoHost) (typ.Type, error) {
	refNode, err := n.Arg(i)
	if err != nil {
		return nil, err
	}

	ref, err := TypeRefFromNode(refNode)
	if err != nil {
		return nil, err
	}

	return h.FromRef(ref)
}

// optTypeNode renders t, which may be nil (a type unknown to the
// producer rather than unrepresentable), as either the atom "none" or a
// "some" wrapper around its TypeRef.
func optTypeNode(h ProtoHost, t typ.Type) (Node, error) {
	if t == nil {
		return Ident("none"), nil
	}

	ref, err := h.ToRef(t)
	if err != nil {
		return Node{}, err
	}

	return Keyed("some", ToNode(ref)), nil
}

func optTypeArg(n Node, i int, h ProtoHost) (typ.Type, error) {
	wrap, err := n.Arg(i)
	if err != nil {
		return nil, err
	}

	if wrap.IsAtom() {
		if wrap.Kind == AtomIdent && wrap.Str == "none" {
			return nil, nil
		}

		return nil, errors.New("sexpr: expected \"none\" or a some(...) type, got %v", wrap)
	}

	if wrap.Head != "some" {
		return nil, errors.New("sexpr: expected \"none\" or a some(...) type, got %v", wrap)
	}

	refNode, err := wrap.Arg(0)
	if err != nil {
		return nil, err
	}

	ref, err := TypeRefFromNode(refNode)
	if err != nil {
		return nil, err
	}

	return h.FromRef(ref)
}

// PrototypeToNode renders an instruction prototype as its on-disk Node,
// dispatching over every variant proto exposes an *Info extractor for.
func PrototypeToNode(p proto.Prototype, h ProtoHost) (Node, error) {
	if elem, ptr, ok := proto.AllocaInfo(p); ok {
		elemRef, err := h.ToRef(elem)
		if err != nil {
			return Node{}, err
		}

		ptrRef, err := h.ToRef(ptr)
		if err != nil {
			return Node{}, err
		}

		return Keyed("alloca", ToNode(elemRef), ToNode(ptrRef)), nil
	}

	if elem, ptr, lenType, ok := proto.AllocaArrayInfo(p); ok {
		elemRef, err := h.ToRef(elem)
		if err != nil {
			return Node{}, err
		}

		ptrRef, err := h.ToRef(ptr)
		if err != nil {
			return Node{}, err
		}

		lenRef, err := h.ToRef(lenType)
		if err != nil {
			return Node{}, err
		}

		return Keyed("alloca_array", ToNode(elemRef), ToNode(ptrRef), ToNode(lenRef)), nil
	}

	if c, ok := proto.ConstInfo(p); ok {
		cn, err := ConstantToNode(c, h.TypeHost)
		if err != nil {
			return Node{}, err
		}

		return Keyed("const", cn), nil
	}

	if t, ok := proto.CopyInfo(p); ok {
		ref, err := h.ToRef(t)
		if err != nil {
			return Node{}, err
		}

		return Keyed("copy", ToNode(ref)), nil
	}

	if t, ptr, ok := proto.LoadInfo(p); ok {
		tRef, err := h.ToRef(t)
		if err != nil {
			return Node{}, err
		}

		ptrRef, err := h.ToRef(ptr)
		if err != nil {
			return Node{}, err
		}

		return Keyed("load", ToNode(tRef), ToNode(ptrRef)), nil
	}

	if t, ptr, _, ok := proto.StoreInfo(p); ok {
		tRef, err := h.ToRef(t)
		if err != nil {
			return Node{}, err
		}

		ptrRef, err := h.ToRef(ptr)
		if err != nil {
			return Node{}, err
		}

		return Keyed("store", ToNode(tRef), ToNode(ptrRef)), nil
	}

	if method, lookup, params, _, ok := proto.CallInfo(p); ok {
		paramNodes, err := typesToNodes(h, params)
		if err != nil {
			return Node{}, err
		}

		return Keyed("call", nameToNode(method), lookupIdent(lookup), Braces(paramNodes...)), nil
	}

	if calleeType, result, params, ok := proto.IndirectCallInfo(p); ok {
		calleeNode, err := optTypeNode(h, calleeType)
		if err != nil {
			return Node{}, err
		}

		resultRef, err := h.ToRef(result)
		if err != nil {
			return Node{}, err
		}

		paramNodes, err := typesToNodes(h, params)
		if err != nil {
			return Node{}, err
		}

		return Keyed("indirect_call", calleeNode, ToNode(resultRef), Braces(paramNodes...)), nil
	}

	if ctor, params, _, ok := proto.NewObjectInfo(p); ok {
		paramNodes, err := typesToNodes(h, params)
		if err != nil {
			return Node{}, err
		}

		return Keyed("new_object", nameToNode(ctor), Braces(paramNodes...)), nil
	}

	if delegateType, callee, hasThis, lookup, ok := proto.DelegateInfo(p); ok {
		delegateRef, err := h.ToRef(delegateType)
		if err != nil {
			return Node{}, err
		}

		return Keyed("new_delegate", ToNode(delegateRef), nameToNode(callee), boolIdent(hasThis), lookupIdent(lookup)), nil
	}

	if ptr, ok := proto.ReinterpretCastInfo(p); ok {
		ptrRef, err := h.ToRef(ptr)
		if err != nil {
			return Node{}, err
		}

		return Keyed("reinterpret_cast", ToNode(ptrRef)), nil
	}

	if name, _, params, exc, ok := proto.IntrinsicInfo(p); ok {
		paramNodes, err := typesToNodes(h, params)
		if err != nil {
			return Node{}, err
		}

		return Keyed("intrinsic", Str(name), Braces(paramNodes...), excIdent(exc)), nil
	}

	return Node{}, errors.New("sexpr: prototype has no recognized on-disk encoding")
}

// PrototypeFromNode is PrototypeToNode's inverse. Types that the node
// itself doesn't spell out (store's void, const's value type, a call's,
// new_object's or intrinsic's result type, a bound new_delegate's bound
// type) are recovered from the caller's symbol table through
// resolveResult, since the wire format identifies the callee by name
// only.
func PrototypeFromNode(n Node, h ProtoHost, resolveResult func(head string, method tag.Name) (typ.Type, error)) (proto.Prototype, error) {
	if n.IsAtom() {
		return nil, errors.New("sexpr: expected an instruction prototype, got an atom %q", n.Str)
	}

	switch n.Head {
	case "alloca":
		elem, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		ptr, err := typeArg(n, 1, h)
		if err != nil {
			return nil, err
		}

		return proto.Alloca(elem, ptr), nil

	case "alloca_array":
		elem, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		ptr, err := typeArg(n, 1, h)
		if err != nil {
			return nil, err
		}

		lenType, err := typeArg(n, 2, h)
		if err != nil {
			return nil, err
		}

		return proto.AllocaArray(elem, ptr, lenType), nil

	case "const":
		cn, err := n.Arg(0)
		if err != nil {
			return nil, err
		}

		c, err := ConstantFromNode(cn, func() (typ.Type, error) {
			return resolveResult("const", tag.Name{})
		}, h.TypeHost)
		if err != nil {
			return nil, err
		}

		return proto.Const(c), nil

	case "copy":
		t, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		return proto.Copy(t), nil

	case "load":
		t, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		ptr, err := typeArg(n, 1, h)
		if err != nil {
			return nil, err
		}

		return proto.Load(t, ptr), nil

	case "store":
		t, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		ptr, err := typeArg(n, 1, h)
		if err != nil {
			return nil, err
		}

		void, err := resolveResult("store", tag.Name{})
		if err != nil {
			return nil, err
		}

		return proto.Store(t, ptr, void), nil

	case "call":
		methodNode, err := n.Arg(0)
		if err != nil {
			return nil, err
		}

		method, err := nameFromNode(methodNode)
		if err != nil {
			return nil, err
		}

		lookupNode, err := n.Arg(1)
		if err != nil {
			return nil, err
		}

		lookup, err := lookupFromNode(lookupNode)
		if err != nil {
			return nil, err
		}

		paramsNode, err := n.Arg(2)
		if err != nil {
			return nil, err
		}

		params, err := typesFromList(paramsNode, h)
		if err != nil {
			return nil, err
		}

		result, err := resolveResult("call", method)
		if err != nil {
			return nil, err
		}

		return proto.Call(method, lookup, params, result), nil

	case "indirect_call":
		calleeType, err := optTypeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		result, err := typeArg(n, 1, h)
		if err != nil {
			return nil, err
		}

		paramsNode, err := n.Arg(2)
		if err != nil {
			return nil, err
		}

		params, err := typesFromList(paramsNode, h)
		if err != nil {
			return nil, err
		}

		return proto.IndirectCall(calleeType, result, params), nil

	case "new_object":
		ctorNode, err := n.Arg(0)
		if err != nil {
			return nil, err
		}

		ctor, err := nameFromNode(ctorNode)
		if err != nil {
			return nil, err
		}

		paramsNode, err := n.Arg(1)
		if err != nil {
			return nil, err
		}

		params, err := typesFromList(paramsNode, h)
		if err != nil {
			return nil, err
		}

		result, err := resolveResult("new_object", ctor)
		if err != nil {
			return nil, err
		}

		return proto.NewObject(ctor, params, result), nil

	case "new_delegate":
		delegateType, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		calleeNode, err := n.Arg(1)
		if err != nil {
			return nil, err
		}

		callee, err := nameFromNode(calleeNode)
		if err != nil {
			return nil, err
		}

		hasThisNode, err := n.Arg(2)
		if err != nil {
			return nil, err
		}

		hasThis, err := hasThisNode.AsBool()
		if err != nil {
			return nil, errors.Wrap(err, "new_delegate hasThis")
		}

		lookupNode, err := n.Arg(3)
		if err != nil {
			return nil, err
		}

		lookup, err := lookupFromNode(lookupNode)
		if err != nil {
			return nil, err
		}

		var boundType typ.Type
		if hasThis {
			boundType, err = resolveResult("new_delegate.bound", callee)
			if err != nil {
				return nil, err
			}
		}

		return proto.NewDelegate(delegateType, callee, hasThis, lookup, boundType), nil

	case "reinterpret_cast":
		ptr, err := typeArg(n, 0, h)
		if err != nil {
			return nil, err
		}

		return proto.ReinterpretCast(ptr), nil

	case "intrinsic":
		nameNode, err := n.Arg(0)
		if err != nil {
			return nil, err
		}

		paramsNode, err := n.Arg(1)
		if err != nil {
			return nil, err
		}

		params, err := typesFromList(paramsNode, h)
		if err != nil {
			return nil, err
		}

		excNode, err := n.Arg(2)
		if err != nil {
			return nil, err
		}

		exc, err := excFromNode(excNode)
		if err != nil {
			return nil, err
		}

		result, err := resolveResult("intrinsic:"+nameNode.Str, tag.Name{})
		if err != nil {
			return nil, err
		}

		return proto.Intrinsic(nameNode.Str, result, params, exc), nil

	default:
		return nil, errors.New("sexpr: %q is not a recognized instruction prototype head", n.Head)
	}
}
