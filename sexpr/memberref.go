package sexpr

import "tlog.app/go/errors"

// FieldRef is the on-disk reference to a field: "#field_reference(declType,
// "name")", mirroring #nested_type's (declType, name) shape per spec §6.1's
// "field/method references mirror the pattern".
type FieldRef struct {
	DeclType TypeRef
	Name     string
}

func (f FieldRef) ToNode() Node {
	return Hash("field_reference", ToNode(f.DeclType), Str(f.Name))
}

func FieldRefFromNode(n Node) (FieldRef, error) {
	if n.IsAtom() || n.Head != "field_reference" {
		return FieldRef{}, errors.New("sexpr: expected #field_reference, got %v", n)
	}

	declNode, err := n.Arg(0)
	if err != nil {
		return FieldRef{}, err
	}

	decl, err := TypeRefFromNode(declNode)
	if err != nil {
		return FieldRef{}, err
	}

	nameNode, err := n.Arg(1)
	if err != nil {
		return FieldRef{}, err
	}

	return FieldRef{DeclType: decl, Name: nameNode.Str}, nil
}

// MethodSignature is "#method_reference(declType, name, isStatic,
// {genericParamNames…}, returnType, {paramTypes…})", or, when IsCtor,
// the symmetric "#ctor_reference(declType, isStatic, {genericParamNames…},
// {paramTypes…})" — a constructor has no name and no return type.
type MethodSignature struct {
	IsCtor bool

	DeclType          TypeRef
	Name              string // meaningless when IsCtor
	IsStatic          bool
	GenericParamNames []string
	ReturnType        TypeRef // meaningless when IsCtor
	ParamTypes        []TypeRef
}

func (m MethodSignature) ToNode() Node {
	names := make([]Node, len(m.GenericParamNames))
	for i, n := range m.GenericParamNames {
		names[i] = Str(n)
	}

	params := make([]Node, len(m.ParamTypes))
	for i, p := range m.ParamTypes {
		params[i] = ToNode(p)
	}

	if m.IsCtor {
		return Hash("ctor_reference", ToNode(m.DeclType), boolIdent(m.IsStatic), Braces(names...), Braces(params...))
	}

	return Hash("method_reference", ToNode(m.DeclType), Str(m.Name), boolIdent(m.IsStatic), Braces(names...), ToNode(m.ReturnType), Braces(params...))
}

func MethodSignatureFromNode(n Node) (MethodSignature, error) {
	if n.IsAtom() {
		return MethodSignature{}, errors.New("sexpr: expected a method or ctor reference, got an atom %q", n.Str)
	}

	switch n.Head {
	case "ctor_reference":
		return ctorSignatureFromNode(n)
	case "method_reference":
		return methodSignatureFromNode(n)
	default:
		return MethodSignature{}, errors.New("sexpr: %q is not a recognized method-reference head", n.Head)
	}
}

func ctorSignatureFromNode(n Node) (MethodSignature, error) {
	declNode, err := n.Arg(0)
	if err != nil {
		return MethodSignature{}, err
	}

	decl, err := TypeRefFromNode(declNode)
	if err != nil {
		return MethodSignature{}, err
	}

	staticNode, err := n.Arg(1)
	if err != nil {
		return MethodSignature{}, err
	}

	isStatic, err := staticNode.AsBool()
	if err != nil {
		return MethodSignature{}, errors.Wrap(err, "ctor_reference isStatic")
	}

	namesNode, err := n.Arg(2)
	if err != nil {
		return MethodSignature{}, err
	}

	names := stringsFromList(namesNode)

	paramsNode, err := n.Arg(3)
	if err != nil {
		return MethodSignature{}, err
	}

	params, err := typeRefsFromList(paramsNode)
	if err != nil {
		return MethodSignature{}, errors.Wrap(err, "ctor_reference paramTypes")
	}

	return MethodSignature{
		IsCtor:            true,
		DeclType:          decl,
		IsStatic:          isStatic,
		GenericParamNames: names,
		ParamTypes:        params,
	}, nil
}

func methodSignatureFromNode(n Node) (MethodSignature, error) {
	declNode, err := n.Arg(0)
	if err != nil {
		return MethodSignature{}, err
	}

	decl, err := TypeRefFromNode(declNode)
	if err != nil {
		return MethodSignature{}, err
	}

	nameNode, err := n.Arg(1)
	if err != nil {
		return MethodSignature{}, err
	}

	staticNode, err := n.Arg(2)
	if err != nil {
		return MethodSignature{}, err
	}

	isStatic, err := staticNode.AsBool()
	if err != nil {
		return MethodSignature{}, errors.Wrap(err, "method_reference isStatic")
	}

	namesNode, err := n.Arg(3)
	if err != nil {
		return MethodSignature{}, err
	}

	names := stringsFromList(namesNode)

	retNode, err := n.Arg(4)
	if err != nil {
		return MethodSignature{}, err
	}

	ret, err := TypeRefFromNode(retNode)
	if err != nil {
		return MethodSignature{}, err
	}

	paramsNode, err := n.Arg(5)
	if err != nil {
		return MethodSignature{}, err
	}

	params, err := typeRefsFromList(paramsNode)
	if err != nil {
		return MethodSignature{}, errors.Wrap(err, "method_reference paramTypes")
	}

	return MethodSignature{
		DeclType:          decl,
		Name:              nameNode.Str,
		IsStatic:          isStatic,
		GenericParamNames: names,
		ReturnType:        ret,
		ParamTypes:        params,
	}, nil
}

func boolIdent(b bool) Node {
	if b {
		return Ident("true")
	}

	return Ident("false")
}

func stringsFromList(n Node) []string {
	if n.Kind != List || len(n.Args) == 0 {
		return nil
	}

	out := make([]string, len(n.Args))
	for i, a := range n.Args {
		out[i] = a.Str
	}

	return out
}

func typeRefsFromList(n Node) ([]TypeRef, error) {
	if n.Kind != List || len(n.Args) == 0 {
		return nil, nil
	}

	out := make([]TypeRef, len(n.Args))

	for i, a := range n.Args {
		t, err := TypeRefFromNode(a)
		if err != nil {
			return nil, err
		}

		out[i] = t
	}

	return out, nil
}
