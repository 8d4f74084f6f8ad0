package sexpr

import "tlog.app/go/errors"

// TypeRefKind discriminates the twelve reserved type-reference heads
// spec §6.1 lists. TypeRef is a flat tagged-variant struct, the same
// shape typ.Constant uses for its own tagged variants — only the fields
// relevant to Kind are meaningful.
type TypeRefKind int

const (
	TRReference TypeRefKind = iota // #type_reference("FullName")
	TRTableRef                     // #type_table_reference(index)
	TRNested                       // #nested_type(declType, "name")
	TRPrimitive                    // #primitive_type("name")
	TRArray                        // #array_type(elemType, rank)
	TRPointer                      // #pointer_type(elemType, kind)
	TRVector                       // #vector_type(elemType, dims...)
	TROf                           // #of(declaration, args...)
	TROfMember                     // #of_member(declType, declaration)
	TRRoot                         // #root_type
	TRIterable                     // #iterable_type
	TRIterator                     // #iterator_type
)

var typeRefHeads = map[TypeRefKind]string{
	TRReference: "type_reference",
	TRTableRef:  "type_table_reference",
	TRNested:    "nested_type",
	TRPrimitive: "primitive_type",
	TRArray:     "array_type",
	TRPointer:   "pointer_type",
	TRVector:    "vector_type",
	TROf:        "of",
	TROfMember:  "of_member",
	TRRoot:      "root_type",
	TRIterable:  "iterable_type",
	TRIterator:  "iterator_type",
}

var typeRefKindByHead = func() map[string]TypeRefKind {
	m := make(map[string]TypeRefKind, len(typeRefHeads))
	for k, v := range typeRefHeads {
		m[v] = k
	}

	return m
}()

// TypeRef is the on-disk representation of a type reference: one of the
// twelve forms spec §6.1 reserves. It never resolves to a live typ.Type
// on its own — typ.Resolver only answers structural questions about a
// Type it is already given, it cannot manufacture one from a name, so
// binding a TypeRef to an actual typ.Type is the loader's job, supplied
// externally the same way cil.Slot pre-resolves its PointerType.
type TypeRef struct {
	Kind TypeRefKind

	Name  string // TRReference, TRPrimitive
	Index int64  // TRTableRef

	// Elem holds declType (TRNested, TROfMember) or elemType (TRArray,
	// TRPointer, TRVector).
	Elem *TypeRef

	NestedName  string // TRNested's "name"
	Rank        int64  // TRArray
	PointerKind string // TRPointer's "kind"
	Dims        []int64

	// Declaration holds TROf's/TROfMember's "declaration" operand —
	// itself a type reference identifying the open generic declaration.
	Declaration *TypeRef
	Args        []TypeRef // TROf's generic arguments
}

// ToNode renders t as its on-disk Node form.
func ToNode(t TypeRef) Node {
	head := typeRefHeads[t.Kind]

	switch t.Kind {
	case TRReference, TRPrimitive:
		return Hash(head, Str(t.Name))
	case TRTableRef:
		return Hash(head, Int(t.Index))
	case TRNested:
		return Hash(head, ToNode(*t.Elem), Str(t.NestedName))
	case TRArray:
		return Hash(head, ToNode(*t.Elem), Int(t.Rank))
	case TRPointer:
		return Hash(head, ToNode(*t.Elem), Ident(t.PointerKind))
	case TRVector:
		args := make([]Node, 0, len(t.Dims)+1)
		args = append(args, ToNode(*t.Elem))

		for _, d := range t.Dims {
			args = append(args, Int(d))
		}

		return Hash(head, args...)
	case TROf:
		args := make([]Node, 0, len(t.Args)+1)
		args = append(args, ToNode(*t.Declaration))

		for _, a := range t.Args {
			args = append(args, ToNode(a))
		}

		return Hash(head, args...)
	case TROfMember:
		return Hash(head, ToNode(*t.Elem), ToNode(*t.Declaration))
	default: // TRRoot, TRIterable, TRIterator
		return Hash(head)
	}
}

// TypeRefFromNode decodes n, table-driven over n.Head, into a TypeRef.
func TypeRefFromNode(n Node) (TypeRef, error) {
	if n.IsAtom() {
		return TypeRef{}, errors.New("sexpr: expected a type-reference expression, got an atom %q", n.Str)
	}

	kind, ok := typeRefKindByHead[n.Head]
	if !ok {
		return TypeRef{}, errors.New("sexpr: %q is not a recognized type-reference head", n.Head)
	}

	switch kind {
	case TRReference, TRPrimitive:
		name, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: kind, Name: name.Str}, nil

	case TRTableRef:
		idx, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		v, err := idx.AsInt()
		if err != nil {
			return TypeRef{}, errors.Wrap(err, "type_table_reference index")
		}

		return TypeRef{Kind: kind, Index: v}, nil

	case TRNested:
		declNode, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		decl, err := TypeRefFromNode(declNode)
		if err != nil {
			return TypeRef{}, err
		}

		nameNode, err := n.Arg(1)
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: kind, Elem: &decl, NestedName: nameNode.Str}, nil

	case TRArray:
		elemNode, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		elem, err := TypeRefFromNode(elemNode)
		if err != nil {
			return TypeRef{}, err
		}

		rankNode, err := n.Arg(1)
		if err != nil {
			return TypeRef{}, err
		}

		rank, err := rankNode.AsInt()
		if err != nil {
			return TypeRef{}, errors.Wrap(err, "array_type rank")
		}

		return TypeRef{Kind: kind, Elem: &elem, Rank: rank}, nil

	case TRPointer:
		elemNode, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		elem, err := TypeRefFromNode(elemNode)
		if err != nil {
			return TypeRef{}, err
		}

		kindNode, err := n.Arg(1)
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: kind, Elem: &elem, PointerKind: kindNode.Str}, nil

	case TRVector:
		if len(n.Args) == 0 {
			return TypeRef{}, errors.New("sexpr: vector_type requires an element type")
		}

		elem, err := TypeRefFromNode(n.Args[0])
		if err != nil {
			return TypeRef{}, err
		}

		dims := make([]int64, 0, len(n.Args)-1)

		for _, d := range n.Args[1:] {
			v, err := d.AsInt()
			if err != nil {
				return TypeRef{}, errors.Wrap(err, "vector_type dims")
			}

			dims = append(dims, v)
		}

		return TypeRef{Kind: kind, Elem: &elem, Dims: dims}, nil

	case TROf:
		if len(n.Args) == 0 {
			return TypeRef{}, errors.New("sexpr: of requires a declaration")
		}

		decl, err := TypeRefFromNode(n.Args[0])
		if err != nil {
			return TypeRef{}, err
		}

		args := make([]TypeRef, 0, len(n.Args)-1)

		for _, a := range n.Args[1:] {
			t, err := TypeRefFromNode(a)
			if err != nil {
				return TypeRef{}, err
			}

			args = append(args, t)
		}

		return TypeRef{Kind: kind, Declaration: &decl, Args: args}, nil

	case TROfMember:
		declTypeNode, err := n.Arg(0)
		if err != nil {
			return TypeRef{}, err
		}

		declType, err := TypeRefFromNode(declTypeNode)
		if err != nil {
			return TypeRef{}, err
		}

		declNode, err := n.Arg(1)
		if err != nil {
			return TypeRef{}, err
		}

		decl, err := TypeRefFromNode(declNode)
		if err != nil {
			return TypeRef{}, err
		}

		return TypeRef{Kind: kind, Elem: &declType, Declaration: &decl}, nil

	default: // TRRoot, TRIterable, TRIterator
		return TypeRef{Kind: kind}, nil
	}
}
