// Package typ models the opaque type handle the surrounding host type
// system provides and the small set of structural queries the compiler
// mid-end needs against it. The core never walks inheritance; it asks a
// Resolver instead.
package typ

// Type is an opaque handle into the host type system. The mid-end only
// ever compares handles for structural equality and asks a Resolver
// about their shape; it never introspects fields, methods, or bases.
type Type interface {
	// String returns a human-readable name, for diagnostics and traces.
	String() string
}

// Kind classifies a Type for the purposes Resolver exposes.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindPointer
	KindOther
)

// Resolver answers the structural questions the core needs about a
// Type without ever seeing the host type system's inheritance graph.
// Grounded on tp/type.go's single-method Type interface — this widens
// that one query (Size) into the small fixed set spec.md names, and no
// further.
type Resolver interface {
	Kind(Type) Kind

	// IntWidth reports the bit width and signedness of an integer Type.
	// Only meaningful when Kind(t) == KindInt.
	IntWidth(t Type) (bits int, signed bool)

	// FloatWidth reports 32 or 64. Only meaningful when Kind(t) == KindFloat.
	FloatWidth(t Type) int

	// PointerElem reports the pointee type of a pointer Type. Only
	// meaningful when Kind(t) == KindPointer.
	PointerElem(t Type) Type

	// Equal reports structural equality between two type handles.
	Equal(a, b Type) bool
}

// Mapper substitutes one Type for another, used by Prototype.Map during
// generic specialization.
type Mapper interface {
	Map(Type) Type
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(Type) Type

func (f MapperFunc) Map(t Type) Type { return f(t) }
