package sexpr

import (
	"math/big"
	"testing"

	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

type fakeType struct {
	name   string
	kind   typ.Kind
	bits   int
	signed bool
}

func (f fakeType) String() string { return f.name }

var (
	i32Type  = fakeType{name: "Int32", kind: typ.KindInt, bits: 32, signed: true}
	u8Type   = fakeType{name: "Byte", kind: typ.KindInt, bits: 8, signed: false}
	boolType = fakeType{name: "Boolean", kind: typ.KindBool}
	ptrType  = fakeType{name: "Object*", kind: typ.KindPointer}
)

type fakeResolver struct{}

func (fakeResolver) Kind(t typ.Type) typ.Kind { return t.(fakeType).kind }
func (fakeResolver) IntWidth(t typ.Type) (int, bool) {
	ft := t.(fakeType)
	return ft.bits, ft.signed
}
func (fakeResolver) FloatWidth(typ.Type) int        { return 64 }
func (fakeResolver) PointerElem(typ.Type) typ.Type  { return nil }
func (fakeResolver) Equal(a, b typ.Type) bool       { return a == b }

func testTypeHost() TypeHost {
	byName := map[string]typ.Type{
		"Int32":   i32Type,
		"Byte":    u8Type,
		"Boolean": boolType,
		"Object*": ptrType,
	}

	return TypeHost{
		Resolver: fakeResolver{},
		ToRef: func(t typ.Type) (TypeRef, error) {
			return TypeRef{Kind: TRReference, Name: t.String()}, nil
		},
		FromRef: func(r TypeRef) (typ.Type, error) {
			return byName[r.Name], nil
		},
	}
}

func TestNodeRoundTripsCompoundWithMixedAtoms(t *testing.T) {
	n := Hash("array_type", Hash("primitive_type", Str("Int32")), Int(3))

	text := Format(nil, n)

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if Format(nil, got) == nil || string(Format(nil, got)) != string(text) {
		t.Fatalf("round trip mismatch: %s != %s", Format(nil, got), text)
	}
}

func TestNodeRoundTripsBraceList(t *testing.T) {
	n := Keyed("call", Ident("virtual"), Braces(Str("a"), Str("b")))

	text := Format(nil, n)

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if string(Format(nil, got)) != string(text) {
		t.Fatalf("round trip mismatch: got %s want %s", Format(nil, got), text)
	}
}

func TestNodeEscapesQuotesInStrings(t *testing.T) {
	n := Str(`he said "hi"`)

	text := Format(nil, n)

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got.Str != n.Str {
		t.Fatalf("expected %q, got %q", n.Str, got.Str)
	}
}

func TestTypeRefRoundTripsArrayOfPointer(t *testing.T) {
	elem := TypeRef{Kind: TRPrimitive, Name: "Int32"}
	ptr := TypeRef{Kind: TRPointer, Elem: &elem, PointerKind: "managed"}
	arr := TypeRef{Kind: TRArray, Elem: &ptr, Rank: 1}

	n := ToNode(arr)

	got, err := TypeRefFromNode(n)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Kind != TRArray || got.Rank != 1 || got.Elem.Kind != TRPointer || got.Elem.Elem.Name != "Int32" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestTypeRefRoundTripsOfGeneric(t *testing.T) {
	decl := TypeRef{Kind: TRReference, Name: "List"}
	arg := TypeRef{Kind: TRPrimitive, Name: "Int32"}
	of := TypeRef{Kind: TROf, Declaration: &decl, Args: []TypeRef{arg}}

	n := ToNode(of)
	text := Format(nil, n)

	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := TypeRefFromNode(parsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Kind != TROf || len(got.Args) != 1 || got.Args[0].Name != "Int32" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestMethodSignatureRoundTrips(t *testing.T) {
	declType := TypeRef{Kind: TRReference, Name: "Widget"}
	ret := TypeRef{Kind: TRPrimitive, Name: "Int32"}
	param := TypeRef{Kind: TRPrimitive, Name: "Boolean"}

	sig := MethodSignature{
		DeclType:          declType,
		Name:              "Draw",
		IsStatic:          false,
		GenericParamNames: []string{"T"},
		ReturnType:        ret,
		ParamTypes:        []TypeRef{param},
	}

	n := sig.ToNode()
	text := Format(nil, n)

	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := MethodSignatureFromNode(parsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Name != "Draw" || len(got.GenericParamNames) != 1 || got.GenericParamNames[0] != "T" || len(got.ParamTypes) != 1 {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestCtorSignatureRoundTrips(t *testing.T) {
	declType := TypeRef{Kind: TRReference, Name: "Widget"}

	sig := MethodSignature{
		IsCtor:   true,
		DeclType: declType,
		IsStatic: false,
	}

	n := sig.ToNode()

	got, err := MethodSignatureFromNode(n)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !got.IsCtor || got.DeclType.Name != "Widget" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestConstantRoundTripsSignedInt(t *testing.T) {
	h := testTypeHost()

	c := typ.Int(i32Type, big.NewInt(-7))

	n, err := ConstantToNode(c, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if n.Head != "const_int32" {
		t.Fatalf("expected const_int32, got %s", n.Head)
	}

	got, err := ConstantFromNode(n, func() (typ.Type, error) { return i32Type, nil }, h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Int.Cmp(big.NewInt(-7)) != 0 {
		t.Fatalf("expected -7, got %v", got.Int)
	}
}

func TestConstantNegativeIntSurvivesTextRoundTrip(t *testing.T) {
	h := testTypeHost()

	c := typ.Int(i32Type, big.NewInt(-7))

	n, err := ConstantToNode(c, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	text := Format(nil, n)

	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}

	got, err := ConstantFromNode(parsed, func() (typ.Type, error) { return i32Type, nil }, h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Int.Cmp(big.NewInt(-7)) != 0 {
		t.Fatalf("expected -7, got %v", got.Int)
	}
}

func TestConstantRoundTripsUnsignedInt(t *testing.T) {
	h := testTypeHost()

	c := typ.Int(u8Type, big.NewInt(200))

	n, err := ConstantToNode(c, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if n.Head != "const_uint8" {
		t.Fatalf("expected const_uint8, got %s", n.Head)
	}
}

func TestConstantRoundTripsDefault(t *testing.T) {
	h := testTypeHost()

	c := typ.Default(i32Type)

	n, err := ConstantToNode(c, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := ConstantFromNode(n, func() (typ.Type, error) { return nil, nil }, h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Kind != typ.ConstDefault {
		t.Fatalf("expected ConstDefault, got %v", got.Kind)
	}
}

func TestPrototypeRoundTripsLoad(t *testing.T) {
	h := ProtoHost{TypeHost: testTypeHost()}

	p := proto.Load(i32Type, ptrType)

	n, err := PrototypeToNode(p, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if n.Head != "load" {
		t.Fatalf("expected load, got %s", n.Head)
	}

	got, err := PrototypeFromNode(n, h, func(string, tag.Name) (typ.Type, error) { return nil, nil })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ResultType() != i32Type {
		t.Fatalf("expected result type Int32, got %v", got.ResultType())
	}
}

func TestPrototypeRoundTripsCall(t *testing.T) {
	h := ProtoHost{TypeHost: testTypeHost()}

	method := tag.Name{Pkg: "Widgets", Member: "Draw"}
	p := proto.Call(method, proto.Virtual, []typ.Type{boolType}, i32Type)

	n, err := PrototypeToNode(p, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := PrototypeFromNode(n, h, func(string, tag.Name) (typ.Type, error) { return i32Type, nil })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	gotMethod, lookup, params, result, ok := proto.CallInfo(got)
	if !ok {
		t.Fatalf("expected a call prototype")
	}

	if gotMethod != method || lookup != proto.Virtual || len(params) != 1 || result != i32Type {
		t.Fatalf("unexpected decode: %+v %v %v %v", gotMethod, lookup, params, result)
	}
}

// TestPrototypeRoundTripsIndirectCallWithKnownCalleeType covers the
// "some" branch of the calleeType codec: a calli lowering that resolved
// the callee value's type must have that type survive encode/decode.
func TestPrototypeRoundTripsIndirectCallWithKnownCalleeType(t *testing.T) {
	h := ProtoHost{TypeHost: testTypeHost()}

	p := proto.IndirectCall(ptrType, i32Type, []typ.Type{boolType})

	n, err := PrototypeToNode(p, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := PrototypeFromNode(n, h, func(string, tag.Name) (typ.Type, error) { return nil, nil })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	calleeType, result, params, ok := proto.IndirectCallInfo(got)
	if !ok {
		t.Fatalf("expected an indirect-call prototype")
	}

	if calleeType != ptrType || result != i32Type || len(params) != 1 {
		t.Fatalf("unexpected decode: %v %v %v", calleeType, result, params)
	}
}

// TestPrototypeRoundTripsIndirectCallWithUnknownCalleeType covers the
// "none" branch: a prototype built with no known callee type must
// decode back with a nil ParamType(0), not some zero-value stand-in.
func TestPrototypeRoundTripsIndirectCallWithUnknownCalleeType(t *testing.T) {
	h := ProtoHost{TypeHost: testTypeHost()}

	p := proto.IndirectCall(nil, i32Type, nil)

	n, err := PrototypeToNode(p, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := PrototypeFromNode(n, h, func(string, tag.Name) (typ.Type, error) { return nil, nil })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ParamType(0) != nil {
		t.Fatalf("expected a nil calleeType to survive the round trip, got %v", got.ParamType(0))
	}
}
