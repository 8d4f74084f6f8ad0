package proto

import (
	"math/big"
	"testing"

	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

type fakeType string

func (f fakeType) String() string { return string(f) }

type fakeResolver struct{}

func (fakeResolver) Kind(t typ.Type) typ.Kind {
	switch t {
	case fakeType("ptr"), fakeType("fn"):
		return typ.KindPointer
	case fakeType("int32"):
		return typ.KindInt
	default:
		return typ.KindOther
	}
}

func (fakeResolver) IntWidth(typ.Type) (int, bool)    { return 32, true }
func (fakeResolver) FloatWidth(typ.Type) int           { return 64 }
func (fakeResolver) PointerElem(typ.Type) typ.Type     { return fakeType("int32") }
func (fakeResolver) Equal(a, b typ.Type) bool          { return a == b }

func TestInterningIsStructural(t *testing.T) {
	i32 := fakeType("int32")
	ptr := fakeType("ptr")

	a := Alloca(i32, ptr)
	b := Alloca(i32, ptr)

	if a != b {
		t.Fatalf("two structurally-equal Alloca prototypes were not interned to the same instance")
	}

	c := Alloca(fakeType("int64"), ptr)
	if a == c {
		t.Fatalf("structurally distinct prototypes were interned to the same instance")
	}
}

func TestCopyConformance(t *testing.T) {
	i32 := fakeType("int32")
	r := fakeResolver{}

	p := Copy(i32)

	if errs := p.CheckConformance([]typ.Type{i32}, r); len(errs) != 0 {
		t.Fatalf("expected conformance, got %v", errs)
	}

	if errs := p.CheckConformance([]typ.Type{fakeType("bool")}, r); len(errs) == 0 {
		t.Fatalf("expected a type mismatch error")
	}

	if errs := p.CheckConformance(nil, r); len(errs) == 0 {
		t.Fatalf("expected an arity error")
	}
}

// TestIndirectCallConformance covers the case where the prototype
// carries no calleeType (the translator didn't know the callee's type),
// falling back to a structural Kind check.
func TestIndirectCallConformance(t *testing.T) {
	r := fakeResolver{}
	i32 := fakeType("int32")
	fn := fakeType("fn")

	p := IndirectCall(nil, i32, []typ.Type{i32})

	if errs := p.CheckConformance([]typ.Type{fn, i32}, r); len(errs) != 0 {
		t.Fatalf("expected conformance, got %v", errs)
	}

	if errs := p.CheckConformance([]typ.Type{i32, i32}, r); len(errs) == 0 {
		t.Fatalf("expected callee kind mismatch error")
	}
}

// TestIndirectCallConformanceWithKnownCalleeType covers the case where
// the prototype does carry a calleeType (the translator resolved the
// callee value's type at calli-lowering time): ParamType(0) must return
// it, and CheckConformance must check the callee against it exactly
// rather than falling back to the Kind-based check.
func TestIndirectCallConformanceWithKnownCalleeType(t *testing.T) {
	r := fakeResolver{}
	i32 := fakeType("int32")
	fn := fakeType("fn")
	otherFn := fakeType("otherfn")

	p := IndirectCall(fn, i32, []typ.Type{i32})

	if got := p.ParamType(0); got != fn {
		t.Fatalf("ParamType(0) = %v, want %v", got, fn)
	}

	if errs := p.CheckConformance([]typ.Type{fn, i32}, r); len(errs) != 0 {
		t.Fatalf("expected conformance, got %v", errs)
	}

	if errs := p.CheckConformance([]typ.Type{otherFn, i32}, r); len(errs) == 0 {
		t.Fatalf("expected a callee type mismatch error against the known calleeType")
	}
}

func TestMapReinternsWithSubstitutedTypes(t *testing.T) {
	i32 := fakeType("int32")
	i64 := fakeType("int64")
	ptr32 := fakeType("ptr32")
	ptr64 := fakeType("ptr64")

	p := Alloca(i32, ptr32)

	mapper := typ.MapperFunc(func(t typ.Type) typ.Type {
		switch t {
		case i32:
			return i64
		case ptr32:
			return ptr64
		default:
			return t
		}
	})

	q := p.Map(mapper)

	if q.ResultType() != ptr64 {
		t.Fatalf("Map did not substitute result type: got %v", q.ResultType())
	}

	q2 := Alloca(i64, ptr64)
	if q != q2 {
		t.Fatalf("mapped prototype was not re-interned to the canonical instance")
	}
}

func TestConstResultType(t *testing.T) {
	i32 := fakeType("int32")
	c := typ.Int(i32, big.NewInt(7))

	p := Const(c)
	if p.ResultType() != i32 {
		t.Fatalf("Const.ResultType() = %v, want %v", p.ResultType(), i32)
	}
}

func TestDelegateInfoRoundTrips(t *testing.T) {
	dt := fakeType("delegate")
	callee := tag.Name{Pkg: "pkg", Member: "Method"}

	p := NewDelegate(dt, callee, true, Virtual, fakeType("obj"))

	gotDT, gotCallee, gotHasThis, gotLookup, ok := DelegateInfo(p)
	if !ok {
		t.Fatalf("DelegateInfo failed to recognize a NewDelegate prototype")
	}

	if gotDT != dt || gotCallee != callee || !gotHasThis || gotLookup != Virtual {
		t.Fatalf("DelegateInfo returned wrong fields: %v %v %v %v", gotDT, gotCallee, gotHasThis, gotLookup)
	}
}
