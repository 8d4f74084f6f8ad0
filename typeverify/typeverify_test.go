package typeverify

import (
	"testing"

	"github.com/emberlang/ember/diag"
)

type fakeType string

func (f fakeType) String() string { return string(f) }

func TestVerifyCleanDeclarationEmitsNothing(t *testing.T) {
	sink := diag.NewSink(diag.Config{})

	d := Decl{
		Name:  "Widget",
		Bases: []Base{{Name: "IWidget", Kind: BaseInterface, Members: []Member{{Name: "Draw", Abstract: true}}}},
		Members: []Member{
			{Name: "Draw"},
		},
	}

	if err := Verify(d, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.ErrorCount() != 0 {
		t.Fatalf("expected no diagnostics, got %d", sink.ErrorCount())
	}
}

func TestVerifyCatchesEnumBackedByNonPrimitive(t *testing.T) {
	sink := diag.NewSink(diag.Config{})

	d := Decl{
		Name:                   "Status",
		IsEnum:                 true,
		EnumBackingIsPrimitive: false,
		EnumBacking:            fakeType("Widget"),
	}

	if err := Verify(d, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", sink.ErrorCount())
	}
}

func TestVerifyCatchesNonAbstractBaseType(t *testing.T) {
	sink := diag.NewSink(diag.Config{})

	d := Decl{
		Name:  "Derived",
		Bases: []Base{{Name: "Concrete", Kind: BaseClass}},
	}

	if err := Verify(d, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", sink.ErrorCount())
	}
}

func TestVerifyCatchesUnimplementedAbstractMember(t *testing.T) {
	sink := diag.NewSink(diag.Config{})

	d := Decl{
		Name: "Shape",
		Bases: []Base{{
			Name: "AbstractShape",
			Kind: BaseAbstractClass,
			Members: []Member{
				{Name: "Area", Abstract: true},
				{Name: "Perimeter", Abstract: true},
			},
		}},
		Members: []Member{{Name: "Area"}},
	}

	if err := Verify(d, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected exactly 1 diagnostic (Perimeter unimplemented), got %d", sink.ErrorCount())
	}
}

func TestVerifyAbortsEarlyUnderFatalErrors(t *testing.T) {
	sink := diag.NewSink(diag.Config{WfatalErrors: true})

	d := Decl{
		Name: "Bad",
		Bases: []Base{
			{Name: "AlsoBad", Kind: BaseClass},
			{Name: "StillBad", Kind: BaseClass},
		},
	}

	err := Verify(d, sink)
	if err == nil {
		t.Fatalf("expected AbortCompilation from the first fatal diagnostic")
	}

	if _, ok := err.(diag.AbortCompilation); !ok {
		t.Fatalf("expected diag.AbortCompilation, got %T", err)
	}

	if sink.ErrorCount() != 1 {
		t.Fatalf("expected the walk to stop after the first error, got %d diagnostics", sink.ErrorCount())
	}
}
