// Package typeverify implements spec §4.7's member-level type verifier:
// run once per declared type, after the mid-end has already built and
// validated every method body, it walks a type's own members and then
// its base types, reporting shape violations a method-body-level
// validator never sees.
//
// It depends only on typ (for Resolver.Kind, to classify an enum's
// backing type) and diag (the diagnostic sink), never on flow/instr —
// the mid-end's IR is irrelevant at this level; only declarations are.
package typeverify

import (
	"fmt"

	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/typ"
)

// BaseKind classifies a type's relationship to one of its declared base
// types.
type BaseKind int

const (
	// BaseClass is an ordinary, non-abstract base class — never valid.
	BaseClass BaseKind = iota
	BaseAbstractClass
	BaseInterface
)

// Member is one declared field, method, or property.
type Member struct {
	Name string

	// Abstract means a base declares this member with no body, requiring
	// every concrete descendant to supply one.
	Abstract bool
}

// Base is one of a type's declared base types (its superclass, plus any
// interfaces it implements).
type Base struct {
	Name string
	Kind BaseKind

	// Members lists this base's abstract members, the ones descendants
	// must implement.
	Members []Member
}

// Decl is the member-level declaration of a type, the input to Verify.
type Decl struct {
	Name string

	// IsEnum means this type is an enum; EnumBacking names its backing
	// type and EnumBackingIsPrimitive says whether the host's type
	// system classifies it as a primitive value type.
	IsEnum                 bool
	EnumBackingIsPrimitive bool
	EnumBacking            typ.Type

	Bases []Base

	// Members are this type's own declared members, including the
	// bodies it supplies for any abstract base member.
	Members []Member
}

// Verify walks d's own declaration and its base types, emitting a
// diagnostic to sink for each of the three violations spec §4.7 names.
// It returns the first error Emit reports (an AbortCompilation, under
// the sink's Config), stopping the walk early the same way a driver
// loop over many types would want to.
func Verify(d Decl, sink *diag.Sink) error {
	if d.IsEnum && !d.EnumBackingIsPrimitive {
		backing := "<unknown>"
		if d.EnumBacking != nil {
			backing = d.EnumBacking.String()
		}

		if err := sink.Emit(diag.Diagnostic{
			Severity: diag.Error,
			Title:    "enum backed by non-primitive type",
			Message:  fmt.Sprintf("%s is backed by %s, which is not a primitive value type", d.Name, backing),
		}); err != nil {
			return err
		}
	}

	implemented := make(map[string]bool, len(d.Members))
	for _, m := range d.Members {
		implemented[m.Name] = true
	}

	for _, base := range d.Bases {
		if base.Kind != BaseAbstractClass && base.Kind != BaseInterface {
			if err := sink.Emit(diag.Diagnostic{
				Severity: diag.Error,
				Title:    "base type must be abstract or an interface",
				Message:  fmt.Sprintf("%s declares %s as a base, but %s is a non-abstract, non-interface type", d.Name, base.Name, base.Name),
			}); err != nil {
				return err
			}

			continue
		}

		for _, m := range base.Members {
			if !m.Abstract || implemented[m.Name] {
				continue
			}

			if err := sink.Emit(diag.Diagnostic{
				Severity: diag.Error,
				Title:    "unimplemented abstract member",
				Message:  fmt.Sprintf("%s does not implement %s, abstract in base %s", d.Name, m.Name, base.Name),
			}); err != nil {
				return err
			}
		}
	}

	return nil
}
