// Package proto implements instruction prototypes: immutable, structurally
// interned descriptors of an operation's shape, independent of the value
// arguments any particular instance binds to it.
package proto

import (
	"fmt"
	"strings"
	"sync"

	"github.com/emberlang/ember/typ"
)

// ExceptionSpec classifies whether an operation can throw.
type ExceptionSpec int

const (
	NoThrow ExceptionSpec = iota
	MayThrow
)

// LookupKind distinguishes static and virtual method dispatch.
type LookupKind int

const (
	Static LookupKind = iota
	Virtual
)

func (k LookupKind) String() string {
	if k == Virtual {
		return "virtual"
	}

	return "static"
}

// Prototype is an interned, immutable description of an operation: its
// opcode and every non-value parameter. Two prototypes built from equal
// components are reference-identical (see intern, below).
type Prototype interface {
	// ResultType is the type of the value an instance of this prototype
	// produces.
	ResultType() typ.Type

	// Arity is the number of value arguments an instance must supply.
	Arity() int

	// ParamType is the declared type of the i'th value argument.
	ParamType(i int) typ.Type

	Exception() ExceptionSpec

	// CheckConformance reports, for a concrete instance whose arguments
	// have the given types (as resolved in the enclosing body), every
	// way the instance fails to conform to this prototype. An empty
	// result means the instance conforms.
	CheckConformance(args []typ.Type, r typ.Resolver) []string

	// Map returns a new, re-interned prototype with every Type
	// substituted through m.
	Map(m typ.Mapper) Prototype
}

var (
	internMu    sync.RWMutex
	internTable = map[string]Prototype{}
)

// intern returns the canonical instance for a structurally-equal
// prototype, building it with build only on the first lookup. Safe for
// concurrent lookup-or-insert from multiple compile-driver workers.
func intern(key string, build func() Prototype) Prototype {
	internMu.RLock()
	if p, ok := internTable[key]; ok {
		internMu.RUnlock()
		return p
	}
	internMu.RUnlock()

	internMu.Lock()
	defer internMu.Unlock()

	if p, ok := internTable[key]; ok {
		return p
	}

	p := build()
	internTable[key] = p

	return p
}

func typeKey(t typ.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

func typesKey(ts []typ.Type) string {
	var b strings.Builder

	for i, t := range ts {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(typeKey(t))
	}

	return b.String()
}

func checkArity(args []typ.Type, want int) []string {
	if len(args) != want {
		return []string{fmt.Sprintf("expected %d arguments, got %d", want, len(args))}
	}

	return nil
}

func checkParamTypes(p Prototype, args []typ.Type, r typ.Resolver) []string {
	var errs []string

	for i, a := range args {
		want := p.ParamType(i)

		if want == nil {
			continue
		}

		if a == nil || !r.Equal(want, a) {
			errs = append(errs, fmt.Sprintf("argument %d: expected %s, got %s", i, typeKey(want), typeKey(a)))
		}
	}

	return errs
}
