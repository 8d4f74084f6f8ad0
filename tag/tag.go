// Package tag defines the opaque identity tokens blocks and values are
// named by. A tag compares by identity, never by its display name.
package tag

import (
	"fmt"
	"sync/atomic"

	"tlog.app/go/tlog/tlwire"
)

var counter atomic.Int64

func next() int64 {
	return counter.Add(1)
}

type (
	// Block is the identity of a basic block. The zero Block is invalid.
	Block struct {
		id   int64
		hint string
	}

	// Value is the identity of a value: a block parameter or an
	// instruction result. The zero Value is invalid.
	Value struct {
		id   int64
		hint string
	}
)

// NewBlock allocates a fresh block tag. hint is for humans only.
func NewBlock(hint string) Block {
	return Block{id: next(), hint: hint}
}

// NewValue allocates a fresh value tag. hint is for humans only.
func NewValue(hint string) Value {
	return Value{id: next(), hint: hint}
}

func (t Block) String() string {
	if t.hint == "" {
		return fmt.Sprintf("b%d", t.id)
	}

	return fmt.Sprintf("b%d(%s)", t.id, t.hint)
}

func (t Value) String() string {
	if t.hint == "" {
		return fmt.Sprintf("v%d", t.id)
	}

	return fmt.Sprintf("v%d(%s)", t.id, t.hint)
}

// IsZero reports whether the tag was never allocated.
func (t Block) IsZero() bool { return t.id == 0 }
func (t Value) IsZero() bool { return t.id == 0 }

func (t Block) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if t.IsZero() {
		return e.AppendNil(b)
	}

	return e.AppendFormat(b, "%s", t.String())
}

func (t Value) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if t.IsZero() {
		return e.AppendNil(b)
	}

	return e.AppendFormat(b, "%s", t.String())
}

// Name is a qualified name: a package path plus a member name, used by
// method/field references in the on-disk format and by diagnostics.
type Name struct {
	Pkg    string
	Member string
}

func (n Name) String() string {
	if n.Pkg == "" {
		return n.Member
	}

	return n.Pkg + "." + n.Member
}
