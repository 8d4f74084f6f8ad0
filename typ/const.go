package typ

import (
	"fmt"
	"math/big"

	"tlog.app/go/tlog/tlwire"
)

// ConstKind discriminates the Constant variants.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat32
	ConstFloat64
	ConstBool
	ConstChar
	ConstString
	ConstNull
	ConstDefault
)

// Constant is a tagged-variant literal value. Only the fields relevant
// to Kind are meaningful; the rest are zero.
type Constant struct {
	Kind ConstKind
	Type Type

	Int      *big.Int // ConstInt: arbitrary width + sign
	Float32  float32
	Float64  float64
	Bool     bool
	Char     rune
	Str      string
}

func Int(t Type, v *big.Int) Constant {
	return Constant{Kind: ConstInt, Type: t, Int: v}
}

func Float32Const(t Type, v float32) Constant {
	return Constant{Kind: ConstFloat32, Type: t, Float32: v}
}

func Float64Const(t Type, v float64) Constant {
	return Constant{Kind: ConstFloat64, Type: t, Float64: v}
}

func BoolConst(t Type, v bool) Constant {
	return Constant{Kind: ConstBool, Type: t, Bool: v}
}

func CharConst(t Type, v rune) Constant {
	return Constant{Kind: ConstChar, Type: t, Char: v}
}

func StringConst(t Type, v string) Constant {
	return Constant{Kind: ConstString, Type: t, Str: v}
}

func Null(t Type) Constant {
	return Constant{Kind: ConstNull, Type: t}
}

func Default(t Type) Constant {
	return Constant{Kind: ConstDefault, Type: t}
}

// Equal reports whether two constants carry the same kind, type, and value.
func (c Constant) Equal(r Resolver, o Constant) bool {
	if c.Kind != o.Kind {
		return false
	}

	if (c.Type == nil) != (o.Type == nil) {
		return false
	}

	if c.Type != nil && !r.Equal(c.Type, o.Type) {
		return false
	}

	switch c.Kind {
	case ConstInt:
		if c.Int == nil || o.Int == nil {
			return c.Int == o.Int
		}

		return c.Int.Cmp(o.Int) == 0
	case ConstFloat32:
		return c.Float32 == o.Float32
	case ConstFloat64:
		return c.Float64 == o.Float64
	case ConstBool:
		return c.Bool == o.Bool
	case ConstChar:
		return c.Char == o.Char
	case ConstString:
		return c.Str == o.Str
	case ConstNull, ConstDefault:
		return true
	default:
		return false
	}
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%v", c.Int)
	case ConstFloat32:
		return fmt.Sprintf("%v", c.Float32)
	case ConstFloat64:
		return fmt.Sprintf("%v", c.Float64)
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstChar:
		return fmt.Sprintf("%q", c.Char)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstNull:
		return "null"
	case ConstDefault:
		return "default"
	default:
		return "?const"
	}
}

func (c Constant) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%s", c.String())
}
