package sexpr

import (
	"math/big"
	"strconv"

	"tlog.app/go/errors"

	"github.com/emberlang/ember/typ"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse float atom %q", s)
	}

	return f, nil
}

// TypeHost bridges a TypeRef to and from the live typ.Type the rest of
// the compiler works with. typ.Resolver only answers structural
// questions about a Type it is already given — it cannot turn a name
// back into one — so, like cil.Slot's PointerType, the loader supplies
// both directions explicitly.
type TypeHost struct {
	Resolver typ.Resolver
	ToRef    func(t typ.Type) (TypeRef, error)
	FromRef  func(t TypeRef) (typ.Type, error)
}

// The reserved #const_* heads for the non-integer typ.ConstKinds.
// Integer heads carry the width/signedness split spec §6.1 draws, which
// typ.Constant itself leaves to the type's Resolver query; intHead and
// bitHead name them.
const (
	headConstBool    = "const_bool"
	headConstChar    = "const_char"
	headConstString  = "const_string"
	headConstNull    = "const_null"
	headConstDefault = "const_default"
	headConstFloat32 = "const_float32"
	headConstFloat64 = "const_float64"
)

func intHead(bits int, signed bool) string {
	switch {
	case signed:
		switch bits {
		case 8:
			return "const_int8"
		case 16:
			return "const_int16"
		case 32:
			return "const_int32"
		default:
			return "const_int64"
		}
	default:
		switch bits {
		case 8:
			return "const_uint8"
		case 16:
			return "const_uint16"
		case 32:
			return "const_uint32"
		default:
			return "const_uint64"
		}
	}
}

// bitHead names the raw-bit-pattern flavor used for integer literals
// whose type the resolver doesn't classify as KindInt — an
// enum-backed or bitfield type carrying its value as plain bits rather
// than a signed/unsigned magnitude.
func bitHead(bits int) string {
	switch bits {
	case 8:
		return "const_bit8"
	case 16:
		return "const_bit16"
	case 32:
		return "const_bit32"
	default:
		return "const_bit64"
	}
}

// ConstantToNode renders c as its on-disk Node form. h.Resolver
// classifies c.Type to pick the width-qualified head; h.ToRef encodes
// the type operand of #const_default.
func ConstantToNode(c typ.Constant, h TypeHost) (Node, error) {
	switch c.Kind {
	case typ.ConstInt:
		bits, signed := h.Resolver.IntWidth(c.Type)
		if h.Resolver.Kind(c.Type) != typ.KindInt {
			return Hash(bitHead(bits), Ident(c.Int.String())), nil
		}

		return Hash(intHead(bits, signed), Ident(c.Int.String())), nil

	case typ.ConstFloat32:
		return Hash(headConstFloat32, Ident(formatFloat(float64(c.Float32)))), nil

	case typ.ConstFloat64:
		return Hash(headConstFloat64, Ident(formatFloat(c.Float64))), nil

	case typ.ConstBool:
		return Hash(headConstBool, boolIdent(c.Bool)), nil

	case typ.ConstChar:
		return Hash(headConstChar, Str(string(c.Char))), nil

	case typ.ConstString:
		return Hash(headConstString, Str(c.Str)), nil

	case typ.ConstNull:
		return Hash(headConstNull), nil

	case typ.ConstDefault:
		ref, err := h.ToRef(c.Type)
		if err != nil {
			return Node{}, errors.Wrap(err, "const_default type")
		}

		return Hash(headConstDefault, ToNode(ref)), nil

	default:
		return Node{}, errors.New("sexpr: unrecognized constant kind %d", c.Kind)
	}
}

// ConstantFromNode is ConstantToNode's inverse. The caller supplies,
// via typeOf, the already-resolved Type for every constant except
// #const_default, whose type operand is decoded through h.FromRef — the
// head alone fixes width and signedness, but the module-specific Type
// handle can only come from the loader's symbol table.
func ConstantFromNode(n Node, typeOf func() (typ.Type, error), h TypeHost) (typ.Constant, error) {
	if n.IsAtom() {
		return typ.Constant{}, errors.New("sexpr: expected a #const_* expression, got an atom %q", n.Str)
	}

	switch n.Head {
	case headConstBool:
		v, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		b, err := v.AsBool()
		if err != nil {
			return typ.Constant{}, errors.Wrap(err, "const_bool")
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.BoolConst(t, b), nil

	case headConstChar:
		v, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		r := []rune(v.Str)
		if len(r) != 1 {
			return typ.Constant{}, errors.New("sexpr: const_char expects exactly one rune, got %q", v.Str)
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.CharConst(t, r[0]), nil

	case headConstString:
		v, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.StringConst(t, v.Str), nil

	case headConstNull:
		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.Null(t), nil

	case headConstDefault:
		refNode, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		ref, err := TypeRefFromNode(refNode)
		if err != nil {
			return typ.Constant{}, err
		}

		t, err := h.FromRef(ref)
		if err != nil {
			return typ.Constant{}, errors.Wrap(err, "const_default type")
		}

		return typ.Default(t), nil

	case headConstFloat32:
		v, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		f, err := parseFloat(v.Str)
		if err != nil {
			return typ.Constant{}, err
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.Float32Const(t, float32(f)), nil

	case headConstFloat64:
		v, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		f, err := parseFloat(v.Str)
		if err != nil {
			return typ.Constant{}, err
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.Float64Const(t, f), nil

	default:
		v, ok := bigIntFromHead(n)
		if !ok {
			return typ.Constant{}, errors.New("sexpr: %q is not a recognized constant head", n.Head)
		}

		arg, err := n.Arg(0)
		if err != nil {
			return typ.Constant{}, err
		}

		if _, ok := v.SetString(arg.Str, 10); !ok {
			return typ.Constant{}, errors.New("sexpr: %s: not an integer literal: %q", n.Head, arg.Str)
		}

		t, err := typeOf()
		if err != nil {
			return typ.Constant{}, err
		}

		return typ.Int(t, v), nil
	}
}

func bigIntFromHead(n Node) (*big.Int, bool) {
	switch n.Head {
	case "const_int8", "const_int16", "const_int32", "const_int64",
		"const_uint8", "const_uint16", "const_uint32", "const_uint64",
		"const_bit8", "const_bit16", "const_bit32", "const_bit64":
		return new(big.Int), true
	default:
		return nil, false
	}
}
