package flow

import (
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
)

// ReturnHandler is called once per Return flow copied out of a callee
// graph during Include. It receives the copied Return (already remapped
// to host tags) and the host block that now ends in it, and returns the
// flow that should replace the Return.
type ReturnHandler func(ret instr.Return, enclosingBlock tag.Block) instr.Flow

// Include copies every block of callee into host under fresh tags,
// rewrites every instruction argument and branch target through the
// remap, routes every copied Return through handler, and — when
// exceptionBranch is non-nil — wraps every copied instruction that may
// throw and isn't already the Inner of an explicit Try with a Try flow
// branching to exceptionBranch on failure. It returns the new host
// graph and the remapped entry-point tag.
func Include(host Graph, callee Graph, handler ReturnHandler, exceptionBranch *instr.Branch) (Graph, tag.Block) {
	b := NewBuilder(host)
	entry := IncludeInto(b, callee, handler, exceptionBranch)

	return b.ToImmutable(), entry
}

// IncludeInto is the Builder-driven form of Include, for callers already
// threading a Builder through a larger rewrite (replace.go uses this).
func IncludeInto(b *Builder, callee Graph, handler ReturnHandler, exceptionBranch *instr.Branch) tag.Block {
	blockRemap := map[tag.Block]tag.Block{}
	valueRemap := map[tag.Value]tag.Value{}

	for _, c := range callee.AllBlocks() {
		cb, _ := callee.Block(c)

		params := make([]Param, len(cb.Params))
		for i, p := range cb.Params {
			nv := tag.NewValue("included")
			params[i] = Param{Tag: nv, Type: p.Type}
			valueRemap[p.Tag] = nv
		}

		blockRemap[c] = b.AddBlock("included", params, instr.Unreachable{})
	}

	for _, c := range callee.AllBlocks() {
		cb, _ := callee.Block(c)
		current := blockRemap[c]

		var tryInner tag.Value
		if t, ok := cb.Flow.(instr.Try); ok {
			tryInner = t.Inner
		}

		for _, v := range cb.Code {
			ci, _ := callee.Instruction(v)
			t, _ := callee.GetValueType(v)

			remapped := remapInstructionArgs(ci, valueRemap)
			sel := b.InsertInstruction(current, len(mustBlockCode(b, current)), remapped, t, "included")
			valueRemap[v] = sel.Value

			if exceptionBranch != nil && v != tryInner && remapped.Proto.Exception() == proto.MayThrow {
				next := b.AddBlock("included_cont", nil, instr.Unreachable{})
				b.UpdateBlockFlow(current, instr.Try{
					Inner:     sel.Value,
					Success:   instr.Branch{Target: next},
					Exception: *exceptionBranch,
				})
				current = next
			}
		}

		fl := remapFlow(cb.Flow, blockRemap, valueRemap)

		if ret, ok := fl.(instr.Return); ok && handler != nil {
			fl = handler(ret, current)
		}

		b.UpdateBlockFlow(current, fl)
	}

	return blockRemap[callee.EntryPoint()]
}

func mustBlockCode(b *Builder, t tag.Block) []tag.Value {
	bb, _ := b.Current().Block(t)
	return bb.Code
}

func remapInstructionArgs(i instr.Instruction, remap map[tag.Value]tag.Value) instr.Instruction {
	args := make([]tag.Value, len(i.Args))
	for idx, a := range i.Args {
		args[idx] = remapValue(a, remap)
	}

	return instr.New(i.Proto, args...)
}

func remapValue(v tag.Value, remap map[tag.Value]tag.Value) tag.Value {
	if v.IsZero() {
		return v
	}

	if nv, ok := remap[v]; ok {
		return nv
	}

	return v
}

func remapBranch(br instr.Branch, blockRemap map[tag.Block]tag.Block, valueRemap map[tag.Value]tag.Value) instr.Branch {
	args := make([]instr.BranchArg, len(br.Args))

	for i, a := range br.Args {
		switch a.Kind {
		case instr.ArgTryResult:
			args[i] = instr.TryResult()
		case instr.ArgTryException:
			args[i] = instr.TryException()
		default:
			args[i] = instr.Value(remapValue(a.Value, valueRemap))
		}
	}

	target := br.Target
	if nt, ok := blockRemap[br.Target]; ok {
		target = nt
	}

	return instr.Branch{Target: target, Args: args}
}

func remapFlow(fl instr.Flow, blockRemap map[tag.Block]tag.Block, valueRemap map[tag.Value]tag.Value) instr.Flow {
	switch f := fl.(type) {
	case instr.Jump:
		return instr.Jump{To: remapBranch(f.To, blockRemap, valueRemap)}
	case instr.Return:
		return instr.Return{Value: remapValue(f.Value, valueRemap)}
	case instr.Switch:
		cases := make([]instr.Case, len(f.Cases))
		for i, c := range f.Cases {
			cases[i] = instr.Case{Values: c.Values, Branch: remapBranch(c.Branch, blockRemap, valueRemap)}
		}

		return instr.Switch{
			Value:   remapValue(f.Value, valueRemap),
			Cases:   cases,
			Default: remapBranch(f.Default, blockRemap, valueRemap),
		}
	case instr.Try:
		return instr.Try{
			Inner:     remapValue(f.Inner, valueRemap),
			Success:   remapBranch(f.Success, blockRemap, valueRemap),
			Exception: remapBranch(f.Exception, blockRemap, valueRemap),
		}
	default:
		return instr.Unreachable{}
	}
}
