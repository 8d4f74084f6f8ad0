package flow

import (
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"

	"tlog.app/go/errors"
)

// ReplaceInstruction splices instanceGraph in place of v, an existing
// flow-level instruction in host, binding arguments to instanceGraph's
// entry-block parameters.
//
// If instanceGraph's entry block ends in a single Return, its body is
// spliced directly into v's owning block and v's instruction becomes a
// copy of the (remapped) return value — no new blocks are needed since
// control never leaves the block.
//
// Otherwise a continuation block is created, carrying a parameter typed
// like v's result; everything after v in its owning block (the rest of
// the block's code and its terminating flow) moves into the
// continuation, with every reference to v rewritten to the
// continuation's parameter; instanceGraph is included into host with
// its Returns routed into the continuation; and v's owning block's flow
// becomes a Jump into the included entry, passing arguments.
func ReplaceInstruction(host Graph, v tag.Value, instanceGraph Graph, arguments []tag.Value) (Graph, error) {
	sel, ok := Select(host, v)
	if !ok {
		return host, errors.New("replace instruction: %v is not a flow-level instruction in this graph", v)
	}

	resultType, _ := host.GetValueType(v)
	entryBlock, ok := instanceGraph.Block(instanceGraph.EntryPoint())

	if !ok {
		return host, errors.New("replace instruction: instance graph has no entry point")
	}

	if len(arguments) != len(entryBlock.Params) {
		return host, errors.New("replace instruction: %d arguments for %d entry params", len(arguments), len(entryBlock.Params))
	}

	if ret, single := entryBlock.Flow.(instr.Return); single {
		return inlineFlat(host, sel, entryBlock, ret, resultType, instanceGraph, arguments), nil
	}

	return inlineWithContinuation(host, sel, resultType, instanceGraph, arguments), nil
}

func inlineFlat(host Graph, sel SelectedInstruction, entryBlock BasicBlock, ret instr.Return, resultType typ.Type, instanceGraph Graph, arguments []tag.Value) Graph {
	b := NewBuilder(host)

	remap := map[tag.Value]tag.Value{}
	for i, p := range entryBlock.Params {
		if i < len(arguments) {
			remap[p.Tag] = arguments[i]
		}
	}

	insertAt := sel.Index()

	for _, cv := range entryBlock.Code {
		ci, _ := instanceGraph.Instruction(cv)
		t, _ := instanceGraph.GetValueType(cv)

		remapped := remapInstructionArgs(ci, remap)
		newSel := b.InsertInstruction(sel.Block, insertAt, remapped, t, "inlined")
		remap[cv] = newSel.Value
		insertAt++
	}

	retVal := remapValue(ret.Value, remap)
	b.ReplaceInstruction(sel.Value, instr.New(proto.Copy(resultType), retVal))

	return b.ToImmutable()
}

func inlineWithContinuation(host Graph, sel SelectedInstruction, resultType typ.Type, instanceGraph Graph, arguments []tag.Value) Graph {
	bb, _ := host.Block(sel.Block)
	suffix := append([]tag.Value{}, bb.Code[sel.Index()+1:]...)
	originalFlow := bb.Flow

	contParam := tag.NewValue("replace_result")
	subst := map[tag.Value]tag.Value{sel.Value: contParam}

	b := NewBuilder(host)

	contTag := b.AddBlock("replace_cont", []Param{{Tag: contParam, Type: resultType}}, instr.Unreachable{})

	for _, cv := range suffix {
		ci, _ := b.Current().Instruction(cv)
		t, _ := b.Current().GetValueType(cv)

		substituted := remapInstructionArgs(ci, subst)
		b.RemoveInstruction(cv)

		newSel := b.InsertInstruction(contTag, len(mustBlockCode(b, contTag)), substituted, t, "relocated")
		subst[cv] = newSel.Value
	}

	b.RemoveInstruction(sel.Value)
	b.UpdateBlockFlow(contTag, remapFlow(originalFlow, map[tag.Block]tag.Block{}, subst))

	entry := IncludeInto(b, instanceGraph, func(ret instr.Return, _ tag.Block) instr.Flow {
		var args []instr.BranchArg
		if !ret.Value.IsZero() {
			args = []instr.BranchArg{instr.Value(ret.Value)}
		}

		return instr.Jump{To: instr.Branch{Target: contTag, Args: args}}
	}, nil)

	args := make([]instr.BranchArg, len(arguments))
	for i, a := range arguments {
		args[i] = instr.Value(a)
	}

	b.UpdateBlockFlow(sel.Block, instr.Jump{To: instr.Branch{Target: entry, Args: args}})

	return b.ToImmutable()
}
