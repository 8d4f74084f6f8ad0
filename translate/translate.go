// Package translate lowers a cil.MethodBody into an IR flow.Graph: one
// basic block per branch-target region, with SSA-like block parameters
// standing in for the operand-stack contents flowing across each edge.
//
// Grounded on back/back6.go's worklist compiler pass: pending work is a
// heap.Heap of jobs rather than a naive recursive walk, the same shape
// back6.go uses to schedule its own merge-point processing.
package translate

import (
	"context"
	"fmt"

	"github.com/emberlang/ember/cil"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Config supplies the elementary host types the translator needs but
// cannot derive from typ.Resolver's structural queries alone.
type Config struct {
	Resolver typ.Resolver
	BoolType typ.Type
	VoidType typ.Type
}

// job is one pending block analysis: the first CIL instruction of the
// block and the operand-stack types flowing in across the edge that
// discovered it.
type job struct {
	seq   int
	instr *cil.Instruction
	stack []typ.Type
}

type translator struct {
	cfg     Config
	body    cil.MethodBody
	builder *flow.Builder

	blockFor map[*cil.Instruction]tag.Block

	analyzed        map[tag.Block]bool
	blockStackTypes map[tag.Block][]typ.Type

	paramSlots     []tag.Value
	paramElemType  []typ.Type
	paramPtrType   []typ.Type
	localSlots     []tag.Value
	localElemType  []typ.Type
	localPtrType   []typ.Type

	worklist heap.Heap[job]
	seq      int
}

// Translate runs the full branch-target analysis, entry synthesis, and
// block analysis described by spec §4.5, returning the resulting graph.
func Translate(ctx context.Context, body cil.MethodBody, cfg Config) (_ flow.Graph, err error) {
	tr0, _ := tlog.SpawnFromContextAndWrap(ctx, "translate: lower method body", "params", len(body.Params), "locals", len(body.Locals))
	defer tr0.Finish("err", &err)

	if body.Entry == nil {
		return flow.Graph{}, errors.New("translate: method body has no entry instruction")
	}

	tr := &translator{
		cfg:             cfg,
		body:            body,
		builder:         flow.NewBuilder(flow.New()),
		blockFor:        map[*cil.Instruction]tag.Block{},
		analyzed:        map[tag.Block]bool{},
		blockStackTypes: map[tag.Block][]typ.Type{},
		worklist:        heap.Heap[job]{Less: func(d []job, i, j int) bool { return d[i].seq < d[j].seq }},
	}

	firstReal := body.Entry

	for _, target := range collectBlockTargets(firstReal) {
		blk := tr.builder.AddBlock("block", nil, instr.Unreachable{})
		tr.blockFor[target] = blk
	}

	entry := tr.synthesizeEntry()
	tr.builder.WithEntryPoint(entry)

	tr.builder.Block(entry).SetFlow(instr.Jump{To: instr.Branch{Target: tr.blockFor[firstReal]}})

	tr.pushJob(firstReal, nil)

	for tr.worklist.Len() > 0 {
		j := tr.worklist.Pop()

		tr0.V("job").Printw("analyze block", "instr", j.instr, "stack", j.stack, "more", tr.worklist.Len())

		if err := tr.analyzeBlock(j.instr, j.stack); err != nil {
			return flow.Graph{}, err
		}
	}

	return tr.builder.ToImmutable(), nil
}

// collectBlockTargets performs spec §4.5 step 1: every branch operand,
// every instruction immediately following a terminator, and the body's
// first instruction, in first-discovery order (entry first).
func collectBlockTargets(entry *cil.Instruction) []*cil.Instruction {
	var targets []*cil.Instruction

	seen := map[*cil.Instruction]bool{}

	add := func(i *cil.Instruction) {
		if i == nil || seen[i] {
			return
		}

		seen[i] = true
		targets = append(targets, i)
	}

	add(entry)

	for cur := entry; cur != nil; cur = cur.Next {
		if cur.Opcode.IsBranch() {
			add(cur.Target)
		}

		if cur.Opcode.IsTerminator() {
			add(cur.Next)
		}
	}

	return targets
}

// synthesizeEntry builds the method's true entry block (spec §4.5 step
// 2): one Alloca+Store per extended parameter (this, if present,
// prepended), one bare Alloca per local, recording every slot's pointer
// tag and types for ldarg/ldloc/stloc to reference later.
func (tr *translator) synthesizeEntry() tag.Block {
	extended := make([]cil.Slot, 0, len(tr.body.Params)+1)
	paramValues := make([]flow.Param, 0, len(tr.body.Params)+1)

	if tr.body.HasThis {
		v := tag.NewValue("this")
		extended = append(extended, tr.body.This)
		paramValues = append(paramValues, flow.Param{Tag: v, Type: tr.body.This.Type})
	}

	for _, p := range tr.body.Params {
		v := tag.NewValue("arg")
		extended = append(extended, p)
		paramValues = append(paramValues, flow.Param{Tag: v, Type: p.Type})
	}

	entry := tr.builder.AddBlock("entry", paramValues, instr.Unreachable{})
	eb := tr.builder.Block(entry)

	tr.paramSlots = make([]tag.Value, len(extended))
	tr.paramElemType = make([]typ.Type, len(extended))
	tr.paramPtrType = make([]typ.Type, len(extended))

	for i, slot := range extended {
		ptr := eb.Append(instr.New(proto.Alloca(slot.Type, slot.PointerType)), slot.PointerType, "slot")
		eb.Append(instr.New(proto.Store(slot.Type, slot.PointerType, tr.cfg.VoidType), ptr.Tag, paramValues[i].Tag), tr.cfg.VoidType, "init")

		tr.paramSlots[i] = ptr.Tag
		tr.paramElemType[i] = slot.Type
		tr.paramPtrType[i] = slot.PointerType
	}

	tr.localSlots = make([]tag.Value, len(tr.body.Locals))
	tr.localElemType = make([]typ.Type, len(tr.body.Locals))
	tr.localPtrType = make([]typ.Type, len(tr.body.Locals))

	for i, slot := range tr.body.Locals {
		ptr := eb.Append(instr.New(proto.Alloca(slot.Type, slot.PointerType)), slot.PointerType, "local")

		tr.localSlots[i] = ptr.Tag
		tr.localElemType[i] = slot.Type
		tr.localPtrType[i] = slot.PointerType
	}

	return entry
}

func (tr *translator) pushJob(i *cil.Instruction, stack []typ.Type) {
	tr.seq++
	tr.worklist.Push(job{seq: tr.seq, instr: i, stack: append([]typ.Type{}, stack...)})
}

// analyzeBlock is spec §4.5 step 3. Already-analyzed blocks are only
// reverified, never reprocessed — the worklist, not recursion, drives
// traversal of not-yet-visited successors.
func (tr *translator) analyzeBlock(firstInstr *cil.Instruction, incoming []typ.Type) error {
	blk, ok := tr.blockFor[firstInstr]
	if !ok {
		return errors.New("translate: %p is not a recognized block boundary", firstInstr)
	}

	if tr.analyzed[blk] {
		if !typesEqual(tr.cfg.Resolver, tr.blockStackTypes[blk], incoming) {
			return diag.MalformedIR{Reason: fmt.Sprintf("incompatible stack contents entering block %v", blk)}
		}

		return nil
	}

	tr.analyzed[blk] = true
	tr.blockStackTypes[blk] = incoming

	params := make([]flow.Param, len(incoming))
	stack := make([]tag.Value, len(incoming))

	for i, t := range incoming {
		v := tag.NewValue("stk")
		params[i] = flow.Param{Tag: v, Type: t}
		stack[i] = v
	}

	tr.builder.Block(blk).SetParameters(params)

	cur := firstInstr

	for {
		if cur == nil {
			return diag.MalformedIR{Reason: fmt.Sprintf("block %v falls off the end of the method body without a terminator", blk)}
		}

		if cur != firstInstr {
			if target, isBoundary := tr.blockFor[cur]; isBoundary {
				tr.builder.Block(blk).SetFlow(instr.Jump{To: tr.branchFromStack(target, stack)})
				tr.pushJob(cur, tr.typesOf(stack))

				return nil
			}
		}

		next, newStack, terminated, err := tr.analyzeInstruction(blk, cur, stack)
		if err != nil {
			return err
		}

		stack = newStack

		if terminated {
			return nil
		}

		cur = next // advance past straight-line code unconditionally
	}
}

func (tr *translator) branchFromStack(target tag.Block, stack []tag.Value) instr.Branch {
	args := make([]instr.BranchArg, len(stack))
	for i, v := range stack {
		args[i] = instr.Value(v)
	}

	return instr.Branch{Target: target, Args: args}
}

func (tr *translator) typesOf(stack []tag.Value) []typ.Type {
	out := make([]typ.Type, len(stack))

	for i, v := range stack {
		t, _ := tr.builder.GetValueType(v)
		out[i] = t
	}

	return out
}

func typesEqual(r typ.Resolver, a, b []typ.Type) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !r.Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

func isVoid(cfg Config, t typ.Type) bool {
	if t == nil {
		return true
	}

	return cfg.VoidType != nil && cfg.Resolver.Equal(t, cfg.VoidType)
}
