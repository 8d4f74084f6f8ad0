// Package validate checks a flow.Graph for structural consistency: every
// instruction argument resolves, every prototype's conformance rules
// hold, and every block's terminating flow branches to a real target
// with the right argument shape.
package validate

import (
	"context"
	"fmt"

	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/typ"

	"tlog.app/go/tlog"
)

// Graph validates every block and instruction in g against r, returning
// one diag.MalformedIR per problem found. A nil/empty result means g is
// well-formed.
func Graph(ctx context.Context, g flow.Graph, r typ.Resolver) (errs []error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "validate: check graph", "blocks", len(g.AllBlocks()))
	defer func() { tr.Finish("problems", len(errs)) }()

	for _, b := range g.AllBlocks() {
		bb, ok := g.Block(b)
		if !ok {
			continue
		}

		errs = append(errs, instructions(g, bb, r)...)
		errs = append(errs, flowBranches(g, bb, r)...)
	}

	return errs
}

func instructions(g flow.Graph, bb flow.BasicBlock, r typ.Resolver) []error {
	var errs []error

	for _, v := range bb.Code {
		i, ok := g.Instruction(v)
		if !ok {
			continue
		}

		argTypes := make([]typ.Type, 0, len(i.Args))
		argsOK := true

		for _, a := range i.Args {
			if !g.ContainsValue(a) {
				errs = append(errs, diag.MalformedIR{Reason: fmt.Sprintf("%v: argument %v is not in the graph", v, a)})
				argsOK = false

				continue
			}

			t, _ := g.GetValueType(a)
			argTypes = append(argTypes, t)
		}

		if !argsOK {
			continue
		}

		for _, problem := range i.Proto.CheckConformance(argTypes, r) {
			errs = append(errs, diag.MalformedIR{Reason: fmt.Sprintf("%v: %s", v, problem)})
		}
	}

	return errs
}

func flowBranches(g flow.Graph, bb flow.BasicBlock, r typ.Resolver) []error {
	var errs []error

	for _, fb := range bb.Flow.Branches() {
		errs = append(errs, branch(g, fb.Branch, fb.Extra, r)...)
	}

	return errs
}

func branch(g flow.Graph, br instr.Branch, extra instr.ExtraAllowedKind, r typ.Resolver) []error {
	target, ok := g.Block(br.Target)
	if !ok {
		return []error{diag.MalformedIR{Reason: fmt.Sprintf("branch target %v does not exist", br.Target)}}
	}

	if len(br.Args) != len(target.Params) {
		return []error{diag.MalformedIR{
			Reason: fmt.Sprintf("branch to %v: %d arguments for %d parameters", br.Target, len(br.Args), len(target.Params)),
		}}
	}

	var errs []error

	for i, a := range br.Args {
		switch a.Kind {
		case instr.ArgValue:
			t, ok := g.GetValueType(a.Value)
			if !ok {
				errs = append(errs, diag.MalformedIR{Reason: fmt.Sprintf("branch to %v: argument %d (%v) is not in the graph", br.Target, i, a.Value)})
				continue
			}

			if !r.Equal(t, target.Params[i].Type) {
				errs = append(errs, diag.MalformedIR{
					Reason: fmt.Sprintf("branch to %v: argument %d type does not match parameter %d", br.Target, i, i),
				})
			}
		case instr.ArgTryResult:
			if extra != instr.AllowTryResult {
				errs = append(errs, diag.MalformedIR{Reason: fmt.Sprintf("branch to %v: TryResult argument not allowed here", br.Target)})
			}
		case instr.ArgTryException:
			if extra != instr.AllowTryException {
				errs = append(errs, diag.MalformedIR{Reason: fmt.Sprintf("branch to %v: TryException argument not allowed here", br.Target)})
			}
		}
	}

	return errs
}
