package instr

import (
	"github.com/emberlang/ember/tag"
	"github.com/emberlang/ember/typ"
)

// BranchArgKind discriminates what a Branch argument carries: a plain
// value, or one of the two special values only valid on a Try flow's
// branches.
type BranchArgKind int

const (
	ArgValue BranchArgKind = iota
	ArgTryResult
	ArgTryException
)

// BranchArg is one argument passed to a successor block. Value is only
// meaningful when Kind == ArgValue.
type BranchArg struct {
	Kind  BranchArgKind
	Value tag.Value
}

func Value(v tag.Value) BranchArg    { return BranchArg{Kind: ArgValue, Value: v} }
func TryResult() BranchArg           { return BranchArg{Kind: ArgTryResult} }
func TryException() BranchArg        { return BranchArg{Kind: ArgTryException} }

// Branch names a successor block and the arguments passed to its
// parameters.
type Branch struct {
	Target tag.Block
	Args   []BranchArg
}

// ExtraAllowedKind names which special BranchArg kind, beyond ArgValue,
// a particular branch position may carry. Used by the validator.
type ExtraAllowedKind int

const (
	AllowNone ExtraAllowedKind = iota
	AllowTryResult
	AllowTryException
)

// Flow is the terminator of a basic block: a tagged sum of jump, return,
// switch, try, and unreachable.
type Flow interface {
	// Branches returns every successor branch this flow can take, in a
	// stable order, paired with the extra argument kind each branch
	// permits beyond ArgValue.
	Branches() []FlowBranch

	isFlow()
}

// FlowBranch pairs a Branch with the ExtraAllowedKind the validator
// should apply to it.
type FlowBranch struct {
	Branch Branch
	Extra  ExtraAllowedKind
}

type (
	// Jump unconditionally transfers control to a single successor.
	Jump struct {
		To Branch
	}

	// Return ends the function, yielding Value — the result of a Copy
	// instruction already present in this block's instruction list.
	// Value is the zero tag.Value when the function returns void.
	Return struct {
		Value tag.Value
	}

	// Case is one arm of a Switch: a set of constants that select it,
	// and the branch taken when the switch value equals one of them.
	Case struct {
		Values []typ.Constant
		Branch Branch
	}

	// Switch evaluates Value against every Case's constant set in order
	// and branches to the first match, or to Default. An if/else is
	// expressed as a Switch with a single False case.
	Switch struct {
		Value   tag.Value
		Cases   []Case
		Default Branch
	}

	// Try runs the (possibly throwing) instruction identified by Inner,
	// then branches to Success on normal completion or Exception on a
	// thrown exception. Success's branch may carry ArgTryResult
	// arguments; Exception's may carry ArgTryException arguments.
	Try struct {
		Inner     tag.Value
		Success   Branch
		Exception Branch
	}

	// Unreachable marks a block that control never reaches, or that
	// never returns control (e.g. following a throw).
	Unreachable struct{}
)

func (Jump) isFlow()        {}
func (Return) isFlow()      {}
func (Switch) isFlow()      {}
func (Try) isFlow()         {}
func (Unreachable) isFlow() {}

func (f Jump) Branches() []FlowBranch {
	return []FlowBranch{{Branch: f.To, Extra: AllowNone}}
}

func (f Return) Branches() []FlowBranch { return nil }

func (f Switch) Branches() []FlowBranch {
	out := make([]FlowBranch, 0, len(f.Cases)+1)

	for _, c := range f.Cases {
		out = append(out, FlowBranch{Branch: c.Branch, Extra: AllowNone})
	}

	out = append(out, FlowBranch{Branch: f.Default, Extra: AllowNone})

	return out
}

func (f Try) Branches() []FlowBranch {
	return []FlowBranch{
		{Branch: f.Success, Extra: AllowTryResult},
		{Branch: f.Exception, Extra: AllowTryException},
	}
}

func (f Unreachable) Branches() []FlowBranch { return nil }

// WithBranches returns a copy of a Switch with its branches replaced,
// preserving the invariant |branches| = |cases|+1 (the last branch
// becomes Default, the rest replace Cases in order).
func (f Switch) WithBranches(branches []Branch) (Switch, bool) {
	if len(branches) != len(f.Cases)+1 {
		return Switch{}, false
	}

	g := f
	g.Cases = make([]Case, len(f.Cases))

	for i := range f.Cases {
		g.Cases[i] = Case{Values: f.Cases[i].Values, Branch: branches[i]}
	}

	g.Default = branches[len(branches)-1]

	return g, true
}
