// Package instr defines an instantiated instruction prototype (bound to
// concrete value-tag arguments) and the block-terminator flow variants
// that connect basic blocks into a control-flow graph.
package instr

import (
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
)

// Instruction pairs a prototype with the value tags it operates on. It
// has no identity of its own — it becomes identifiable only once a
// graph inserts it under an owning value tag.
type Instruction struct {
	Proto proto.Prototype
	Args  []tag.Value
}

func New(p proto.Prototype, args ...tag.Value) Instruction {
	return Instruction{Proto: p, Args: append([]tag.Value{}, args...)}
}
