package transform

import (
	"github.com/emberlang/ember/flow"
	"github.com/emberlang/ember/instr"
	"github.com/emberlang/ember/proto"
	"github.com/emberlang/ember/tag"
)

// CopyPropagation rewrites every instruction argument that names a
// Copy(T)(v)'s result to v directly. It does not compare T with v's
// type, and only instruction arguments are rewritten: block flows
// (return values, branch arguments, switch values) keep naming the
// copy, and the Copy instructions stay in place. It is the simplest
// possible second Transform instance, included because spec §4.6 calls delegate
// lowering "the canonical hard example", implying the scaffold hosts
// more than one transform.
type CopyPropagation struct{}

func (CopyPropagation) Apply(b *flow.Builder) error {
	replacement := map[tag.Value]tag.Value{}

	for _, blk := range b.Current().AllBlocks() {
		for _, ib := range b.Instructions(blk) {
			i, ok := ib.Instruction()
			if !ok {
				continue
			}

			if _, ok := proto.CopyInfo(i.Proto); ok {
				replacement[ib.Tag] = resolve(replacement, i.Args[0])
			}
		}
	}

	if len(replacement) == 0 {
		return nil
	}

	for _, blk := range b.Current().AllBlocks() {
		for _, ib := range b.Instructions(blk) {
			i, ok := ib.Instruction()
			if !ok {
				continue
			}

			if _, ok := proto.CopyInfo(i.Proto); ok {
				continue
			}

			rewritten := false
			args := append([]tag.Value{}, i.Args...)

			for idx, a := range args {
				if _, found := replacement[a]; found {
					args[idx] = resolve(replacement, a)
					rewritten = true
				}
			}

			if rewritten {
				ib.Replace(instr.New(i.Proto, args...))
			}
		}
	}

	return nil
}

// resolve follows a chain of propagated copies to its ultimate source,
// so a Copy-of-a-Copy collapses to the original value in one pass.
func resolve(replacement map[tag.Value]tag.Value, v tag.Value) tag.Value {
	for {
		r, ok := replacement[v]
		if !ok {
			return v
		}

		v = r
	}
}
