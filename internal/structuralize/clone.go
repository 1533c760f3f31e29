package structuralize

import "recondition/internal/ir"

// cloneFunction makes a structurally independent copy of fn's blocks,
// terminators and phi input maps, so SplitCriticalEdges can rewrite
// control flow freely without mutating the loader's original Module
// (the core treats ir.Module as read-only).
func cloneFunction(fn *ir.Function) *ir.Function {
	old2new := make(map[*ir.BasicBlock]*ir.BasicBlock, len(fn.Blocks))
	blocks := make([]*ir.BasicBlock, len(fn.Blocks))
	for i, b := range fn.Blocks {
		nb := &ir.BasicBlock{ID: b.ID, Label: b.Label, Instructions: b.Instructions}
		blocks[i] = nb
		old2new[b] = nb
	}
	remap := func(bs []*ir.BasicBlock) []*ir.BasicBlock {
		out := make([]*ir.BasicBlock, len(bs))
		for i, b := range bs {
			out[i] = old2new[b]
		}
		return out
	}

	for i, b := range fn.Blocks {
		nb := blocks[i]
		nb.Preds = remap(b.Preds)
		nb.Succs = remap(b.Succs)
		nb.Terminator = cloneTerminator(b.Terminator, nb, old2new)

		// Phi inputs key on predecessor block identity; remap those keys
		// to the cloned predecessor blocks.
		newInstrs := make([]ir.Instruction, len(b.Instructions))
		copy(newInstrs, b.Instructions)
		for j, instr := range newInstrs {
			if phi, ok := instr.(*ir.PhiInstr); ok {
				clonedInputs := make(map[*ir.BasicBlock]*ir.Value, len(phi.Inputs))
				for pb, v := range phi.Inputs {
					clonedInputs[old2new[pb]] = v
				}
				newInstrs[j] = &ir.PhiInstr{IDVal: phi.IDVal, Res: phi.Res, Blk: nb, Inputs: clonedInputs}
			}
		}
		nb.Instructions = newInstrs
	}

	return &ir.Function{Name: fn.Name, Params: fn.Params, ReturnType: fn.ReturnType, Blocks: blocks}
}

func cloneTerminator(t ir.Terminator, nb *ir.BasicBlock, old2new map[*ir.BasicBlock]*ir.BasicBlock) ir.Terminator {
	switch v := t.(type) {
	case *ir.RetTerm:
		return &ir.RetTerm{IDVal: v.IDVal, Blk: nb, Value: v.Value}
	case *ir.CondBranchTerm:
		return &ir.CondBranchTerm{IDVal: v.IDVal, Blk: nb, Cond: v.Cond, True: old2new[v.True], False: old2new[v.False]}
	case *ir.JumpTerm:
		return &ir.JumpTerm{IDVal: v.IDVal, Blk: nb, Target: old2new[v.Target]}
	case *ir.SwitchTerm:
		cases := make([]ir.SwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = ir.SwitchCase{Value: c.Value, Target: old2new[c.Target]}
		}
		var def *ir.BasicBlock
		if v.Default != nil {
			def = old2new[v.Default]
		}
		return &ir.SwitchTerm{IDVal: v.IDVal, Blk: nb, Scrut: v.Scrut, Cases: cases, Default: def}
	case *ir.UnreachableTerm:
		return &ir.UnreachableTerm{IDVal: v.IDVal, Blk: nb}
	default:
		return t
	}
}
