package structuralize

import (
	"fmt"

	"recondition/internal/ir"
)

// SplitCriticalEdges rewrites fn in place so every edge from a block
// with multiple successors into a block with multiple predecessors
// passes through a freshly inserted single-pred/single-succ block.
// This is the structurer's own working copy, never the loader's
// original module — phi-selector assignment (reaching.go) needs
// somewhere to place an incoming value's assignment that belongs to
// exactly one predecessor edge, and neither endpoint of a critical
// edge is safe for that on its own (the predecessor end is shared with
// the edge's sibling successor; the successor end is shared with the
// edge's sibling predecessor).
func SplitCriticalEdges(fn *ir.Function) {
	nextID := maxBlockID(fn) + 1

	// Snapshot first: fn.Blocks grows as we split, and we only need to
	// consider edges that existed before splitting began.
	blocks := append([]*ir.BasicBlock(nil), fn.Blocks...)

	for _, pred := range blocks {
		if pred.Terminator == nil {
			continue
		}
		succs := pred.Terminator.Successors()
		if len(succs) < 2 {
			continue
		}
		for _, succ := range succs {
			if succ == nil || len(succ.Preds) < 2 {
				continue
			}
			splitEdge(fn, pred, succ, &nextID)
		}
	}
}

func maxBlockID(fn *ir.Function) int {
	max := -1
	for _, b := range fn.Blocks {
		if b.ID > max {
			max = b.ID
		}
	}
	return max
}

func splitEdge(fn *ir.Function, pred, succ *ir.BasicBlock, nextID *int) *ir.BasicBlock {
	mid := &ir.BasicBlock{
		ID:    *nextID,
		Label: fmt.Sprintf("%s_to_%s", pred.Label, succ.Label),
		Preds: []*ir.BasicBlock{pred},
		Succs: []*ir.BasicBlock{succ},
	}
	*nextID++
	mid.Terminator = &ir.JumpTerm{IDVal: *nextID, Blk: mid, Target: succ}
	*nextID++

	retarget := func(target **ir.BasicBlock) {
		if *target == succ {
			*target = mid
		}
	}
	switch t := pred.Terminator.(type) {
	case *ir.JumpTerm:
		retarget(&t.Target)
	case *ir.CondBranchTerm:
		retarget(&t.True)
		retarget(&t.False)
	case *ir.SwitchTerm:
		for i := range t.Cases {
			retarget(&t.Cases[i].Target)
		}
		retarget(&t.Default)
	}

	for i, s := range pred.Succs {
		if s == succ {
			pred.Succs[i] = mid
		}
	}
	newPreds := make([]*ir.BasicBlock, 0, len(succ.Preds))
	for _, p := range succ.Preds {
		if p == pred {
			newPreds = append(newPreds, mid)
		} else {
			newPreds = append(newPreds, p)
		}
	}
	succ.Preds = newPreds

	for _, instr := range succ.Instructions {
		phi, ok := instr.(*ir.PhiInstr)
		if !ok {
			continue
		}
		if v, ok := phi.Inputs[pred]; ok {
			delete(phi.Inputs, pred)
			phi.Inputs[mid] = v
		}
	}

	fn.Blocks = append(fn.Blocks, mid)
	return mid
}
