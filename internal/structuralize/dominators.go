// Package structuralize implements the CFG structurer: it turns a
// function's basic-block graph into a first-cut, goto-free AST by
// computing a reaching condition for every block and emitting a flat,
// dominance-ordered sequence of `if (RC) { ... }` guarded blocks, with
// natural loops wrapped in `while (true) { ... break; ... }`. The result
// is deliberately conservative — adjacent guarded blocks that a human
// would write as `if/else` are left as separate ifs here, and proper
// if/else, nested-loop and dead-branch cleanup is left to the
// refinement passes (internal/refine) that run afterwards.
package structuralize

import "recondition/internal/ir"

// DomTree holds the immediate-dominator relation for one function,
// computed with the Cooper-Harvey-Kennedy iterative algorithm: simple,
// non-recursive, fast enough on the block counts decompilation sees in
// practice, in preference to the classic Lengauer-Tarjan algorithm's
// added complexity.
type DomTree struct {
	rpo     []*ir.BasicBlock
	index   map[*ir.BasicBlock]int
	idom    []int // idom[i] is the RPO index of block rpo[i]'s immediate dominator; entry's idom is itself
	entry   *ir.BasicBlock
	childrn map[*ir.BasicBlock][]*ir.BasicBlock
}

// BuildDomTree computes the dominator tree of fn's reachable blocks.
func BuildDomTree(fn *ir.Function) *DomTree {
	entry := fn.Entry()
	rpo := reversePostorder(entry)
	index := make(map[*ir.BasicBlock]int, len(rpo))
	for i, b := range rpo {
		index[b] = i
	}

	idom := make([]int, len(rpo))
	for i := range idom {
		idom[i] = -1
	}
	idom[0] = 0

	changed := true
	for changed {
		changed = false
		for i := 1; i < len(rpo); i++ {
			b := rpo[i]
			newIdom := -1
			for _, p := range b.Preds {
				pi, ok := index[p]
				if !ok || idom[pi] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = pi
					continue
				}
				newIdom = intersect(idom, newIdom, pi)
			}
			if newIdom != -1 && idom[i] != newIdom {
				idom[i] = newIdom
				changed = true
			}
		}
	}

	dt := &DomTree{rpo: rpo, index: index, idom: idom, entry: entry, childrn: make(map[*ir.BasicBlock][]*ir.BasicBlock)}
	for i := 1; i < len(rpo); i++ {
		parent := rpo[idom[i]]
		dt.childrn[parent] = append(dt.childrn[parent], rpo[i])
	}
	return dt
}

func intersect(idom []int, a, b int) int {
	for a != b {
		for a > b {
			a = idom[a]
		}
		for b > a {
			b = idom[b]
		}
	}
	return a
}

// IDom returns b's immediate dominator, or nil for the entry block.
func (dt *DomTree) IDom(b *ir.BasicBlock) *ir.BasicBlock {
	i, ok := dt.index[b]
	if !ok || i == 0 {
		return nil
	}
	return dt.rpo[dt.idom[i]]
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (dt *DomTree) Dominates(a, b *ir.BasicBlock) bool {
	ai, ok := dt.index[a]
	if !ok {
		return false
	}
	bi, ok := dt.index[b]
	if !ok {
		return false
	}
	for bi != 0 {
		if bi == ai {
			return true
		}
		bi = dt.idom[bi]
	}
	return ai == 0
}

// Children returns b's immediate dominator-tree children, in reverse
// postorder.
func (dt *DomTree) Children(b *ir.BasicBlock) []*ir.BasicBlock {
	return dt.childrn[b]
}

// RPO returns the function's reachable blocks in reverse postorder —
// the order structuralization emits them in.
func (dt *DomTree) RPO() []*ir.BasicBlock { return dt.rpo }

func reversePostorder(entry *ir.BasicBlock) []*ir.BasicBlock {
	var post []*ir.BasicBlock
	visited := make(map[*ir.BasicBlock]bool)
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if b == nil || visited[b] {
			return
		}
		visited[b] = true
		if b.Terminator != nil {
			// Successors are visited in reverse so that after the final
			// reversal the first successor (a conditional branch's true
			// edge) comes first in the RPO.
			succs := b.Terminator.Successors()
			for i := len(succs) - 1; i >= 0; i-- {
				visit(succs[i])
			}
		}
		post = append(post, b)
	}
	visit(entry)

	rpo := make([]*ir.BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}
