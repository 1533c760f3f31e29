package structuralize

import "recondition/internal/ir"

// Loop is a natural loop: a header dominating every block in Body,
// reached by at least one back edge into the header.
type Loop struct {
	Header *ir.BasicBlock
	Body   map[*ir.BasicBlock]bool
	// Exits are the (inside, outside) block pairs where control leaves
	// the loop — the edges structuralization turns into `break`.
	Exits []LoopExit
}

type LoopExit struct {
	From *ir.BasicBlock
	To   *ir.BasicBlock
}

// Forest indexes loops by header and lets callers ask which (innermost)
// loop a block belongs to.
type Forest struct {
	byHeader map[*ir.BasicBlock]*Loop
	byBlock  map[*ir.BasicBlock]*Loop
}

func (f *Forest) LoopOf(b *ir.BasicBlock) *Loop { return f.byBlock[b] }
func (f *Forest) IsHeader(b *ir.BasicBlock) bool {
	_, ok := f.byHeader[b]
	return ok
}
func (f *Forest) HeaderLoop(b *ir.BasicBlock) *Loop { return f.byHeader[b] }

// FindLoops detects every natural loop in fn using dt, via the standard
// back-edge construction: an edge n -> h is a back edge when h
// dominates n, and the loop body is every block that can reach n
// without passing through h.
func FindLoops(fn *ir.Function, dt *DomTree) *Forest {
	f := &Forest{byHeader: make(map[*ir.BasicBlock]*Loop), byBlock: make(map[*ir.BasicBlock]*Loop)}

	for _, n := range dt.RPO() {
		if n.Terminator == nil {
			continue
		}
		for _, h := range n.Terminator.Successors() {
			if h == nil || !dt.Dominates(h, n) {
				continue
			}
			loop := f.byHeader[h]
			if loop == nil {
				loop = &Loop{Header: h, Body: map[*ir.BasicBlock]bool{h: true}}
				f.byHeader[h] = loop
			}
			growBody(loop, n)
		}
	}

	for _, loop := range f.byHeader {
		for b := range loop.Body {
			// Innermost loop wins when blocks are shared by nested loops;
			// later iteration order isn't guaranteed, so keep the
			// smaller (hence more deeply nested) body on conflict.
			if existing, ok := f.byBlock[b]; !ok || len(loop.Body) < len(existing.Body) {
				f.byBlock[b] = loop
			}
		}
		loop.Exits = findExits(loop)
	}
	return f
}

func growBody(loop *Loop, n *ir.BasicBlock) {
	if loop.Body[n] {
		return
	}
	worklist := []*ir.BasicBlock{n}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if loop.Body[b] {
			continue
		}
		loop.Body[b] = true
		worklist = append(worklist, b.Preds...)
	}
}

func findExits(loop *Loop) []LoopExit {
	var exits []LoopExit
	for b := range loop.Body {
		if b.Terminator == nil {
			continue
		}
		for _, s := range b.Terminator.Successors() {
			if s != nil && !loop.Body[s] {
				exits = append(exits, LoopExit{From: b, To: s})
			}
		}
	}
	return exits
}
