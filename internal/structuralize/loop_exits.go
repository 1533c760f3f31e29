package structuralize

import "recondition/internal/ir"

// SplitLoopExitEdges inserts a carrier block on every edge that leaves
// a loop from a block with more than one successor (a conditional
// branch or switch with only one of its targets outside the loop).
// Without a carrier, the `break` that edge needs would have to live in
// the branching block's own body, where it would fire unconditionally
// regardless of which edge was actually taken. The carrier holds that
// edge's phi-selector assignments and nothing else; the emitter appends
// `break` to it directly and keeps it inside the loop's while(true),
// even though natural-loop membership (computed from back-edge
// reachability) correctly puts it outside the loop body.
//
// The returned map records, for each carrier, which loop's while(true)
// it must be emitted inside — natural-loop membership alone can't
// answer that, since a carrier has no path back to any header.
func SplitLoopExitEdges(fn *ir.Function, loops *Forest) map[*ir.BasicBlock]*Loop {
	carriers := make(map[*ir.BasicBlock]*Loop)
	nextID := maxBlockID(fn) + 1

	blocks := append([]*ir.BasicBlock(nil), fn.Blocks...)
	for _, pred := range blocks {
		if pred.Terminator == nil {
			continue
		}
		succs := pred.Terminator.Successors()
		if len(succs) < 2 {
			continue
		}
		predLoop := loops.LoopOf(pred)
		if predLoop == nil {
			continue
		}
		for _, succ := range succs {
			if succ == nil || predLoop.Body[succ] {
				continue
			}
			mid := splitEdge(fn, pred, succ, &nextID)
			carriers[mid] = predLoop
		}
	}
	return carriers
}
