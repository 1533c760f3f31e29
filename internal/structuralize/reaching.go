package structuralize

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/ir"
	"recondition/internal/lower"
)

// RCBuilder computes a reaching condition per block: the boolean
// expression that must hold, at the point control enters the region
// containing the block, for execution to actually reach it. A nil
// expression stands for the literal "true" (the block is always
// reached) so the common case — a block with one unconditional
// predecessor whose own reaching condition was itself "true" — never
// allocates an AST node.
//
// Loop headers are pinned to "true": from inside the while(true) this
// structurer wraps a loop in, the header is reached on every
// iteration, whether via the loop's initial entry edge or a back edge,
// so its reaching condition is relative to the loop, not the function.
// Back edges themselves never contribute a disjunct to anything — they
// would just re-derive "the loop is looping", which the while(true)
// already expresses.
type RCBuilder struct {
	dt    *DomTree
	loops *Forest
	vis   *lower.Visitor
	bld   *astbuild.Builder
	rc    map[*ir.BasicBlock]ast.Expr
	set   map[*ir.BasicBlock]bool
}

func NewRCBuilder(dt *DomTree, loops *Forest, vis *lower.Visitor, bld *astbuild.Builder) *RCBuilder {
	return &RCBuilder{
		dt:    dt,
		loops: loops,
		vis:   vis,
		bld:   bld,
		rc:    make(map[*ir.BasicBlock]ast.Expr),
		set:   make(map[*ir.BasicBlock]bool),
	}
}

// Compute fills in the reaching condition for every block reachable in
// fn, and returns the map (nil entries mean "true").
func (r *RCBuilder) Compute(fn *ir.Function) map[*ir.BasicBlock]ast.Expr {
	entry := fn.Entry()
	for _, b := range r.dt.RPO() {
		if b == entry || r.loops.IsHeader(b) {
			r.rc[b] = nil
			r.set[b] = true
			continue
		}
		r.rc[b] = r.combine(b)
		r.set[b] = true
	}
	return r.rc
}

// RC returns the already-computed reaching condition for b (nil means
// "true"). Compute must have run first.
func (r *RCBuilder) RC(b *ir.BasicBlock) ast.Expr { return r.rc[b] }

func (r *RCBuilder) combine(b *ir.BasicBlock) ast.Expr {
	var disjuncts []ast.Expr
	for _, p := range b.Preds {
		if r.dt.Dominates(b, p) {
			continue // back edge; contributes nothing
		}
		guard := r.edgeGuard(p, b)
		pred := r.rc[p]
		d := conjoin(r.bld, pred, guard)
		if d == nil {
			return nil // an always-true path reaches b; RC(b) is true
		}
		disjuncts = append(disjuncts, d)
	}
	return disjoinAll(r.bld, disjuncts)
}

// edgeGuard returns the condition under which control flows from p
// into b specifically (nil for an edge that's p's only way out).
func (r *RCBuilder) edgeGuard(p, b *ir.BasicBlock) ast.Expr {
	switch t := p.Terminator.(type) {
	case *ir.JumpTerm:
		return nil
	case *ir.CondBranchTerm:
		cond := r.vis.Value(t.Cond)
		if t.True == b && t.False == b {
			return nil
		}
		if t.True == b {
			return cond
		}
		return r.bld.CreateLNot(cond, nil)
	case *ir.SwitchTerm:
		scrut := r.vis.Value(t.Scrut)
		var caseEq []ast.Expr
		for _, c := range t.Cases {
			if c.Target != b {
				continue
			}
			lit := r.bld.CreateIntLit(c.Value, nil)
			caseEq = append(caseEq, r.bld.CreateBinary(ast.Eq, scrut, lit, nil))
		}
		if len(caseEq) > 0 {
			return disjoinAll(r.bld, caseEq)
		}
		if t.Default == b {
			var negations []ast.Expr
			for _, c := range t.Cases {
				lit := r.bld.CreateIntLit(c.Value, nil)
				eq := r.bld.CreateBinary(ast.Eq, scrut, lit, nil)
				negations = append(negations, r.bld.CreateLNot(eq, nil))
			}
			return conjoinAll(r.bld, negations)
		}
		return nil
	default:
		return nil
	}
}

func conjoin(bld *astbuild.Builder, a, b ast.Expr) ast.Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return bld.CreateLAnd(a, b, nil)
}

func conjoinAll(bld *astbuild.Builder, xs []ast.Expr) ast.Expr {
	var acc ast.Expr
	for _, x := range xs {
		acc = conjoin(bld, acc, x)
	}
	return acc
}

func disjoinAll(bld *astbuild.Builder, xs []ast.Expr) ast.Expr {
	if len(xs) == 0 {
		return nil
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = bld.CreateLOr(acc, x, nil)
	}
	return acc
}
