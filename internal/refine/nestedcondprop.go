package refine

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/simplify"
)

// NestedCondProp narrows each guard by everything already known to
// hold at that point in the tree: inside `if (A) { ... }`, A holds
// throughout the then-arm, so an inner guard is simplified under the
// assumption A; inside the else-arm the treatment is symmetric under
// !A. `if(a){ if(a && b) S; }` becomes `if(a){ if(b) S; }` — the
// nesting is kept, only the inner guard is rewritten.
type NestedCondProp struct {
	Bld  *astbuild.Builder
	Simp *simplify.Simplifier
}

func (p *NestedCondProp) Name() string { return "NestedCondProp" }
func (p *NestedCondProp) Description() string {
	return "simplifies each guard under everything already known true/false at that point in the tree"
}

func (p *NestedCondProp) Apply(fn *ast.FuncDecl) bool {
	return p.walk(fn.Body, nil)
}

// walk rewrites every guard reachable under assume — a conjunction of
// everything known to hold at this point in the tree, nil meaning
// nothing is known yet — without crossing into a loop body, whose
// back edge can invalidate facts gathered on the way in.
func (p *NestedCondProp) walk(s ast.Stmt, assume ast.Expr) bool {
	changed := false
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, st := range n.Stmts {
			if p.walk(st, assume) {
				changed = true
			}
		}
	case *ast.IfStmt:
		if assume != nil {
			if simplified := p.Simp.SimplifyUnder(assume, n.Cond); !sameExpr(simplified, n.Cond) {
				n.Cond = simplified
				changed = true
			}
		}
		if n.Then != nil && p.walk(n.Then, p.and(assume, n.Cond)) {
			changed = true
		}
		if n.Else != nil && p.walk(n.Else, p.and(assume, p.Bld.CreateLNot(n.Cond, nil))) {
			changed = true
		}
	case *ast.WhileStmt:
		if n.Body != nil && p.walk(n.Body, nil) {
			changed = true
		}
	case *ast.DoWhileStmt:
		if n.Body != nil && p.walk(n.Body, nil) {
			changed = true
		}
	}
	return changed
}

// and conjoins cond onto assume, or returns cond bare when nothing was
// known yet.
func (p *NestedCondProp) and(assume, cond ast.Expr) ast.Expr {
	if assume == nil {
		return cond
	}
	return p.Bld.CreateLAnd(assume, cond, nil)
}
