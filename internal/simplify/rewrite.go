package simplify

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
)

// rewrite applies the purely syntactic half of the "simplify"/
// "ctx-simplify" tactics: double-negation elimination, redundant-paren
// removal, and constant folding of boolean literals. Anything that
// needs to reason about satisfiability (tautological coverage,
// disjoint guards) goes through Simplifier.Prove instead — this pass
// never calls the solver.
func rewrite(bld *astbuild.Builder, e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return rewrite(bld, n.X)
	case *ast.UnaryExpr:
		x := rewrite(bld, n.X)
		if n.Op != ast.LNot {
			return bld.CreateUnary(n.Op, x, nil)
		}
		if inner, ok := x.(*ast.UnaryExpr); ok && inner.Op == ast.LNot {
			return inner.X
		}
		if lit, ok := x.(*ast.LiteralExpr); ok {
			if bv, ok := lit.Value.(bool); ok {
				return bld.CreateIntLit(!bv, nil)
			}
		}
		return bld.CreateLNot(x, nil)
	case *ast.BinaryExpr:
		l := rewrite(bld, n.L)
		r := rewrite(bld, n.R)
		if n.Op == ast.LAnd || n.Op == ast.LOr {
			if folded, ok := foldLogical(bld, n.Op, l, r); ok {
				return folded
			}
		}
		return bld.CreateBinary(n.Op, l, r, nil)
	default:
		return e
	}
}

func foldLogical(bld *astbuild.Builder, op ast.BinaryOp, l, r ast.Expr) (ast.Expr, bool) {
	lb, lok := boolLit(l)
	rb, rok := boolLit(r)
	switch op {
	case ast.LAnd:
		if lok && !lb || rok && !rb {
			return bld.CreateIntLit(false, nil), true
		}
		if lok && lb {
			return r, true
		}
		if rok && rb {
			return l, true
		}
	case ast.LOr:
		if lok && lb || rok && rb {
			return bld.CreateIntLit(true, nil), true
		}
		if lok && !lb {
			return r, true
		}
		if rok && !rb {
			return l, true
		}
	}
	return nil, false
}

func boolLit(e ast.Expr) (bool, bool) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok {
		return false, false
	}
	b, ok := lit.Value.(bool)
	return b, ok
}
