package refine

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
)

// StmtCombine is the final phase's statement-combination pass:
// peephole rewrites that need no SMT call, applied everywhere in one
// pass — merging an initializer-less declaration with an immediately
// following assignment to the same name into one initializer
// (declarations from internal/lower already carry their initializer,
// and the structurer's phi-selector assignments come with no
// declaration), plus the expression-level peepholes:
// double-negation elimination, `!(a == b) -> a != b`,
// `if (C) {} else E -> if (!C) E`, single-statement-compound collapse,
// and boolean constant folding.
type StmtCombine struct {
	Bld *astbuild.Builder
}

func (p *StmtCombine) Name() string { return "StmtCombine" }
func (p *StmtCombine) Description() string {
	return "merges decl+assign into one initializer and applies peephole rewrites (double-negation, != folding, empty-then inversion, single-stmt-compound collapse, constant-fold)"
}

func (p *StmtCombine) Apply(fn *ast.FuncDecl) bool {
	changed := false
	if applyToFunc(fn, p.mergeDeclAssign) {
		changed = true
	}
	var walk func(s ast.Stmt) ast.Stmt
	walk = func(s ast.Stmt) ast.Stmt {
		switch n := s.(type) {
		case *ast.CompoundStmt:
			for i, st := range n.Stmts {
				n.Stmts[i] = walk(st)
			}
			return p.collapseSingle(n)
		case *ast.IfStmt:
			n.Cond = p.rewriteExpr(n.Cond)
			if n.Then != nil {
				n.Then = walk(n.Then)
			}
			if n.Else != nil {
				n.Else = walk(n.Else)
			}
			if rewritten, ok := p.invertEmptyThen(n); ok {
				changed = true
				return rewritten
			}
			return n
		case *ast.WhileStmt:
			n.Cond = p.rewriteExpr(n.Cond)
			if n.Body != nil {
				n.Body = walk(n.Body)
			}
			return n
		case *ast.DoWhileStmt:
			n.Cond = p.rewriteExpr(n.Cond)
			if n.Body != nil {
				n.Body = walk(n.Body)
			}
			return n
		case *ast.ExprStmt:
			n.X = p.rewriteExpr(n.X)
			return n
		case *ast.DeclStmt:
			if n.Decl.Init != nil {
				n.Decl.Init = p.rewriteExpr(n.Decl.Init)
			}
			return n
		case *ast.ReturnStmt:
			if n.Value != nil {
				n.Value = p.rewriteExpr(n.Value)
			}
			return n
		default:
			return n
		}
	}
	before := fn.Body.String()
	fn.Body = walk(fn.Body).(*ast.CompoundStmt)
	if fn.Body.String() != before {
		changed = true
	}
	return changed
}

func (p *StmtCombine) mergeDeclAssign(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	changed := false
	out := make([]ast.Stmt, 0, len(stmts))
	for i := 0; i < len(stmts); i++ {
		decl, ok := stmts[i].(*ast.DeclStmt)
		if ok && decl.Decl.Init == nil && i+1 < len(stmts) {
			if rhs, ok := assignTo(stmts[i+1], decl.Decl.Name); ok {
				decl.Decl.Init = rhs
				out = append(out, decl)
				i++ // consume the assignment
				changed = true
				continue
			}
		}
		out = append(out, stmts[i])
	}
	return out, changed
}

func assignTo(s ast.Stmt, name string) (ast.Expr, bool) {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	be, ok := es.X.(*ast.BinaryExpr)
	if !ok || be.Op != ast.Assign {
		return nil, false
	}
	ident, ok := be.L.(*ast.IdentExpr)
	if !ok || ident.Name != name {
		return nil, false
	}
	return be.R, true
}

// collapseSingle collapses a compound statement whose sole content is
// itself a compound statement, the same normal form NestedScopeComb
// establishes — kept here too since this pass runs after it in the
// final phase and may reintroduce the pattern via invertEmptyThen.
func (p *StmtCombine) collapseSingle(c *ast.CompoundStmt) *ast.CompoundStmt {
	if len(c.Stmts) != 1 {
		return c
	}
	if inner, ok := c.Stmts[0].(*ast.CompoundStmt); ok {
		return inner
	}
	return c
}

// invertEmptyThen rewrites `if (C) {} else E` to `if (!C) E`, the
// peephole for a then-branch that turned out empty (e.g.
// a block whose only content was phi-selector bookkeeping that a later
// pass folded away) while its else-branch still has work to do.
func (p *StmtCombine) invertEmptyThen(n *ast.IfStmt) (ast.Stmt, bool) {
	if n.Else == nil || !emptyBody(n.Then) {
		return nil, false
	}
	notC := p.Bld.CreateLNot(n.Cond, nil)
	return p.Bld.CreateIf(notC, n.Else, nil), true
}

// rewriteExpr applies the syntactic peepholes bottom-up: double
// negation elimination, `!(a == b) -> a != b` (and its dual,
// `!(a != b) -> a == b`), and boolean-literal constant folding of
// `&&`/`||`. It never calls the SMT bridge — anything needing
// satisfiability reasoning belongs to ConditionSimplifier instead.
func (p *StmtCombine) rewriteExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return p.rewriteExpr(n.X)
	case *ast.UnaryExpr:
		x := p.rewriteExpr(n.X)
		if n.Op != ast.LNot {
			return p.Bld.CreateUnary(n.Op, x, nil)
		}
		if inner, ok := x.(*ast.UnaryExpr); ok && inner.Op == ast.LNot {
			return inner.X
		}
		if bin, ok := x.(*ast.BinaryExpr); ok {
			if neg, ok := negateComparison(bin.Op); ok {
				negated := p.Bld.CreateBinary(neg, bin.L, bin.R, nil)
				p.Bld.Provenance().CopyUse(negated.ID(), bin.ID())
				return negated
			}
		}
		if lit, ok := x.(*ast.LiteralExpr); ok {
			if bv, ok := lit.Value.(bool); ok {
				return p.Bld.CreateIntLit(!bv, nil)
			}
		}
		return p.Bld.CreateLNot(x, nil)
	case *ast.BinaryExpr:
		l := p.rewriteExpr(n.L)
		r := p.rewriteExpr(n.R)
		if n.Op == ast.LAnd || n.Op == ast.LOr {
			if folded, ok := foldConstBool(p.Bld, n.Op, l, r); ok {
				return folded
			}
		}
		return p.Bld.CreateBinary(n.Op, l, r, nil)
	case *ast.CallExpr:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.rewriteExpr(a)
		}
		return p.Bld.CreateCall(n.Callee, args, nil)
	default:
		return e
	}
}

// negateComparison returns the dual operator for `!(a OP b)`, mirroring
// ir.BinaryOp.Negate in the output grammar.
func negateComparison(op ast.BinaryOp) (ast.BinaryOp, bool) {
	switch op {
	case ast.Eq:
		return ast.Neq, true
	case ast.Neq:
		return ast.Eq, true
	case ast.Lt:
		return ast.Geq, true
	case ast.Geq:
		return ast.Lt, true
	case ast.Gt:
		return ast.Leq, true
	case ast.Leq:
		return ast.Gt, true
	}
	return "", false
}

func foldConstBool(bld *astbuild.Builder, op ast.BinaryOp, l, r ast.Expr) (ast.Expr, bool) {
	lb, lok := boolLitOf(l)
	rb, rok := boolLitOf(r)
	switch op {
	case ast.LAnd:
		if (lok && !lb) || (rok && !rb) {
			return bld.CreateIntLit(false, nil), true
		}
		if lok && lb {
			return r, true
		}
		if rok && rb {
			return l, true
		}
	case ast.LOr:
		if (lok && lb) || (rok && rb) {
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

func boolLitOf(e ast.Expr) (bool, bool) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok {
		return false, false
	}
	b, ok := lit.Value.(bool)
	return b, ok
}
