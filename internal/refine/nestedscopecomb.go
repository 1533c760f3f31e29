package refine

import (
	"context"

	"recondition/internal/ast"
	"recondition/internal/simplify"
	"recondition/internal/smt"
)

// NestedScopeComb flattens redundant scope nesting: a bare compound
// statement sitting inside a statement list is spliced into that list,
// a control construct's body that is a compound wrapping a single
// compound loses the extra wrapper, and two adjacent `if`s guarded by
// the same (side-effect-free) condition merge into one. The structurer
// wraps every guarded block in its own CompoundStmt, so all three
// patterns are routine leftovers of structuralization rather than
// anything a source program would contain.
type NestedScopeComb struct {
	// Simp, when set, lets the adjacent-if merge accept guards that are
	// provably equivalent rather than only textually identical. The
	// loop-refinement phase runs this pass without a simplifier and
	// falls back to the textual check.
	Simp *simplify.Simplifier
}

func (p *NestedScopeComb) Name() string { return "NestedScopeComb" }
func (p *NestedScopeComb) Description() string {
	return "splices nested compounds into their parent list, unwraps doubly-wrapped bodies, and merges adjacent same-guard ifs"
}

func (p *NestedScopeComb) Apply(fn *ast.FuncDecl) bool {
	return applyToFunc(fn, p.transform)
}

func (p *NestedScopeComb) transform(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	changed := false

	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if cs, ok := s.(*ast.CompoundStmt); ok {
			out = append(out, cs.Stmts...)
			changed = true
			continue
		}
		out = append(out, s)
	}
	stmts = out

	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.IfStmt:
			if nb, ok := unwrap(n.Then); ok {
				n.Then = nb
				changed = true
			}
			if n.Else != nil {
				if nb, ok := unwrap(n.Else); ok {
					n.Else = nb
					changed = true
				}
			}
		case *ast.WhileStmt:
			if nb, ok := unwrap(n.Body); ok {
				n.Body = nb
				changed = true
			}
		case *ast.DoWhileStmt:
			if nb, ok := unwrap(n.Body); ok {
				n.Body = nb
				changed = true
			}
		}
	}

	if merged, ok := p.mergeAdjacentIfs(stmts); ok {
		return merged, true
	}
	return stmts, changed
}

// unwrap reports the inner compound when s is a compound statement
// whose only content is itself a compound statement.
func unwrap(s ast.Stmt) (ast.Stmt, bool) {
	outer, ok := s.(*ast.CompoundStmt)
	if !ok || len(outer.Stmts) != 1 {
		return nil, false
	}
	inner, ok := outer.Stmts[0].(*ast.CompoundStmt)
	if !ok {
		return nil, false
	}
	return inner, true
}

// mergeAdjacentIfs folds `if (A) S` immediately followed by `if (A) T`
// into `if (A) { S; T }`, leftmost pair first. The merge is refused
// when either if carries an else arm, when A has side effects
// (evaluating it once instead of twice is observable), or when S could
// change A's value between the two evaluations.
func (p *NestedScopeComb) mergeAdjacentIfs(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	for i := 0; i < len(stmts)-1; i++ {
		a, ok1 := stmts[i].(*ast.IfStmt)
		b, ok2 := stmts[i+1].(*ast.IfStmt)
		if !ok1 || !ok2 || a.Else != nil || b.Else != nil {
			continue
		}
		if !sideEffectFree(a.Cond) || !sideEffectFree(b.Cond) {
			continue
		}
		if !p.equivalentGuards(a.Cond, b.Cond) {
			continue
		}
		atoms := map[string]bool{}
		collectIdents(a.Cond, atoms)
		collectIdents(b.Cond, atoms)
		if guardInvalidated(a.Then, atoms) {
			continue
		}
		body, ok := a.Then.(*ast.CompoundStmt)
		if !ok {
			continue
		}
		if tail, ok := b.Then.(*ast.CompoundStmt); ok {
			body.Stmts = append(body.Stmts, tail.Stmts...)
		} else {
			body.Stmts = append(body.Stmts, b.Then)
		}
		out := append([]ast.Stmt(nil), stmts[:i+1]...)
		out = append(out, stmts[i+2:]...)
		return out, true
	}
	return nil, false
}

// equivalentGuards accepts textually identical guards, and — when a
// simplifier is available — guards it can prove coincide.
func (p *NestedScopeComb) equivalentGuards(a, b ast.Expr) bool {
	if sameExpr(a, b) {
		return true
	}
	if p.Simp == nil {
		return false
	}
	res, err := p.Simp.ProveEquivalent(context.Background(), a, b)
	return err == nil && res == smt.Valid
}

// sideEffectFree reports whether evaluating e twice is indistinguishable
// from evaluating it once: no calls, no assignments anywhere inside.
func sideEffectFree(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.CallExpr:
		return false
	case *ast.BinaryExpr:
		if n.Op == ast.Assign {
			return false
		}
		return sideEffectFree(n.L) && sideEffectFree(n.R)
	case *ast.UnaryExpr:
		return sideEffectFree(n.X)
	case *ast.ParenExpr:
		return sideEffectFree(n.X)
	case *ast.CastExpr:
		return sideEffectFree(n.X)
	case *ast.MemberExpr:
		return sideEffectFree(n.X)
	case *ast.IndexExpr:
		return sideEffectFree(n.X) && sideEffectFree(n.Index)
	default:
		return true
	}
}

func collectIdents(e ast.Expr, into map[string]bool) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		into[n.Name] = true
	case *ast.BinaryExpr:
		collectIdents(n.L, into)
		collectIdents(n.R, into)
	case *ast.UnaryExpr:
		collectIdents(n.X, into)
	case *ast.ParenExpr:
		collectIdents(n.X, into)
	case *ast.CastExpr:
		collectIdents(n.X, into)
	case *ast.MemberExpr:
		collectIdents(n.X, into)
	case *ast.IndexExpr:
		collectIdents(n.X, into)
		collectIdents(n.Index, into)
	}
}

// guardInvalidated reports whether s could change the value of a guard
// built over atoms: a direct assignment or declaration of one of the
// guard's variables, a store through a pointer (unknown target), or
// any call (which may write anything the guard reads).
func guardInvalidated(s ast.Stmt, atoms map[string]bool) bool {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return exprWrites(n.X, atoms)
	case *ast.DeclStmt:
		if atoms[n.Decl.Name] {
			return true
		}
		return n.Decl.Init != nil && exprWrites(n.Decl.Init, atoms)
	case *ast.CompoundStmt:
		for _, st := range n.Stmts {
			if guardInvalidated(st, atoms) {
				return true
			}
		}
		return false
	case *ast.IfStmt:
		if exprWrites(n.Cond, atoms) || guardInvalidated(n.Then, atoms) {
			return true
		}
		return n.Else != nil && guardInvalidated(n.Else, atoms)
	case *ast.WhileStmt:
		return exprWrites(n.Cond, atoms) || guardInvalidated(n.Body, atoms)
	case *ast.DoWhileStmt:
		return exprWrites(n.Cond, atoms) || guardInvalidated(n.Body, atoms)
	case *ast.ReturnStmt:
		return n.Value != nil && exprWrites(n.Value, atoms)
	default:
		return false
	}
}

func exprWrites(e ast.Expr, atoms map[string]bool) bool {
	switch n := e.(type) {
	case *ast.CallExpr:
		return true
	case *ast.BinaryExpr:
		if n.Op == ast.Assign {
			switch lhs := n.L.(type) {
			case *ast.IdentExpr:
				if atoms[lhs.Name] {
					return true
				}
			default:
				return true // store through a deref/member/index; target unknown
			}
			return exprWrites(n.R, atoms)
		}
		return exprWrites(n.L, atoms) || exprWrites(n.R, atoms)
	case *ast.UnaryExpr:
		return exprWrites(n.X, atoms)
	case *ast.ParenExpr:
		return exprWrites(n.X, atoms)
	case *ast.CastExpr:
		return exprWrites(n.X, atoms)
	case *ast.MemberExpr:
		return exprWrites(n.X, atoms)
	case *ast.IndexExpr:
		return exprWrites(n.X, atoms) || exprWrites(n.Index, atoms)
	default:
		return false
	}
}
