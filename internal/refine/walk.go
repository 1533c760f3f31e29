package refine

import "recondition/internal/ast"

// listTransform rewrites one statement list and reports whether it
// changed the list.
type listTransform func(stmts []ast.Stmt) ([]ast.Stmt, bool)

// rewriteTree applies f to every CompoundStmt's statement list in body,
// post-order (innermost scopes first, so a pass can rely on its nested
// scopes already being in normal form).
func rewriteTree(body ast.Stmt, f listTransform) (ast.Stmt, bool) {
	changed := false
	switch n := body.(type) {
	case *ast.CompoundStmt:
		next := make([]ast.Stmt, len(n.Stmts))
		for i, s := range n.Stmts {
			rs, ch := rewriteTree(s, f)
			next[i] = rs
			changed = changed || ch
		}
		out, ch2 := f(next)
		n.Stmts = out
		return n, changed || ch2
	case *ast.IfStmt:
		if n.Then != nil {
			nt, ch := rewriteTree(n.Then, f)
			n.Then = nt
			changed = changed || ch
		}
		if n.Else != nil {
			ne, ch := rewriteTree(n.Else, f)
			n.Else = ne
			changed = changed || ch
		}
		return n, changed
	case *ast.WhileStmt:
		if n.Body != nil {
			nb, ch := rewriteTree(n.Body, f)
			n.Body = nb
			changed = changed || ch
		}
		return n, changed
	case *ast.DoWhileStmt:
		if n.Body != nil {
			nb, ch := rewriteTree(n.Body, f)
			n.Body = nb
			changed = changed || ch
		}
		return n, changed
	default:
		return body, false
	}
}

// applyToFunc runs f over every statement list in fn.Body.
func applyToFunc(fn *ast.FuncDecl, f listTransform) bool {
	nb, changed := rewriteTree(fn.Body, f)
	if cs, ok := nb.(*ast.CompoundStmt); ok {
		fn.Body = cs
	}
	return changed
}

func isTerminal(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt:
		return true
	}
	return false
}

func emptyBody(s ast.Stmt) bool {
	cs, ok := s.(*ast.CompoundStmt)
	return ok && len(cs.Stmts) == 0
}
