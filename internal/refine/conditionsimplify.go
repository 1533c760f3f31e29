package refine

import (
	"recondition/internal/ast"
	"recondition/internal/simplify"
)

// ConditionSimplifier runs the configured SMT tactic pipeline over
// every if/while/do-while guard in a function, replacing each with its
// simplified form. The condition-based-refinement fixpoint uses a
// cheap pipeline ("aig && simplify"), the final phase a heavier one
// ("aig && propagate-bv-bounds && tseitin-cnf && ctx-simplify"); both
// phases run this pass first.
type ConditionSimplifier struct {
	Simp *simplify.Simplifier
}

func (p *ConditionSimplifier) Name() string { return "ConditionSimplifier" }
func (p *ConditionSimplifier) Description() string {
	return "runs the configured SMT tactic pipeline over every guard, canonicalizing it"
}

func (p *ConditionSimplifier) Apply(fn *ast.FuncDecl) bool {
	changed := false
	var walk func(s ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.CompoundStmt:
			for _, st := range n.Stmts {
				walk(st)
			}
		case *ast.IfStmt:
			if simplified := p.Simp.Simplify(n.Cond); !sameExpr(simplified, n.Cond) {
				n.Cond = simplified
				changed = true
			}
			walk(n.Then)
			if n.Else != nil {
				walk(n.Else)
			}
		case *ast.WhileStmt:
			if simplified := p.Simp.Simplify(n.Cond); !sameExpr(simplified, n.Cond) {
				n.Cond = simplified
				changed = true
			}
			walk(n.Body)
		case *ast.DoWhileStmt:
			if simplified := p.Simp.Simplify(n.Cond); !sameExpr(simplified, n.Cond) {
				n.Cond = simplified
				changed = true
			}
			walk(n.Body)
		}
	}
	walk(fn.Body)
	return changed
}

// sameExpr compares the textual form of two guards. Simplify always
// returns a structurally canonicalized tree (possibly a freshly
// allocated one even when logically unchanged), so node-identity
// comparison would over-report changes; String() equality is the
// cheap, good-enough proxy the pass manager's fixpoint detection needs.
func sameExpr(a, b ast.Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
