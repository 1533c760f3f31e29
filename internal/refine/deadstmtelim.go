package refine

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/provenance"
)

// DeadStmtElim drops statements whose side effects are semantically
// null: null statements, statements unreachable after a
// return/break in the same list, `if (false) T else E`/`if (true) T
// else E` collapsed to the live branch, and if-statements whose body
// turned out empty with no else — the routine byproduct of
// reaching-condition structuring, where a block's instructions lowered
// to nothing once its phis and terminator were accounted for
// elsewhere.
type DeadStmtElim struct {
	Prov *provenance.Map
	Bld  *astbuild.Builder
}

func (p *DeadStmtElim) Name() string { return "DeadStmtElim" }
func (p *DeadStmtElim) Description() string {
	return "removes null statements, post-terminal unreachable statements, constant-guarded ifs, and empty if-bodies"
}

func (p *DeadStmtElim) Apply(fn *ast.FuncDecl) bool {
	return applyToFunc(fn, p.transform)
}

func (p *DeadStmtElim) transform(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	changed := false
	out := make([]ast.Stmt, 0, len(stmts))
	terminated := false
	for _, s := range stmts {
		if terminated {
			p.forget(s)
			changed = true
			continue
		}
		if _, ok := s.(*ast.NullStmt); ok {
			p.forget(s)
			changed = true
			continue
		}
		if ifs, ok := s.(*ast.IfStmt); ok {
			if p.collapseConstantElse(ifs) {
				changed = true
			}
			if live, ok := p.constantBranch(ifs); ok {
				p.forgetDead(ifs, live)
				out = append(out, live)
				changed = true
				if isTerminal(live) {
					terminated = true
				}
				continue
			}
			if ifs.Else == nil && emptyBody(ifs.Then) {
				p.forget(s)
				changed = true
				continue
			}
		}
		out = append(out, s)
		if isTerminal(s) {
			terminated = true
		}
	}
	return out, changed
}

// constantBranch reports the surviving branch when an if's condition
// is a literal boolean: `if (true) T [else E]` always takes T, `if
// (false) T else E` always takes E (and, with no else, reduces to a
// null statement).
func (p *DeadStmtElim) constantBranch(ifs *ast.IfStmt) (ast.Stmt, bool) {
	lit, ok := ifs.Cond.(*ast.LiteralExpr)
	if !ok {
		return nil, false
	}
	b, ok := lit.Value.(bool)
	if !ok {
		return nil, false
	}
	if b {
		return ifs.Then, true
	}
	if ifs.Else != nil {
		return ifs.Else, true
	}
	return p.Bld.CreateNull(), true
}

// collapseConstantElse folds constant-guarded ifs sitting in else-arm
// position — `... else if (true) T ...` becomes `... else T`, and
// `... else if (false) T else E` becomes `... else E` — which the
// list-level constantBranch handling can't see, since an else-arm is
// not a member of any statement list. NestedCondProp routinely leaves
// this shape behind when it pins an else-if's guard to a constant.
func (p *DeadStmtElim) collapseConstantElse(ifs *ast.IfStmt) bool {
	changed := false
	for cur := ifs; cur.Else != nil; {
		elseIf, ok := cur.Else.(*ast.IfStmt)
		if !ok {
			break
		}
		live, ok := p.constantBranch(elseIf)
		if !ok {
			cur = elseIf
			continue
		}
		if _, isNull := live.(*ast.NullStmt); isNull {
			live = nil
		}
		p.forgetDead(elseIf, live)
		cur.Else = live
		changed = true
		if live == nil {
			break
		}
	}
	return changed
}

// forgetDead releases provenance for the if itself and whichever
// branch lost, leaving the surviving branch's own provenance intact
// (it's being kept, not rewritten).
func (p *DeadStmtElim) forgetDead(ifs *ast.IfStmt, keep ast.Stmt) {
	p.forget(ifs)
	if ifs.Then != keep {
		p.forget(ifs.Then)
	}
	if ifs.Else != nil && ifs.Else != keep {
		p.forget(ifs.Else)
	}
}

func (p *DeadStmtElim) forget(s ast.Stmt) {
	if p.Prov != nil {
		p.Prov.Forget(s.ID())
	}
}
