package refine

import (
	"recondition/internal/ast"
	"recondition/internal/astbuild"
)

// LoopRefine turns a while(true) loop containing single-exit breaks
// into the while/do-while a human would write. Six rules are tried in
// order, the first whose pattern matches winning: CondToSeq,
// CondToSeqNeg, NestedDoWhile, LoopToSeq, WhileRule, DoWhileRule.
// CondToSeq/CondToSeqNeg (an if/else spanning the *entire* body with
// the break confined to one arm) specialize to the same rewrite as
// WhileRule/DoWhileRule whenever that if/else is the body's only
// statement, which is the common case handled directly here;
// NestedDoWhile and DoWhileRule share the same tail pattern
// (`if (C) { break; } else E` at the end of the body) and are handled
// as one rewrite, tried in NestedDoWhile's place (before LoopToSeq and
// WhileRule).
type LoopRefine struct {
	Bld *astbuild.Builder
}

func (p *LoopRefine) Name() string { return "LoopRefine" }
func (p *LoopRefine) Description() string {
	return "rewrites while(true) loops with single-exit breaks into while/do-while (CondToSeq(Neg), NestedDoWhile/DoWhileRule, LoopToSeq, WhileRule)"
}

func (p *LoopRefine) Apply(fn *ast.FuncDecl) bool {
	return applyToFunc(fn, p.transform)
}

func (p *LoopRefine) transform(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	for i, s := range stmts {
		w, ok := s.(*ast.WhileStmt)
		if !ok || !isTrueLiteral(w.Cond) {
			continue
		}
		body, ok := w.Body.(*ast.CompoundStmt)
		if !ok || len(body.Stmts) == 0 {
			continue
		}

		// Rules 1-2: CondToSeq / CondToSeqNeg — the whole body is one
		// if/else, with the break confined to a single arm.
		if rewritten, ok := p.condToSeq(body); ok {
			stmts[i] = rewritten
			return stmts, true
		}

		// Rules 3/6: NestedDoWhile / DoWhileRule — body ends with a
		// break-guarded if, optionally with an else arm to carry into
		// the do-body.
		if rewritten, ok := p.trailingBreak(body); ok {
			stmts[i] = rewritten
			return stmts, true
		}

		// Rule 4: LoopToSeq — every path through the body reaches a
		// break (or a return); the loop never actually iterates, so
		// drop the wrapper and discharge the now-meaningless breaks,
		// splicing the body's own statements into this list in place
		// of the loop (not nesting them in a fresh compound).
		if rewritten, ok := p.loopToSeq(body); ok {
			out := append([]ast.Stmt(nil), stmts[:i]...)
			out = append(out, rewritten.Stmts...)
			out = append(out, stmts[i+1:]...)
			return out, true
		}

		// Rule 5: WhileRule — body begins with a break-guarded if.
		if cond, rest, ok := p.leadingBreak(body); ok {
			stmts[i] = p.Bld.CreateWhile(p.Bld.CreateLNot(cond, nil), p.Bld.CreateCompoundStmt(rest))
			return stmts, true
		}
	}
	return stmts, false
}

func isTrueLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok {
		return false
	}
	b, ok := lit.Value.(bool)
	return ok && b
}

// condToSeq matches rules 1-2: the entire loop body is a single
// `if (C) T else E` where the break lives in exactly one arm and the
// other arm is break-free. When T holds the break (CondToSeqNeg),
// rewrite to `while (!C) E`; when E holds it (CondToSeq), rewrite to
// `while (C) T`. Either way nothing follows the if in the source body,
// so there is no trailing sequence to re-attach.
func (p *LoopRefine) condToSeq(body *ast.CompoundStmt) (ast.Stmt, bool) {
	if len(body.Stmts) != 1 {
		return nil, false
	}
	ifs, ok := body.Stmts[0].(*ast.IfStmt)
	if !ok || ifs.Else == nil {
		return nil, false
	}
	thenBreaks := containsBreak(ifs.Then)
	elseBreaks := containsBreak(ifs.Else)
	switch {
	case thenBreaks && !elseBreaks:
		// CondToSeqNeg: only T contains break.
		return p.Bld.CreateWhile(p.Bld.CreateLNot(ifs.Cond, nil), ifs.Else), true
	case elseBreaks && !thenBreaks:
		// CondToSeq: only E contains break.
		return p.Bld.CreateWhile(ifs.Cond, ifs.Then), true
	default:
		return nil, false
	}
}

// containsBreak reports whether a break appears anywhere reachable in
// s without crossing into a nested loop (a nested while/do-while's own
// break belongs to that loop, not the one being matched here).
func containsBreak(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.BreakStmt:
		return true
	case *ast.CompoundStmt:
		for _, st := range n.Stmts {
			if containsBreak(st) {
				return true
			}
		}
		return false
	case *ast.IfStmt:
		if containsBreak(n.Then) {
			return true
		}
		return n.Else != nil && containsBreak(n.Else)
	default:
		return false
	}
}

// loopToSeq matches rule 4: every path through body ends in a break or
// a return, so the while(true) never actually repeats. It drops the
// loop wrapper and turns every exiting break into a no-op, since a
// break that used to exit this loop now just falls out the bottom of
// the (now loop-free) statement list on its own.
func (p *LoopRefine) loopToSeq(body *ast.CompoundStmt) (*ast.CompoundStmt, bool) {
	if !alwaysExitsLoop(body) {
		return nil, false
	}
	return p.discardBreaks(body).(*ast.CompoundStmt), true
}

// alwaysExitsLoop reports whether executing s is guaranteed to hit a
// break or return before control could fall back to the top of the
// enclosing while(true).
func alwaysExitsLoop(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.BreakStmt, *ast.ReturnStmt:
		return true
	case *ast.CompoundStmt:
		if len(n.Stmts) == 0 {
			return false
		}
		return alwaysExitsLoop(n.Stmts[len(n.Stmts)-1])
	case *ast.IfStmt:
		if n.Else == nil {
			return false
		}
		return alwaysExitsLoop(n.Then) && alwaysExitsLoop(n.Else)
	default:
		return false
	}
}

// discardBreaks replaces every break reachable in s (without crossing
// into a nested loop) with a null statement, for the LoopToSeq
// rewrite — DeadStmtElim cleans the null statements up afterward.
func (p *LoopRefine) discardBreaks(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.BreakStmt:
		return p.Bld.CreateNull()
	case *ast.CompoundStmt:
		for i, st := range n.Stmts {
			n.Stmts[i] = p.discardBreaks(st)
		}
		return n
	case *ast.IfStmt:
		n.Then = p.discardBreaks(n.Then)
		if n.Else != nil {
			n.Else = p.discardBreaks(n.Else)
		}
		return n
	default:
		return s
	}
}

// leadingBreak matches rule 5: the first statement is
// `if (C) { break; }` with an optional else arm E. With no else, the
// rewrite body is just the rest of the statements after the if; with
// an else, E is folded in front of that rest: `while (!C) { E; rest }`.
func (p *LoopRefine) leadingBreak(body *ast.CompoundStmt) (ast.Expr, []ast.Stmt, bool) {
	first, ok := body.Stmts[0].(*ast.IfStmt)
	if !ok || !isSoleBreak(first.Then) {
		return nil, nil, false
	}
	rest := body.Stmts[1:]
	if first.Else == nil {
		return first.Cond, rest, true
	}
	folded := append([]ast.Stmt{first.Else}, rest...)
	return first.Cond, folded, true
}

// trailingBreak matches rules 3/6: the last statement is
// `if (C) { break; }` with an optional else arm E. With no else,
// the rewrite is `do { prefix } while (!C);`; with an else, E is
// carried into the do-body after prefix: `do { prefix; E } while (!C);`.
func (p *LoopRefine) trailingBreak(body *ast.CompoundStmt) (ast.Stmt, bool) {
	last, ok := body.Stmts[len(body.Stmts)-1].(*ast.IfStmt)
	if !ok || !isSoleBreak(last.Then) {
		return nil, false
	}
	prefix := body.Stmts[:len(body.Stmts)-1]
	doBody := prefix
	if last.Else != nil {
		doBody = append(append([]ast.Stmt(nil), prefix...), last.Else)
	}
	return p.Bld.CreateDo(p.Bld.CreateCompoundStmt(doBody), p.Bld.CreateLNot(last.Cond, nil)), true
}

func isSoleBreak(s ast.Stmt) bool {
	cs, ok := s.(*ast.CompoundStmt)
	if !ok || len(cs.Stmts) != 1 {
		return false
	}
	_, ok = cs.Stmts[0].(*ast.BreakStmt)
	return ok
}
