package refine

import (
	"context"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/simplify"
	"recondition/internal/smt"
)

// CondBasedRefine merges adjacent `if (C1) { A }` / `if (C2) { B }`
// statements into `if (C1) { A } else { B }` whenever C2 is provably
// the complement of C1, and extends an existing if/else-if chain's
// tail the same way. Runs of three or more one-armed ifs whose guards
// are pairwise disjoint and together cover every case are lowered to
// one if/else-if/else chain, the last arm's guard dropped as implied.
// Ties are broken leftmost-first: when a list has more than one
// eligible candidate in a round, the earliest one is merged and the
// rest wait for the pass manager's next fixpoint iteration — simpler
// to reason about than picking by some other measure, and it still
// reaches the same fixpoint either way.
type CondBasedRefine struct {
	Bld  *astbuild.Builder
	Simp *simplify.Simplifier
}

func (p *CondBasedRefine) Name() string { return "CondBasedRefine" }
func (p *CondBasedRefine) Description() string {
	return "merges complementary adjacent ifs into if/else and extends if/else-if chains"
}

func (p *CondBasedRefine) Apply(fn *ast.FuncDecl) bool {
	return applyToFunc(fn, p.transform)
}

func (p *CondBasedRefine) transform(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	for i := 0; i < len(stmts)-1; i++ {
		s1, ok1 := stmts[i].(*ast.IfStmt)
		s2, ok2 := stmts[i+1].(*ast.IfStmt)
		if !ok1 || !ok2 {
			continue
		}
		tail := tailOf(s1)
		if tail == nil {
			continue
		}
		if p.complementary(tail.Cond, s2.Cond) {
			if s2.Else == nil {
				tail.Else = s2.Then
			} else {
				tail.Else = s2
			}
			out := append([]ast.Stmt(nil), stmts[:i+1]...)
			out = append(out, stmts[i+2:]...)
			return out, true
		}
		if out, ok := p.mergePartition(stmts, i); ok {
			return out, true
		}
	}
	return stmts, false
}

// mergePartition handles the case the pairwise complement check can't:
// a run of three or more consecutive one-armed ifs whose guards
// pairwise exclude each other and together exhaust every case (e.g. a
// lowered switch). The run is rewritten as one if/else-if/else chain;
// the last arm's guard is dropped, since disjointness plus coverage
// make it the complement of all the others. The longest qualifying
// run starting at i wins.
func (p *CondBasedRefine) mergePartition(stmts []ast.Stmt, i int) ([]ast.Stmt, bool) {
	var run []*ast.IfStmt
	for j := i; j < len(stmts); j++ {
		ifs, ok := stmts[j].(*ast.IfStmt)
		if !ok || ifs.Else != nil {
			break
		}
		run = append(run, ifs)
	}
	for n := len(run); n >= 3; n-- {
		if !p.partitions(run[:n]) {
			continue
		}
		for k := 0; k < n-2; k++ {
			run[k].Else = run[k+1]
		}
		run[n-2].Else = run[n-1].Then
		out := append([]ast.Stmt(nil), stmts[:i+1]...)
		out = append(out, stmts[i+n:]...)
		return out, true
	}
	return nil, false
}

// partitions reports whether the guards of run are pairwise disjoint
// (every gi && gj is unsatisfiable) and jointly exhaustive
// (g1 || ... || gn is a tautology), both decided by the SMT bridge.
func (p *CondBasedRefine) partitions(run []*ast.IfStmt) bool {
	ctx := context.Background()
	var all ast.Expr
	for _, ifs := range run {
		if all == nil {
			all = ifs.Cond
		} else {
			all = p.Bld.CreateLOr(all, ifs.Cond, nil)
		}
	}
	if res, err := p.Simp.Prove(ctx, all); err != nil || res != smt.Valid {
		return false
	}
	for a := 0; a < len(run); a++ {
		for b := a + 1; b < len(run); b++ {
			overlap := p.Bld.CreateLAnd(run[a].Cond, run[b].Cond, nil)
			if res, err := p.Simp.Prove(ctx, p.Bld.CreateLNot(overlap, nil)); err != nil || res != smt.Valid {
				return false
			}
		}
	}
	return true
}

// tailOf walks an if/else-if chain's Else links to the last if that
// doesn't yet have an else, or returns s1 itself if it has none.
func tailOf(s1 *ast.IfStmt) *ast.IfStmt {
	cur := s1
	for cur.Else != nil {
		next, ok := cur.Else.(*ast.IfStmt)
		if !ok {
			return nil // chain ends in a plain else block; nothing to extend
		}
		cur = next
	}
	return cur
}

// complementary reports whether b always holds exactly when a doesn't
// — i.e. whether `(a && !b) || (!a && b)` is a tautology — using the
// SMT bridge rather than syntactic negation matching, so e.g. `x < 5`
// and `x >= 5` merge even though neither is literally `!` of the other.
func (p *CondBasedRefine) complementary(a, b ast.Expr) bool {
	notA := p.Bld.CreateLNot(a, nil)
	notB := p.Bld.CreateLNot(b, nil)
	xor := p.Bld.CreateLOr(
		p.Bld.CreateLAnd(a, notB, nil),
		p.Bld.CreateLAnd(notA, b, nil),
		nil,
	)
	res, err := p.Simp.Prove(context.Background(), xor)
	return err == nil && res == smt.Valid
}
