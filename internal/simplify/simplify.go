package simplify

import (
	"context"
	"fmt"
	"log"
	"time"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/smt"
)

// Simplifier runs a configured tactic pipeline over a boolean
// expression. Two differently-configured Simplifiers are used by the
// pass manager (internal/pipeline): a cheap one during the
// condition-based-refinement fixpoint ("aig && simplify") and a
// heavier one in the final phase
// ("aig && propagate-bv-bounds && tseitin-cnf && ctx-simplify").
type Simplifier struct {
	pipeline []string
	bld      *astbuild.Builder
	bridge   *smt.Bridge
	timeout  time.Duration
}

// New builds a Simplifier from a tactic-pipeline string. timeout bounds
// every Prove call; the default is 10s.
func New(pipelineSrc string, bld *astbuild.Builder, timeout time.Duration) (*Simplifier, error) {
	names, err := ParsePipeline(pipelineSrc)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if !knownTactics[n] {
			return nil, fmt.Errorf("simplify: unknown tactic %q", n)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Simplifier{
		pipeline: names,
		bld:      bld,
		bridge:   smt.NewBridge(bld),
		timeout:  timeout,
	}, nil
}

var knownTactics = map[string]bool{
	"aig":                  true,
	"simplify":             true,
	"ctx-simplify":         true,
	"propagate-bv-bounds":  true,
	"tseitin-cnf":          true,
}

// Simplify runs the configured pipeline over e and returns the
// rewritten expression.
func (s *Simplifier) Simplify(e ast.Expr) ast.Expr {
	cur := e
	for _, name := range s.pipeline {
		switch name {
		case "aig":
			// Round-tripping through the and-inverter graph canonicalizes
			// the formula: gini's structural hashing (strashing) collapses
			// syntactically distinct but structurally identical subterms
			// to the same node.
			cur = s.bridge.FromAIG(s.bridge.ToAIG(cur))
		case "simplify", "ctx-simplify":
			cur = rewrite(s.bld, cur)
		case "propagate-bv-bounds":
			// No bit-vector interval tracking here — gini is
			// propositional-only, so this tactic is accepted as a no-op
			// placeholder rather than rejected.
		case "tseitin-cnf":
			// CNF is meaningful to the solver the next Prove call invokes,
			// not to the AST form Simplify returns; nothing to rewrite.
		}
	}
	return cur
}

// Prove decides e's validity using the bridge's SAT backend, bounded by
// the configured timeout. Call timings are traced via the standard log
// package.
func (s *Simplifier) Prove(parent context.Context, e ast.Expr) (smt.Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	res, err := s.bridge.Prove(ctx, e)
	log.Printf("simplify: SMT call took %s (result=%v, err=%v)", time.Since(start), res, err)
	return res, err
}

// ProveEquivalent decides whether a and b always agree — whether
// `(a -> b) && (b -> a)` is a tautology under the bridge's theory.
func (s *Simplifier) ProveEquivalent(ctx context.Context, a, b ast.Expr) (smt.Result, error) {
	iff := s.bld.CreateLAnd(
		s.bld.CreateLOr(s.bld.CreateLNot(a, nil), b, nil),
		s.bld.CreateLOr(s.bld.CreateLNot(b, nil), a, nil),
		nil,
	)
	return s.Prove(ctx, iff)
}

// SimplifyUnder simplifies e under the assumption that assume holds:
// each subterm of e that assume already pins to a constant (assume
// implies the subterm, or implies its negation) is replaced by that
// constant before the ordinary pipeline runs, so e.g. `a && b`
// simplified under the assumption `a` folds the redundant conjunct
// away to `b`. Callers needing the symmetric "assume !A inside the
// else-branch" treatment pass `bld.CreateLNot(a, nil)` as assume.
func (s *Simplifier) SimplifyUnder(assume, e ast.Expr) ast.Expr {
	return s.Simplify(s.pinKnown(assume, e))
}

// pinKnown recurses through e's logical connectives (&&, ||, !, and
// parens), replacing any subterm — including e itself — that assume
// pins to a boolean constant. It never descends into a non-logical
// atom's own structure (a comparison's operands aren't themselves
// booleans), so atoms are only ever replaced whole.
func (s *Simplifier) pinKnown(assume, e ast.Expr) ast.Expr {
	if v, ok := s.pin(assume, e); ok {
		return s.bld.CreateIntLit(v, nil)
	}
	switch n := e.(type) {
	case *ast.ParenExpr:
		return s.pinKnown(assume, n.X)
	case *ast.UnaryExpr:
		if n.Op == ast.LNot {
			return s.bld.CreateLNot(s.pinKnown(assume, n.X), nil)
		}
	case *ast.BinaryExpr:
		if n.Op == ast.LAnd || n.Op == ast.LOr {
			l := s.pinKnown(assume, n.L)
			r := s.pinKnown(assume, n.R)
			return s.bld.CreateBinary(n.Op, l, r, nil)
		}
	}
	return e
}

// pin asks whether assume implies e (pinning it to true) or assume
// implies !e (pinning it to false), via two Prove calls against the
// standard "assume => target" tautology encoding (!assume || target).
func (s *Simplifier) pin(assume, e ast.Expr) (bool, bool) {
	ctx := context.Background()
	notAssume := s.bld.CreateLNot(assume, nil)
	if res, err := s.Prove(ctx, s.bld.CreateLOr(notAssume, e, nil)); err == nil && res == smt.Valid {
		return true, true
	}
	if res, err := s.Prove(ctx, s.bld.CreateLOr(notAssume, s.bld.CreateLNot(e, nil), nil)); err == nil && res == smt.Valid {
		return false, true
	}
	return false, false
}
