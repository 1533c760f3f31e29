// Package smt bridges boolean AST subterms to a SAT/AIG backend so the
// condition simplifier (internal/simplify) can decide validity and
// equisatisfiability instead of relying on syntactic pattern matching
// alone. The backend is github.com/go-air/gini: its logic.C
// and-inverter graph is the "aig" tactic the tactic language names,
// and C.ToCnf is its "tseitin-cnf" tactic. Gini is propositional-only
// — it has no bit-vector theory — so arithmetic identities beyond
// boolean-structure rewrites (De Morgan, commutation, tautological
// if/else-if coverage) are outside what this bridge can prove; Prove
// reports Unknown rather than guessing in that case.
package smt

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/provenance"
)

// Bridge maintains one and-inverter graph plus the bijective cache
// between its literals and the boolean AST subterms they represent.
// One Bridge is shared by a whole simplifier run so that repeated
// atoms (the same comparison reached from different call sites) share
// one gini variable instead of re-allocating.
type Bridge struct {
	circuit *logic.C
	bld     *astbuild.Builder

	atomLits  map[string]z.Lit  // textual atom key -> its gini literal
	litExprs  map[z.Lit]ast.Expr // gini literal -> the AST atom it was allocated for
}

func NewBridge(bld *astbuild.Builder) *Bridge {
	return &Bridge{
		circuit:  logic.NewC(),
		bld:      bld,
		atomLits: make(map[string]z.Lit),
		litExprs: make(map[z.Lit]ast.Expr),
	}
}

// ToAIG compiles a boolean AST expression into a gini literal,
// recursing through the logical connectives (&&, ||, !) and treating
// anything else — a comparison, a call, an identifier — as an opaque
// atom keyed by its textual form.
func (b *Bridge) ToAIG(e ast.Expr) z.Lit {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		if bv, ok := n.Value.(bool); ok {
			if bv {
				return b.circuit.T
			}
			return b.circuit.F
		}
	case *ast.BinaryExpr:
		switch n.Op {
		case ast.LAnd:
			return b.circuit.And(b.ToAIG(n.L), b.ToAIG(n.R))
		case ast.LOr:
			return b.circuit.Or(b.ToAIG(n.L), b.ToAIG(n.R))
		}
	case *ast.UnaryExpr:
		if n.Op == ast.LNot {
			return b.ToAIG(n.X).Not()
		}
	case *ast.ParenExpr:
		return b.ToAIG(n.X)
	}
	return b.atom(e)
}

func (b *Bridge) atom(e ast.Expr) z.Lit {
	key := e.String()
	if lit, ok := b.atomLits[key]; ok {
		return lit
	}
	lit := b.circuit.Lit()
	b.atomLits[key] = lit
	b.litExprs[lit] = e
	return lit
}

// FromAIG reconstructs a boolean AST expression for a gini literal,
// preferring the original atom expression (so provenance traces back
// to the comparison it came from) over a freshly synthesized one.
func (b *Bridge) FromAIG(m z.Lit) ast.Expr {
	switch m {
	case b.circuit.T:
		return b.bld.CreateIntLit(true, nil)
	case b.circuit.F:
		return b.bld.CreateIntLit(false, nil)
	}
	pos := m
	if !m.IsPos() {
		pos = m.Not()
	}
	if e, ok := b.litExprs[pos]; ok {
		if m.IsPos() {
			return e
		}
		return b.bld.CreateLNot(e, provenance.BoolAtom{Label: "negated-atom"})
	}
	a, c := b.circuit.Ins(pos)
	if a == 0 && c == 0 {
		// A node with no recorded atom and no children is the AIG's
		// internal true/false sentinel; callers never expect that bare
		// literal to round-trip.
		return b.bld.CreateIdent("<aig-const>", nil)
	}
	left := b.FromAIG(a)
	right := b.FromAIG(c)
	var conj ast.Expr = b.bld.CreateLAnd(left, right, nil)
	if !m.IsPos() {
		conj = b.bld.CreateLNot(conj, nil)
	}
	return conj
}

// Result is the three-valued outcome of a validity query.
type Result int

const (
	Unknown Result = iota
	Valid
	Invalid
)

// Prove decides whether e is a tautology by checking that its negation
// is unsatisfiable. A context deadline (the simplifier's configured
// per-call timeout) that expires mid-solve is reported as Unknown:
// a solver timeout is data, not a fatal error.
func (b *Bridge) Prove(ctx context.Context, e ast.Expr) (Result, error) {
	lit := b.ToAIG(e)
	neg := lit.Not()

	s := gini.New()
	b.circuit.ToCnfFrom(s, neg)
	s.Assume(neg)

	budget := 10 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining > 0 {
			budget = remaining
		}
	}

	switch s.Try(budget) {
	case 1:
		return Invalid, nil // the negation is satisfiable: e is not always true
	case -1:
		return Valid, nil // the negation is unsatisfiable: e is a tautology
	default:
		return Unknown, nil
	}
}
