package refine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/provenance"
	"recondition/internal/refine"
)

func TestDeadStmtElimDropsNullStatements(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	live := bld.CreateAssign("x", bld.CreateIdent("x", nil), nil)
	fn := newFn(bld, []ast.Stmt{bld.CreateNull(), live})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	assert.Equal(t, []ast.Stmt{live}, fn.Body.Stmts)
}

func TestDeadStmtElimDropsUnreachableAfterReturn(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	ret := bld.CreateReturn(nil)
	dead := bld.CreateAssign("x", bld.CreateIdent("x", nil), nil)
	fn := newFn(bld, []ast.Stmt{ret, dead})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	assert.Equal(t, []ast.Stmt{ret}, fn.Body.Stmts)
}

func TestDeadStmtElimDropsEmptyIfWithNoElse(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	ifs := bld.CreateIf(bld.CreateIdent("cond", nil), bld.CreateCompoundStmt(nil), nil)
	fn := newFn(bld, []ast.Stmt{ifs})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	assert.Empty(t, fn.Body.Stmts)
}

// if (false) S1 else S2 -> S2.
func TestDeadStmtElimCollapsesConstantFalseIf(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	s1 := bld.CreateAssign("s1", bld.CreateIdent("s1", nil), nil)
	s2 := bld.CreateAssign("s2", bld.CreateIdent("s2", nil), nil)
	ifs := bld.CreateIf(bld.CreateIntLit(false, nil), bld.CreateCompoundStmt([]ast.Stmt{s1}), bld.CreateCompoundStmt([]ast.Stmt{s2}))
	fn := newFn(bld, []ast.Stmt{ifs})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	require.Len(t, fn.Body.Stmts, 1)
	body, ok := fn.Body.Stmts[0].(*ast.CompoundStmt)
	require.True(t, ok)
	assert.Equal(t, []ast.Stmt{s2}, body.Stmts)
}

func TestDeadStmtElimCollapsesConstantTrueIfWithNoElse(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	s1 := bld.CreateAssign("s1", bld.CreateIdent("s1", nil), nil)
	ifs := bld.CreateIf(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{s1}), nil)
	fn := newFn(bld, []ast.Stmt{ifs})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	require.Len(t, fn.Body.Stmts, 1)
	body, ok := fn.Body.Stmts[0].(*ast.CompoundStmt)
	require.True(t, ok)
	assert.Equal(t, []ast.Stmt{s1}, body.Stmts)
}

func TestDeadStmtElimFalseIfWithNoElseBecomesNull(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	s1 := bld.CreateAssign("s1", bld.CreateIdent("s1", nil), nil)
	ifs := bld.CreateIf(bld.CreateIntLit(false, nil), bld.CreateCompoundStmt([]ast.Stmt{s1}), nil)
	fn := newFn(bld, []ast.Stmt{ifs})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	require.True(t, p.Apply(fn))
	require.Len(t, fn.Body.Stmts, 1)
	_, ok := fn.Body.Stmts[0].(*ast.NullStmt)
	assert.True(t, ok)
}

func TestDeadStmtElimForgetsProvenanceOfDroppedNodes(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	prov := bld.Provenance()
	n := bld.CreateNull()
	fn := newFn(bld, []ast.Stmt{n})

	p := &refine.DeadStmtElim{Prov: prov, Bld: bld}
	p.Apply(fn)
	_, ok := prov.Get(n.ID())
	assert.False(t, ok)
}

func TestDeadStmtElimNoOpOnAlreadyMinimalBody(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	live := bld.CreateAssign("x", bld.CreateIdent("x", nil), nil)
	fn := newFn(bld, []ast.Stmt{live})

	p := &refine.DeadStmtElim{Prov: bld.Provenance(), Bld: bld}
	assert.False(t, p.Apply(fn))
}
