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

func newFn(bld *astbuild.Builder, stmts []ast.Stmt) *ast.FuncDecl {
	return bld.CreateFunc("f", nil, nil, "void", bld.CreateCompoundStmt(stmts))
}

func eqCmp(bld *astbuild.Builder, name string, v int) ast.Expr {
	return bld.CreateBinary(ast.Eq, bld.CreateIdent(name, nil), bld.CreateIntLit(v, nil), nil)
}

// CondToSeqNeg: while(true){ if(x==0){break;} else {y=y+1;} } -> while(!(x==0)){y=y+1;}
func TestLoopRefineCondToSeqNeg(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	cond := eqCmp(bld, "x", 0)
	yInc := bld.CreateAssign("y", bld.CreateBinary(ast.Add, bld.CreateIdent("y", nil), bld.CreateIntLit(1, nil), nil), nil)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}), bld.CreateCompoundStmt([]ast.Stmt{yInc}))
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{ifs}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	changed := p.Apply(fn)
	require.True(t, changed)

	w, ok := fn.Body.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	neg, ok := w.Cond.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LNot, neg.Op)
	body, ok := w.Body.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, body.Stmts, 1)
	assert.Equal(t, yInc, body.Stmts[0])
}

// CondToSeq: while(true){ if(x==0){y=y+1;} else {break;} } -> while(x==0){y=y+1;}
func TestLoopRefineCondToSeq(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	cond := eqCmp(bld, "x", 0)
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{yInc}), bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}))
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{ifs}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	w, ok := fn.Body.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	assert.Same(t, cond, w.Cond)
}

// Tail break, no else: while(true){ y=y+1; if(x==0) break; } -> do{y=y+1;}while(!(x==0));
func TestLoopRefineTrailingBreakNoElse(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	cond := eqCmp(bld, "x", 0)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}), nil)
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{yInc, ifs}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	do, ok := fn.Body.Stmts[0].(*ast.DoWhileStmt)
	require.True(t, ok)
	body, ok := do.Body.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, body.Stmts, 1)
	assert.Equal(t, yInc, body.Stmts[0])
	neg, ok := do.Cond.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LNot, neg.Op)
}

// Rules 3/6: trailing break with an else arm carries the else into the
// do-body as one compound: while(true){ y=y+1; if(c){break;} else {z=z+1;} } ->
// do{y=y+1; {z=z+1;}} while(!c);
func TestLoopRefineTrailingBreakWithElse(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	zInc := bld.CreateAssign("z", bld.CreateIdent("z", nil), nil)
	cond := eqCmp(bld, "c", 1)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}), bld.CreateCompoundStmt([]ast.Stmt{zInc}))
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{yInc, ifs}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	do, ok := fn.Body.Stmts[0].(*ast.DoWhileStmt)
	require.True(t, ok)
	body, ok := do.Body.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, body.Stmts, 2)
	assert.Equal(t, yInc, body.Stmts[0])
	elseCompound, ok := body.Stmts[1].(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, elseCompound.Stmts, 1)
	assert.Equal(t, zInc, elseCompound.Stmts[0])
}

// Rule 5 (WhileRule): leading break-guarded if with no else.
// while(true){ if(x==0){break;} y=y+1; } -> while(!(x==0)){y=y+1;}
func TestLoopRefineLeadingBreak(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	cond := eqCmp(bld, "x", 0)
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}), nil)
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{ifs, yInc}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	w, ok := fn.Body.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	neg, ok := w.Cond.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LNot, neg.Op)
	body, ok := w.Body.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, body.Stmts, 1)
	assert.Equal(t, yInc, body.Stmts[0])
}

// Rule 5 (WhileRule): leading break-guarded if with an else arm folds
// the else in front of what follows.
// while(true){ if(x==0){break;} else {z=z+1;} y=y+1; } ->
// while(!(x==0)){ z=z+1; y=y+1; }
func TestLoopRefineLeadingBreakWithElse(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	cond := eqCmp(bld, "x", 0)
	zInc := bld.CreateAssign("z", bld.CreateIdent("z", nil), nil)
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	ifs := bld.CreateIf(cond, bld.CreateCompoundStmt([]ast.Stmt{bld.CreateBreak()}), bld.CreateCompoundStmt([]ast.Stmt{zInc}))
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{ifs, yInc}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	w, ok := fn.Body.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	neg, ok := w.Cond.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LNot, neg.Op)
	body, ok := w.Body.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, body.Stmts, 2)
	elseCompound, ok := body.Stmts[0].(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, elseCompound.Stmts, 1)
	assert.Equal(t, zInc, elseCompound.Stmts[0])
	assert.Equal(t, yInc, body.Stmts[1])
}

// LoopToSeq: while(true){ A; if(c){T;break;} else {E;break;} } ->
// A; if(c){T;} else {E;} (after breaks are discharged to nulls).
func TestLoopRefineLoopToSeq(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	s1 := bld.CreateAssign("s1", bld.CreateIdent("s1", nil), nil)
	tBranch := bld.CreateAssign("t", bld.CreateIdent("t", nil), nil)
	eBranch := bld.CreateAssign("e", bld.CreateIdent("e", nil), nil)
	cond := eqCmp(bld, "c", 1)
	ifs := bld.CreateIf(
		cond,
		bld.CreateCompoundStmt([]ast.Stmt{tBranch, bld.CreateBreak()}),
		bld.CreateCompoundStmt([]ast.Stmt{eBranch, bld.CreateBreak()}),
	)
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{s1, ifs}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	require.True(t, p.Apply(fn))

	// The while(true) wrapper is gone; its body's statements replace it.
	require.Len(t, fn.Body.Stmts, 2)
	assert.Equal(t, s1, fn.Body.Stmts[0])
	resultIf, ok := fn.Body.Stmts[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.Same(t, cond, resultIf.Cond)

	thenBody, ok := resultIf.Then.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, thenBody.Stmts, 2)
	assert.Equal(t, tBranch, thenBody.Stmts[0])
	_, isNull := thenBody.Stmts[1].(*ast.NullStmt)
	assert.True(t, isNull, "the discharged break should become a null statement")
}

// Loops that don't match any of the six rules (no break anywhere) are
// left untouched.
func TestLoopRefineLeavesNonMatchingLoopAlone(t *testing.T) {
	bld := astbuild.New(ast.NewIDGen(), provenance.New())
	yInc := bld.CreateAssign("y", bld.CreateIdent("y", nil), nil)
	loop := bld.CreateWhile(bld.CreateIntLit(true, nil), bld.CreateCompoundStmt([]ast.Stmt{yInc}))
	fn := newFn(bld, []ast.Stmt{loop})

	p := &refine.LoopRefine{Bld: bld}
	assert.False(t, p.Apply(fn))
}
