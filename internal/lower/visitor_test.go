package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/ir"
	"recondition/internal/lower"
	"recondition/internal/provenance"
)

func newVisitor() (*lower.Visitor, *astbuild.Builder, *provenance.Map) {
	prov := provenance.New()
	bld := astbuild.New(ast.NewIDGen(), prov)
	return lower.New(bld), bld, prov
}

func TestValueMemoizesRepeatedLookups(t *testing.T) {
	vis, _, _ := newVisitor()
	v := &ir.Value{ID: 1, Name: "x"}

	e1 := vis.Value(v)
	e2 := vis.Value(v)
	assert.Same(t, e1, e2)
}

func TestValueOfNilIsNil(t *testing.T) {
	vis, _, _ := newVisitor()
	assert.Nil(t, vis.Value(nil))
}

func TestValueRegistersProvenanceForConst(t *testing.T) {
	vis, _, prov := newVisitor()
	c := &ir.ConstInstr{Value: 42}
	v := &ir.Value{ID: 1, Def: c}

	e := vis.Value(v)
	ent, ok := prov.Get(e.ID())
	require.True(t, ok)
	ie, ok := ent.(provenance.InstrEntity)
	assert.False(t, ok) // const lowers via ValueEntity, not InstrEntity
	_ = ie
	ve, ok := ent.(provenance.ValueEntity)
	require.True(t, ok)
	assert.Same(t, v, ve.Value)
}

func TestBinaryComparisonRecordsBoolAtomUseProvenance(t *testing.T) {
	vis, _, prov := newVisitor()
	l := &ir.Value{ID: 1, Name: "a"}
	r := &ir.Value{ID: 2, Name: "b"}
	cmp := &ir.BinaryInstr{Op: ir.OpLt, L: l, R: r}
	res := &ir.Value{ID: 3, Def: cmp}

	e := vis.Value(res)
	atom, ok := prov.GetUse(e.ID())
	require.True(t, ok)
	assert.Same(t, cmp, atom.Source)
}

func TestBinaryArithmeticHasNoUseProvenance(t *testing.T) {
	vis, _, prov := newVisitor()
	l := &ir.Value{ID: 1, Name: "a"}
	r := &ir.Value{ID: 2, Name: "b"}
	add := &ir.BinaryInstr{Op: ir.OpAdd, L: l, R: r}
	res := &ir.Value{ID: 3, Def: add}

	e := vis.Value(res)
	_, ok := prov.GetUse(e.ID())
	assert.False(t, ok)
}

func TestUnaryNotRecordsItsOwnBoolAtomUseProvenance(t *testing.T) {
	vis, bld, prov := newVisitor()
	l := &ir.Value{ID: 1, Name: "a"}
	r := &ir.Value{ID: 2, Name: "b"}
	cmp := &ir.BinaryInstr{Op: ir.OpEq, L: l, R: r}
	cmpVal := &ir.Value{ID: 3, Def: cmp}
	cmpExpr := vis.Value(cmpVal)
	_ = bld

	not := &ir.UnaryInstr{Op: ir.UnaryNot, X: cmpVal}
	notVal := &ir.Value{ID: 4, Def: not}
	notExpr := vis.Value(notVal)

	atom, ok := prov.GetUse(notExpr.ID())
	require.True(t, ok)
	assert.Same(t, not, atom.Source)

	cmpAtom, _ := prov.GetUse(cmpExpr.ID())
	assert.Same(t, cmp, cmpAtom.Source)
}

func TestStmtLowersCallWithResultToDeclStmt(t *testing.T) {
	vis, _, _ := newVisitor()
	res := &ir.Value{ID: 1, Name: "r", Type: &ir.IntType{Bits: 32, Signed: true}}
	call := &ir.CallInstr{Res: res, Callee: "helper"}
	res.Def = call

	stmt := vis.Stmt(call)
	decl, ok := stmt.(*ast.DeclStmt)
	require.True(t, ok)
	assert.Equal(t, "r", decl.Decl.Name)
	assert.Equal(t, "i32", decl.Decl.Type)
}

func TestStmtLowersVoidCallToExprStmt(t *testing.T) {
	vis, _, _ := newVisitor()
	call := &ir.CallInstr{Callee: "log"}

	stmt := vis.Stmt(call)
	_, ok := stmt.(*ast.ExprStmt)
	assert.True(t, ok)
}

func TestStmtLowersStoreToAssignExprStmt(t *testing.T) {
	vis, _, _ := newVisitor()
	addr := &ir.Value{ID: 1, Name: "p"}
	val := &ir.Value{ID: 2, Name: "v"}
	store := &ir.StoreInstr{Addr: addr, Val: val}

	stmt := vis.Stmt(store)
	exprStmt, ok := stmt.(*ast.ExprStmt)
	require.True(t, ok)
	bin, ok := exprStmt.X.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Assign, bin.Op)
}
