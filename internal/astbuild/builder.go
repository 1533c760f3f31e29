// Package astbuild implements the AST Builder: the sole factory for
// output AST nodes. No other package constructs ast nodes directly —
// centralizing construction here is what keeps provenance discipline
// intact: every expression node the Builder returns, and the statement
// and left-hand identifier CreateAssign builds, is already registered
// in the provenance map before the caller can touch it. The other
// statement and declaration constructors do not register their nodes.
package astbuild

import (
	"recondition/internal/ast"
	"recondition/internal/provenance"
)

// Builder centralizes construction of every output AST node kind. One
// Builder (and its IDGen/provenance.Map) is shared by a whole run:
// created at the start of structuralization, used by both
// structuralization and refinement.
type Builder struct {
	ids  *ast.IDGen
	prov *provenance.Map
}

func New(ids *ast.IDGen, prov *provenance.Map) *Builder {
	return &Builder{ids: ids, prov: prov}
}

func (b *Builder) register(id ast.NodeID, e provenance.Entity) {
	if e == nil {
		e = provenance.SyntheticEntity{}
	}
	b.prov.Set(id, e)
}

// --- Expressions ---

func (b *Builder) CreateIdent(name string, e provenance.Entity) *ast.IdentExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.IdentExpr{Name: name}
	n.SetID(id)
	return n
}

func (b *Builder) CreateIntLit(v interface{}, e provenance.Entity) *ast.LiteralExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.LiteralExpr{Value: v}
	n.SetID(id)
	return n
}

// CreateLNot builds `!expr`, copying use-provenance from expr's node so
// the derived negation still traces back to the comparison it negates.
func (b *Builder) CreateLNot(x ast.Expr, e provenance.Entity) *ast.UnaryExpr {
	id := b.ids.Next()
	b.register(id, e)
	b.prov.CopyUse(id, x.ID())
	n := &ast.UnaryExpr{Op: ast.LNot, X: x}
	n.SetID(id)
	return n
}

func (b *Builder) CreateUnary(op ast.UnaryOp, x ast.Expr, e provenance.Entity) *ast.UnaryExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.UnaryExpr{Op: op, X: x}
	n.SetID(id)
	return n
}

func (b *Builder) createBinary(op ast.BinaryOp, lhs, rhs ast.Expr, e provenance.Entity) *ast.BinaryExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.BinaryExpr{Op: op, L: lhs, R: rhs}
	n.SetID(id)
	return n
}

func (b *Builder) CreateBinary(op ast.BinaryOp, lhs, rhs ast.Expr, e provenance.Entity) *ast.BinaryExpr {
	return b.createBinary(op, lhs, rhs, e)
}

// CreateLAnd/CreateLOr build logical conjunctions/disjunctions; callers
// pass the use-provenance entity describing the composite guard, if
// one exists (reaching-condition disjuncts usually don't correspond to
// a single IR instruction, so e is often nil there).
func (b *Builder) CreateLAnd(lhs, rhs ast.Expr, e provenance.Entity) *ast.BinaryExpr {
	return b.createBinary(ast.LAnd, lhs, rhs, e)
}

func (b *Builder) CreateLOr(lhs, rhs ast.Expr, e provenance.Entity) *ast.BinaryExpr {
	return b.createBinary(ast.LOr, lhs, rhs, e)
}

func (b *Builder) CreateCast(typ string, x ast.Expr, e provenance.Entity) *ast.CastExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.CastExpr{Type: typ, X: x}
	n.SetID(id)
	return n
}

func (b *Builder) CreateCall(callee string, args []ast.Expr, e provenance.Entity) *ast.CallExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.CallExpr{Callee: callee, Args: args}
	n.SetID(id)
	return n
}

func (b *Builder) CreateMember(x ast.Expr, field string, e provenance.Entity) *ast.MemberExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.MemberExpr{X: x, Field: field}
	n.SetID(id)
	return n
}

func (b *Builder) CreateIndex(x, idx ast.Expr, e provenance.Entity) *ast.IndexExpr {
	id := b.ids.Next()
	b.register(id, e)
	n := &ast.IndexExpr{X: x, Index: idx}
	n.SetID(id)
	return n
}

func (b *Builder) CreateParen(x ast.Expr) *ast.ParenExpr {
	id := b.ids.Next()
	ent, _ := b.prov.Get(x.ID())
	b.register(id, ent)
	b.prov.CopyUse(id, x.ID())
	n := &ast.ParenExpr{X: x}
	n.SetID(id)
	return n
}

// --- Statements ---

func (b *Builder) CreateAssign(name string, rhs ast.Expr, e provenance.Entity) *ast.ExprStmt {
	id := b.ids.Next()
	b.register(id, e)
	identID := b.ids.Next()
	b.register(identID, e)
	ident := &ast.IdentExpr{Name: name}
	ident.SetID(identID)
	expr := b.createBinary(ast.Assign, ident, rhs, e)
	n := &ast.ExprStmt{X: expr}
	n.SetID(id)
	return n
}

func (b *Builder) CreateExprStmt(x ast.Expr) *ast.ExprStmt {
	id := b.ids.Next()
	n := &ast.ExprStmt{X: x}
	n.SetID(id)
	return n
}

func (b *Builder) CreateCompoundStmt(stmts []ast.Stmt) *ast.CompoundStmt {
	id := b.ids.Next()
	n := &ast.CompoundStmt{Stmts: stmts}
	n.SetID(id)
	return n
}

func (b *Builder) CreateIf(cond ast.Expr, then ast.Stmt, els ast.Stmt) *ast.IfStmt {
	id := b.ids.Next()
	n := &ast.IfStmt{Cond: cond, Then: then, Else: els}
	n.SetID(id)
	return n
}

func (b *Builder) CreateWhile(cond ast.Expr, body ast.Stmt) *ast.WhileStmt {
	id := b.ids.Next()
	n := &ast.WhileStmt{Cond: cond, Body: body}
	n.SetID(id)
	return n
}

func (b *Builder) CreateDo(body ast.Stmt, cond ast.Expr) *ast.DoWhileStmt {
	id := b.ids.Next()
	n := &ast.DoWhileStmt{Body: body, Cond: cond}
	n.SetID(id)
	return n
}

func (b *Builder) CreateBreak() *ast.BreakStmt {
	id := b.ids.Next()
	n := &ast.BreakStmt{}
	n.SetID(id)
	return n
}

func (b *Builder) CreateReturn(v ast.Expr) *ast.ReturnStmt {
	id := b.ids.Next()
	n := &ast.ReturnStmt{Value: v}
	n.SetID(id)
	return n
}

func (b *Builder) CreateNull() *ast.NullStmt {
	id := b.ids.Next()
	n := &ast.NullStmt{}
	n.SetID(id)
	return n
}

func (b *Builder) CreateVarDecl(name, typ string, init ast.Expr) *ast.VarDecl {
	id := b.ids.Next()
	n := &ast.VarDecl{Name: name, Type: typ, Init: init}
	n.SetID(id)
	return n
}

func (b *Builder) CreateDeclStmt(decl *ast.VarDecl) *ast.DeclStmt {
	id := b.ids.Next()
	n := &ast.DeclStmt{Decl: decl}
	n.SetID(id)
	return n
}

func (b *Builder) CreateFunc(name string, paramNames, paramTypes []string, retType string, body *ast.CompoundStmt) *ast.FuncDecl {
	id := b.ids.Next()
	n := &ast.FuncDecl{
		Name:       name,
		ParamNames: paramNames,
		ParamTypes: paramTypes,
		ReturnType: retType,
		Body:       body,
	}
	n.SetID(id)
	return n
}

func (b *Builder) CreateTranslationUnit(fns []*ast.FuncDecl) *ast.TranslationUnit {
	id := b.ids.Next()
	n := &ast.TranslationUnit{Functions: fns}
	n.SetID(id)
	return n
}

// Provenance exposes the builder's provenance map read-only access for
// passes that need to query (not construct through) it.
func (b *Builder) Provenance() *provenance.Map { return b.prov }
