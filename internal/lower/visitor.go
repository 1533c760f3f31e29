// Package lower implements the IR-to-expression visitor: for each
// IR value kind it produces one corresponding AST expression and
// registers its provenance. Side-effecting instructions are lowered as
// statements (declaration-with-initializer, or a bare expression
// statement) by Visitor.Stmt; Visitor.Value lowers a value reference
// for use in an operand position, memoized so repeated uses of the
// same SSA value share one AST expression node's provenance lineage.
package lower

import (
	"fmt"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/ir"
	"recondition/internal/provenance"
)

type Visitor struct {
	b     *astbuild.Builder
	cache map[*ir.Value]ast.Expr
}

func New(b *astbuild.Builder) *Visitor {
	return &Visitor{b: b, cache: make(map[*ir.Value]ast.Expr)}
}

// Value lowers a reference to an SSA value into an AST expression.
// PhiInstr values lower to a reference to their materialized selector
// variable rather than to a phi node — the structuralizer is
// responsible for emitting the selector's assignment on each
// predecessor edge.
func (v *Visitor) Value(val *ir.Value) ast.Expr {
	if val == nil {
		return nil
	}
	if e, ok := v.cache[val]; ok {
		return e
	}

	var e ast.Expr
	switch instr := val.Def.(type) {
	case *ir.ConstInstr:
		e = v.b.CreateIntLit(instr.Value, provenance.ValueEntity{Value: val})
	case *ir.UnaryInstr:
		e = v.unary(val, instr)
	case *ir.BinaryInstr:
		e = v.binary(val, instr)
	default:
		// PhiInstr, LoadInstr, CallInstr results, and block parameters
		// with no Def all surface as a named variable reference; their
		// defining computation (if any) was already emitted as a
		// declaration statement by Stmt when the block body was lowered.
		e = v.b.CreateIdent(val.String(), provenance.ValueEntity{Value: val})
	}
	v.cache[val] = e
	return e
}

func (v *Visitor) unary(val *ir.Value, instr *ir.UnaryInstr) ast.Expr {
	op := mapUnaryOp(instr.Op)
	x := v.Value(instr.X)
	e := v.b.CreateUnary(op, x, provenance.InstrEntity{Instr: instr})
	if op == ast.LNot {
		v.b.Provenance().SetUse(e.ID(), provenance.BoolAtom{Source: instr})
	}
	return e
}

func (v *Visitor) binary(val *ir.Value, instr *ir.BinaryInstr) ast.Expr {
	op := mapBinaryOp(instr.Op)
	lhs := v.Value(instr.L)
	rhs := v.Value(instr.R)
	e := v.b.CreateBinary(op, lhs, rhs, provenance.InstrEntity{Instr: instr})
	if instr.Op.IsComparison() || instr.Op.IsLogical() {
		v.b.Provenance().SetUse(e.ID(), provenance.BoolAtom{Source: instr})
	}
	return e
}

// Stmt lowers a side-effecting instruction that appears directly in a
// block body to a statement: a declaration-with-initializer when it
// produces a value (binding the SSA name so later Value() lookups
// resolve to that name), or a bare expression statement otherwise.
func (v *Visitor) Stmt(instr ir.Instruction) ast.Stmt {
	switch in := instr.(type) {
	case *ir.CallInstr:
		args := make([]ast.Expr, len(in.Args))
		for i, a := range in.Args {
			args[i] = v.Value(a)
		}
		call := v.b.CreateCall(in.Callee, args, provenance.InstrEntity{Instr: in})
		if in.Res == nil {
			return v.b.CreateExprStmt(call)
		}
		decl := v.b.CreateVarDecl(in.Res.String(), typeName(in.Res.Type), call)
		v.cache[in.Res] = v.b.CreateIdent(in.Res.String(), provenance.ValueEntity{Value: in.Res})
		return v.b.CreateDeclStmt(decl)
	case *ir.LoadInstr:
		addr := v.Value(in.Addr)
		load := v.b.CreateUnary("*", addr, provenance.InstrEntity{Instr: in})
		decl := v.b.CreateVarDecl(in.Res.String(), typeName(in.Res.Type), load)
		v.cache[in.Res] = v.b.CreateIdent(in.Res.String(), provenance.ValueEntity{Value: in.Res})
		return v.b.CreateDeclStmt(decl)
	case *ir.StoreInstr:
		addr := v.Value(in.Addr)
		val := v.Value(in.Val)
		deref := v.b.CreateUnary("*", addr, nil)
		assign := v.b.CreateBinary(ast.Assign, deref, val, provenance.InstrEntity{Instr: in})
		return v.b.CreateExprStmt(assign)
	case *ir.ConstInstr, *ir.UnaryInstr, *ir.BinaryInstr:
		// Pure; the initial AST is conservative and always binds the
		// result to a declaration. The cache keeps the expression itself
		// for res, so later Value() uses inline it rather than naming
		// the declared variable.
		res := instr.Result()
		e := v.Value(res)
		decl := v.b.CreateVarDecl(res.String(), typeName(res.Type), e)
		return v.b.CreateDeclStmt(decl)
	default:
		return v.b.CreateExprStmt(v.b.CreateIdent(fmt.Sprintf("<unhandled %T>", instr), nil))
	}
}

func mapUnaryOp(op ir.UnaryOp) ast.UnaryOp {
	switch op {
	case ir.UnaryNot:
		return ast.LNot
	case ir.UnaryNeg:
		return ast.Neg
	case ir.UnaryBitNot:
		return ast.BitNot
	default:
		return ast.UnaryOp(op)
	}
}

func mapBinaryOp(op ir.BinaryOp) ast.BinaryOp {
	// ir.BinaryOp and ast.BinaryOp share the same operator spellings by
	// construction; this mapping exists so the two enums can still
	// diverge independently (e.g. if the output grammar ever needs an
	// operator the IR doesn't have, or vice versa).
	switch op {
	case ir.OpAdd:
		return ast.Add
	case ir.OpSub:
		return ast.Sub
	case ir.OpMul:
		return ast.Mul
	case ir.OpDiv:
		return ast.Div
	case ir.OpMod:
		return ast.Mod
	case ir.OpEq:
		return ast.Eq
	case ir.OpNeq:
		return ast.Neq
	case ir.OpLt:
		return ast.Lt
	case ir.OpLeq:
		return ast.Leq
	case ir.OpGt:
		return ast.Gt
	case ir.OpGeq:
		return ast.Geq
	case ir.OpAnd:
		return ast.BitAnd
	case ir.OpOr:
		return ast.BitOr
	case ir.OpXor:
		return ast.BitXor
	case ir.OpShl:
		return ast.Shl
	case ir.OpShr:
		return ast.Shr
	case ir.OpLAnd:
		return ast.LAnd
	case ir.OpLOr:
		return ast.LOr
	default:
		return ast.BinaryOp(op)
	}
}

func typeName(t ir.Type) string {
	if t == nil {
		return "var"
	}
	return t.String()
}
