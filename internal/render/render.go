// Package render pretty-prints a reconstructed function's AST with C-style
// indentation. It is explicitly a demo/test printer, not a general-purpose
// code generator: it exists so cmd/reconstructor and package tests have
// readable output to assert on, not to guarantee round-trippable,
// production-quality source formatting.
package render

import (
	"fmt"
	"strings"

	"recondition/internal/ast"
)

const indentUnit = "    "

// FuncDecl renders a single function declaration.
func FuncDecl(d *ast.FuncDecl) string {
	var b strings.Builder
	var params strings.Builder
	for i, n := range d.ParamNames {
		if i > 0 {
			params.WriteString(", ")
		}
		params.WriteString(d.ParamTypes[i] + " " + n)
	}
	fmt.Fprintf(&b, "%s %s(%s) ", d.ReturnType, d.Name, params.String())
	writeCompound(&b, d.Body, 0)
	b.WriteString("\n")
	return b.String()
}

// TranslationUnit renders every function in a unit, in order.
func TranslationUnit(tu *ast.TranslationUnit) string {
	var b strings.Builder
	for i, fn := range tu.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FuncDecl(fn))
	}
	return b.String()
}

func writeCompound(b *strings.Builder, c *ast.CompoundStmt, depth int) {
	b.WriteString("{\n")
	for _, s := range c.Stmts {
		writeIndent(b, depth+1)
		writeStmt(b, s, depth+1)
		b.WriteString("\n")
	}
	writeIndent(b, depth)
	b.WriteString("}")
}

func writeStmt(b *strings.Builder, s ast.Stmt, depth int) {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		writeCompound(b, st, depth)
	case *ast.IfStmt:
		fmt.Fprintf(b, "if (%s) ", st.Cond.String())
		writeBranch(b, st.Then, depth)
		if st.Else != nil {
			b.WriteString(" else ")
			if elseIf, ok := st.Else.(*ast.IfStmt); ok {
				writeStmt(b, elseIf, depth)
			} else {
				writeBranch(b, st.Else, depth)
			}
		}
	case *ast.WhileStmt:
		fmt.Fprintf(b, "while (%s) ", st.Cond.String())
		writeBranch(b, st.Body, depth)
	case *ast.DoWhileStmt:
		b.WriteString("do ")
		writeBranch(b, st.Body, depth)
		fmt.Fprintf(b, " while (%s);", st.Cond.String())
	default:
		b.WriteString(s.String())
	}
}

// writeBranch renders an if/while/do-while's body, wrapping a
// non-compound single statement in braces so every branch reads
// uniformly regardless of what structuralization happened to leave
// there.
func writeBranch(b *strings.Builder, s ast.Stmt, depth int) {
	if c, ok := s.(*ast.CompoundStmt); ok {
		writeCompound(b, c, depth)
		return
	}
	b.WriteString("{\n")
	writeIndent(b, depth+1)
	writeStmt(b, s, depth+1)
	b.WriteString("\n")
	writeIndent(b, depth)
	b.WriteString("}")
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString(indentUnit)
	}
}
