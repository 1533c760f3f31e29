package ast

import "strings"

// Decl is a top-level or local declaration.
type Decl interface {
	Node
	isDecl()
}

func (*VarDecl) isDecl()         {}
func (*FuncDecl) isDecl()        {}
func (*TranslationUnit) isDecl() {}

type VarDecl struct {
	idBase
	Name string
	Type string
	Init Expr // nil if uninitialized
}

func (*VarDecl) NodeType() NodeType { return VarDeclType }
func (d *VarDecl) String() string {
	if d.Init != nil {
		return d.Type + " " + d.Name + " = " + d.Init.String() + ";"
	}
	return d.Type + " " + d.Name + ";"
}

type FuncDecl struct {
	idBase
	Name       string
	ParamNames []string
	ParamTypes []string
	ReturnType string
	Body       *CompoundStmt
}

func (*FuncDecl) NodeType() NodeType { return FuncDeclType }
func (d *FuncDecl) String() string {
	var params strings.Builder
	for i, n := range d.ParamNames {
		if i > 0 {
			params.WriteString(", ")
		}
		params.WriteString(d.ParamTypes[i] + " " + n)
	}
	return d.ReturnType + " " + d.Name + "(" + params.String() + ") " + d.Body.String()
}

// TranslationUnit is the AST root: the whole decompiled module.
type TranslationUnit struct {
	idBase
	Functions []*FuncDecl
}

func (*TranslationUnit) NodeType() NodeType { return TranslationUnitType }
func (d *TranslationUnit) String() string {
	var b strings.Builder
	for _, fn := range d.Functions {
		b.WriteString(fn.String())
		b.WriteString("\n")
	}
	return b.String()
}
