// Package ast defines the output translation-unit AST: a tree of typed
// nodes in a C-family grammar (expressions, structured-control-flow
// statements, declarations) that refinement rewrites in place and an
// external printer renders as source text.
package ast

// NodeID uniquely identifies a node for the lifetime of a run. It is
// the key provenance is indexed by (internal/provenance) — never a
// back-pointer on the node itself, so the AST stays a strict tree.
type NodeID uint32

// NodeType tags the concrete Go type of a Node for switch-free
// dispatch where that's convenient (e.g. debug printing).
type NodeType int

const (
	_ NodeType = iota
	IdentExprType
	LiteralExprType
	UnaryExprType
	BinaryExprType
	CastExprType
	CallExprType
	MemberExprType
	IndexExprType
	ParenExprType

	DeclStmtType
	CompoundStmtType
	IfStmtType
	WhileStmtType
	DoWhileStmtType
	BreakStmtType
	ReturnStmtType
	ExprStmtType
	NullStmtType

	VarDeclType
	FuncDeclType
	TranslationUnitType
)

// Node is implemented by every expression, statement and declaration.
type Node interface {
	ID() NodeID
	NodeType() NodeType
	String() string
}

// idBase is embedded by every concrete node to give it a stable ID
// without requiring a back-pointer to any side-table.
type idBase struct {
	id NodeID
}

func (b *idBase) ID() NodeID     { return b.id }
func (b *idBase) SetID(id NodeID) { b.id = id }

// IDGen hands out increasing NodeIDs. One IDGen is shared by the AST
// Builder for the lifetime of a run.
type IDGen struct{ next NodeID }

func NewIDGen() *IDGen { return &IDGen{next: 1} }

func (g *IDGen) Next() NodeID {
	id := g.next
	g.next++
	return id
}
