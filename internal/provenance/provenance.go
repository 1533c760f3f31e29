// Package provenance implements the bidirectional mapping between AST
// nodes and IR entities. It is a side-map keyed by stable ast.NodeID —
// never a back-pointer on the AST node itself, so the AST stays a
// strict tree.
package provenance

import (
	"fmt"

	"recondition/internal/ast"
	"recondition/internal/ir"
)

// Entity is whatever IR thing an AST node was derived from: a Value, an
// Instruction (including a Terminator), or a synthesized BoolAtom for
// provenance on comparisons that don't correspond to a single IR
// instruction (e.g. a rewritten guard).
type Entity interface {
	isEntity()
}

type ValueEntity struct{ Value *ir.Value }

func (ValueEntity) isEntity() {}

type InstrEntity struct{ Instr ir.Instruction }

func (InstrEntity) isEntity() {}

// BoolAtom names the IR comparison (or derived boolean) a use-provenance
// entry tracks for a boolean subterm.
type BoolAtom struct {
	Source ir.Instruction // the comparison/boolean instruction, if any
	Label  string         // human-readable description when Source is nil (e.g. a derived negation)
}

func (BoolAtom) isEntity() {}

// SyntheticEntity marks a node with no single IR counterpart — a
// reaching-condition connective, a rewritten guard, a structurally
// required literal. Registering these keeps Get total over the final
// AST (every node answers "where did you come from", even if the
// answer is "synthesized"); use-provenance still records the IR
// comparison a boolean subterm stands for where one exists.
type SyntheticEntity struct{}

func (SyntheticEntity) isEntity() {}

// Map is the provenance side-table for one run. It is owned by the
// per-run context alongside the AST and is never consulted for
// identity comparisons — only for traceability.
type Map struct {
	nodes map[ast.NodeID]Entity
	uses  map[ast.NodeID]BoolAtom
}

func New() *Map {
	return &Map{
		nodes: make(map[ast.NodeID]Entity),
		uses:  make(map[ast.NodeID]BoolAtom),
	}
}

// Set records the IR entity an AST node was created from. Every
// expression node the lowering visitor or the structurer creates must
// be registered before it is exposed to refinement.
func (m *Map) Set(id ast.NodeID, e Entity) {
	m.nodes[id] = e
}

// Get returns the entity registered for id, and whether one exists.
func (m *Map) Get(id ast.NodeID) (Entity, bool) {
	e, ok := m.nodes[id]
	return e, ok
}

// MustGet is Get, but panics on a missing entry. A query before
// registration is a programmer error, not a runtime condition to
// recover from.
func (m *Map) MustGet(id ast.NodeID) Entity {
	e, ok := m.nodes[id]
	if !ok {
		panic(fmt.Sprintf("provenance: node %d queried before registration", id))
	}
	return e
}

// SetUse records which IR comparison/boolean operation a boolean
// subterm represents.
func (m *Map) SetUse(id ast.NodeID, atom BoolAtom) {
	m.uses[id] = atom
}

// GetUse returns the use-provenance entry for id, if any.
func (m *Map) GetUse(id ast.NodeID) (BoolAtom, bool) {
	a, ok := m.uses[id]
	return a, ok
}

// CopyUse propagates use-provenance from src to dst, so that a node a
// pass derives from an existing one (e.g. a logical negation) still
// traces to the same comparison. It is idempotent; callers never need
// to guard against a double copy.
func (m *Map) CopyUse(dst, src ast.NodeID) {
	if a, ok := m.uses[src]; ok {
		m.uses[dst] = a
	}
}

// Forget marks a node's provenance entries eligible for GC after
// DeadStmtElim removes the node. The entries must never be reused for
// a different node afterwards.
func (m *Map) Forget(id ast.NodeID) {
	delete(m.nodes, id)
	delete(m.uses, id)
}

// Total reports whether every id in ids has a provenance entry.
func (m *Map) Total(ids []ast.NodeID) bool {
	for _, id := range ids {
		if _, ok := m.nodes[id]; !ok {
			return false
		}
	}
	return true
}
