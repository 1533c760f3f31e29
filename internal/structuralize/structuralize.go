package structuralize

import (
	"fmt"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/ir"
	"recondition/internal/lower"
)

// Run structuralizes fn into a FuncDecl: a first-cut, goto-free AST
// built from per-block reaching conditions. It never mutates fn; all
// CFG rewriting (critical-edge and loop-exit-edge splitting) happens on
// a private clone.
func Run(fn *ir.Function, bld *astbuild.Builder) *ast.FuncDecl {
	cloned := cloneFunction(fn)
	SplitCriticalEdges(cloned)

	dt0 := BuildDomTree(cloned)
	loops0 := FindLoops(cloned, dt0)
	carriers := SplitLoopExitEdges(cloned, loops0)

	dt := BuildDomTree(cloned)
	loops := FindLoops(cloned, dt)

	vis := lower.New(bld)
	rcb := NewRCBuilder(dt, loops, vis, bld)
	rc := rcb.Compute(cloned)

	parent := computeParentScopes(dt, loops)

	em := &emitter{
		dt:       dt,
		loops:    loops,
		carriers: carriers,
		parent:   parent,
		vis:      vis,
		bld:      bld,
		rc:       rc,
	}
	body := em.run()

	paramNames := make([]string, len(fn.Params))
	paramTypes := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		paramNames[i] = p.Name
		paramTypes[i] = p.Type.String()
	}
	retType := "void"
	if fn.ReturnType != nil {
		retType = fn.ReturnType.String()
	}
	return bld.CreateFunc(fn.Name, paramNames, paramTypes, retType, bld.CreateCompoundStmt(body))
}

// computeParentScopes maps each loop to the scope its while(true)
// statement must be emitted into. A header's immediate dominator can
// never be inside the header's own loop body (that would make the
// header dominate its own dominator), so it always names a safe outer
// scope.
func computeParentScopes(dt *DomTree, loops *Forest) map[*Loop]*Loop {
	parent := make(map[*Loop]*Loop)
	for _, b := range dt.RPO() {
		loop := loops.HeaderLoop(b)
		if loop == nil {
			continue
		}
		idom := dt.IDom(b)
		if idom == nil {
			parent[loop] = nil
			continue
		}
		parent[loop] = loops.LoopOf(idom)
	}
	return parent
}

type emitter struct {
	dt       *DomTree
	loops    *Forest
	carriers map[*ir.BasicBlock]*Loop
	parent   map[*Loop]*Loop
	vis      *lower.Visitor
	bld      *astbuild.Builder
	rc       map[*ir.BasicBlock]ast.Expr
	done     map[*ir.BasicBlock]bool
}

func (e *emitter) scopeOf(b *ir.BasicBlock) *Loop {
	if l, ok := e.carriers[b]; ok {
		return l
	}
	return e.loops.LoopOf(b)
}

// run emits every reachable block once, in reverse postorder, into the
// statement list of the scope it belongs to: the function body, or the
// body of the while(true) wrapping its (innermost) loop.
func (e *emitter) run() []ast.Stmt {
	e.done = make(map[*ir.BasicBlock]bool)
	return e.emitScope(nil)
}

// emitScope collects the guarded statements of every block whose scope
// is exactly scope, in reverse postorder. A nested loop's entire region
// is emitted (recursively) at the point its header is reached — the
// header dominates every block of its loop, so it is always the first
// of them in the RPO — which keeps each loop's blocks together inside
// one while(true) even when the RPO interleaves them with blocks that
// follow the loop.
func (e *emitter) emitScope(scope *Loop) []ast.Stmt {
	var stmts []ast.Stmt
	for _, b := range e.dt.RPO() {
		if e.done[b] {
			continue
		}
		s := e.scopeOf(b)
		if s == scope {
			e.done[b] = true
			stmts = append(stmts, e.emitBlock(b)...)
			continue
		}
		child := e.childOf(s, scope)
		if child == nil || b != child.Header {
			continue
		}
		body := e.emitScope(child)
		stmts = append(stmts, e.bld.CreateWhile(e.bld.CreateIntLit(true, nil), e.bld.CreateCompoundStmt(body)))
	}
	return stmts
}

// childOf climbs the loop-nesting chain from s to the loop whose parent
// scope is scope, or nil when s does not nest inside scope at all.
func (e *emitter) childOf(s, scope *Loop) *Loop {
	for l := s; l != nil; l = e.parent[l] {
		if e.parent[l] == scope {
			return l
		}
	}
	return nil
}

// emitBlock lowers one block to its guarded statement: the block's own
// instructions, any phi-selector assignments owed to its outgoing
// edges, and (for a loop-exit carrier) a trailing break — all wrapped
// in `if (RC) { ... }` unless RC is "true".
func (e *emitter) emitBlock(b *ir.BasicBlock) []ast.Stmt {
	var body []ast.Stmt
	for _, instr := range b.Instructions {
		if _, ok := instr.(*ir.PhiInstr); ok {
			continue // bound by the predecessor edge that feeds it, not here
		}
		body = append(body, e.vis.Stmt(instr))
	}
	body = append(body, e.phiAssignments(b)...)

	switch term := b.Terminator.(type) {
	case *ir.RetTerm:
		body = append(body, e.bld.CreateReturn(e.vis.Value(term.Value)))
	case *ir.UnreachableTerm:
		// A reachable block the loader swore was unreachable; fatal for
		// this function, recovered at the per-function boundary.
		panic(fmt.Sprintf("unsupported construct: unreachable terminator in reachable block %s", b.Label))
	}
	if _, ok := e.carriers[b]; ok {
		body = append(body, e.bld.CreateBreak())
	}

	cond := e.rc[b]
	if cond == nil {
		return body
	}
	return []ast.Stmt{e.bld.CreateIf(cond, e.bld.CreateCompoundStmt(body), nil)}
}

// phiAssignments emits `selector = value` for every phi in every
// successor of b that reads its input for this specific edge.
func (e *emitter) phiAssignments(b *ir.BasicBlock) []ast.Stmt {
	if b.Terminator == nil {
		return nil
	}
	var stmts []ast.Stmt
	for _, succ := range b.Terminator.Successors() {
		if succ == nil {
			continue
		}
		for _, instr := range succ.Instructions {
			phi, ok := instr.(*ir.PhiInstr)
			if !ok {
				continue
			}
			v, ok := phi.Inputs[b]
			if !ok {
				continue
			}
			rhs := e.vis.Value(v)
			stmts = append(stmts, e.bld.CreateAssign(phi.Res.String(), rhs, nil))
		}
	}
	return stmts
}
