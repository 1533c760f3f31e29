// Package pipeline implements the pass manager: it drives a function
// from raw IR through structuralization and the refinement phases —
// an ordered list of named passes, each group run to a fixpoint under
// a hard iteration cap.
package pipeline

import (
	"fmt"
	"log"
	"time"

	"recondition/internal/ast"
	"recondition/internal/astbuild"
	"recondition/internal/ir"
	"recondition/internal/provenance"
	"recondition/internal/refine"
	"recondition/internal/simplify"
	"recondition/internal/structuralize"
)

// MaxIterations bounds every fixpoint phase; exceeding it means a pass
// is oscillating rather than converging, which is a bug in that pass,
// not a property of the input.
const MaxIterations = 10_000

// InvariantViolation is raised when a fixpoint phase fails to converge
// within MaxIterations rounds.
type InvariantViolation struct {
	Phase string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("pipeline: phase %q did not reach a fixpoint within %d iterations", e.Phase, MaxIterations)
}

// Config holds the tactic pipelines the two simplifier instances run:
// a cheap one for the condition-based-refinement fixpoint and a
// heavier one for the final phase.
type Config struct {
	CBRTactics   string
	FinalTactics string
	SMTTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		CBRTactics:   "aig && simplify",
		FinalTactics: "aig && propagate-bv-bounds && tseitin-cnf && ctx-simplify",
		SMTTimeout:   10 * time.Second,
	}
}

// Manager runs one function through the full pipeline, reusing one
// AST Builder (and therefore one provenance.Map) across every phase —
// provenance must stay total for the whole run, not just one phase.
type Manager struct {
	cfg  Config
	bld  *astbuild.Builder
	prov *provenance.Map
}

func New(cfg Config) *Manager {
	prov := provenance.New()
	bld := astbuild.New(ast.NewIDGen(), prov)
	return &Manager{cfg: cfg, bld: bld, prov: prov}
}

// Provenance exposes the run's provenance map for callers that want to
// check totality or render diagnostics against it afterwards.
func (m *Manager) Provenance() *provenance.Map { return m.prov }

// Run structuralizes fn and carries it through every refinement phase.
func (m *Manager) Run(fn *ir.Function) (*ast.FuncDecl, error) {
	cbrSimp, err := simplify.New(m.cfg.CBRTactics, m.bld, m.cfg.SMTTimeout)
	if err != nil {
		return nil, err
	}
	finalSimp, err := simplify.New(m.cfg.FinalTactics, m.bld, m.cfg.SMTTimeout)
	if err != nil {
		return nil, err
	}

	decl := structuralize.Run(fn, m.bld)

	dead := &refine.DeadStmtElim{Prov: m.prov, Bld: m.bld}
	dead.Apply(decl)

	cbrPhase := []refine.Pass{
		&refine.ConditionSimplifier{Simp: cbrSimp},
		&refine.NestedCondProp{Bld: m.bld, Simp: cbrSimp},
		&refine.NestedScopeComb{Simp: cbrSimp},
		&refine.CondBasedRefine{Bld: m.bld, Simp: cbrSimp},
		&refine.DeadStmtElim{Prov: m.prov, Bld: m.bld},
	}
	if err := runToFixpoint("condition-based-refinement", decl, cbrPhase); err != nil {
		return nil, err
	}

	loopPhase := []refine.Pass{
		&refine.LoopRefine{Bld: m.bld},
		&refine.NestedScopeComb{},
	}
	if err := runToFixpoint("loop-refinement", decl, loopPhase); err != nil {
		return nil, err
	}

	finalPhase := []refine.Pass{
		&refine.ConditionSimplifier{Simp: finalSimp},
		&refine.NestedCondProp{Bld: m.bld, Simp: finalSimp},
		&refine.NestedScopeComb{Simp: finalSimp},
		&refine.StmtCombine{Bld: m.bld},
	}
	for _, p := range finalPhase {
		runPass("final", p, decl)
	}

	return decl, nil
}

func runToFixpoint(phase string, decl *ast.FuncDecl, passes []refine.Pass) error {
	for i := 0; i < MaxIterations; i++ {
		changed := false
		for _, p := range passes {
			if runPass(phase, p, decl) {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return &InvariantViolation{Phase: phase}
}

// runPass applies one pass, tracing its start/stop and duration via
// the standard log package — low-volume operational tracing, not a
// diagnostic (diagnostics carry real findings; this is just "what ran
// and how long it took").
func runPass(phase string, p refine.Pass, decl *ast.FuncDecl) bool {
	start := time.Now()
	log.Printf("pipeline: phase %s: pass %s starting", phase, p.Name())
	changed := p.Apply(decl)
	log.Printf("pipeline: phase %s: pass %s finished in %s (changed=%v)", phase, p.Name(), time.Since(start), changed)
	return changed
}
