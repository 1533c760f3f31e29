// Package refine implements the post-structuralization cleanup passes:
// each Pass rewrites an already-valid AST into one a human would
// actually write, trading the structurer's conservative flat,
// RC-guarded sequence for proper if/else, while and do-while
// statements.
package refine

import "recondition/internal/ast"

// Pass rewrites a function's body in place and reports whether it
// changed anything. The pass manager (internal/pipeline) reruns a pass
// group until every pass in it reports false in the same round.
type Pass interface {
	Name() string
	Description() string
	Apply(fn *ast.FuncDecl) bool
}
