package structuralize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondition/internal/ir"
	"recondition/internal/structuralize"
)

// diamond builds entry -> {left, right} -> join -> ret, a minimal
// if/else-shaped CFG with no loops.
func diamond() *ir.Function {
	entry := &ir.BasicBlock{ID: 0, Label: "entry"}
	left := &ir.BasicBlock{ID: 1, Label: "left"}
	right := &ir.BasicBlock{ID: 2, Label: "right"}
	join := &ir.BasicBlock{ID: 3, Label: "join"}

	cond := &ir.Value{ID: 1, Name: "cond", Type: &ir.BoolType{}}
	entry.Terminator = &ir.CondBranchTerm{Blk: entry, Cond: cond, True: left, False: right}
	left.Terminator = &ir.JumpTerm{Blk: left, Target: join}
	right.Terminator = &ir.JumpTerm{Blk: right, Target: join}
	join.Terminator = &ir.RetTerm{Blk: join}

	entry.Succs = []*ir.BasicBlock{left, right}
	left.Preds = []*ir.BasicBlock{entry}
	left.Succs = []*ir.BasicBlock{join}
	right.Preds = []*ir.BasicBlock{entry}
	right.Succs = []*ir.BasicBlock{join}
	join.Preds = []*ir.BasicBlock{left, right}

	return &ir.Function{
		Name:       "diamond",
		ReturnType: &ir.VoidType{},
		Blocks:     []*ir.BasicBlock{entry, left, right, join},
	}
}

func TestBuildDomTreeOnDiamond(t *testing.T) {
	fn := diamond()
	dt := structuralize.BuildDomTree(fn)

	entry, left, right, join := fn.Blocks[0], fn.Blocks[1], fn.Blocks[2], fn.Blocks[3]

	assert.Nil(t, dt.IDom(entry))
	assert.Same(t, entry, dt.IDom(left))
	assert.Same(t, entry, dt.IDom(right))
	// join has two predecessors, so entry (not left or right) is its
	// immediate dominator.
	assert.Same(t, entry, dt.IDom(join))

	assert.True(t, dt.Dominates(entry, join))
	assert.False(t, dt.Dominates(left, join))
}

func TestRPOVisitsEntryFirst(t *testing.T) {
	fn := diamond()
	dt := structuralize.BuildDomTree(fn)
	rpo := dt.RPO()
	require.NotEmpty(t, rpo)
	assert.Same(t, fn.Blocks[0], rpo[0])
}

// loopedFunc builds entry -> header -> body -> header (back edge), with
// header -> exit leaving the loop.
func loopedFunc() *ir.Function {
	entry := &ir.BasicBlock{ID: 0, Label: "entry"}
	header := &ir.BasicBlock{ID: 1, Label: "header"}
	body := &ir.BasicBlock{ID: 2, Label: "body"}
	exit := &ir.BasicBlock{ID: 3, Label: "exit"}

	cond := &ir.Value{ID: 1, Name: "cond", Type: &ir.BoolType{}}
	entry.Terminator = &ir.JumpTerm{Blk: entry, Target: header}
	header.Terminator = &ir.CondBranchTerm{Blk: header, Cond: cond, True: body, False: exit}
	body.Terminator = &ir.JumpTerm{Blk: body, Target: header}
	exit.Terminator = &ir.RetTerm{Blk: exit}

	entry.Succs = []*ir.BasicBlock{header}
	header.Preds = []*ir.BasicBlock{entry, body}
	header.Succs = []*ir.BasicBlock{body, exit}
	body.Preds = []*ir.BasicBlock{header}
	body.Succs = []*ir.BasicBlock{header}
	exit.Preds = []*ir.BasicBlock{header}

	return &ir.Function{
		Name:       "looped",
		ReturnType: &ir.VoidType{},
		Blocks:     []*ir.BasicBlock{entry, header, body, exit},
	}
}

func TestFindLoopsDetectsNaturalLoop(t *testing.T) {
	fn := loopedFunc()
	dt := structuralize.BuildDomTree(fn)
	loops := structuralize.FindLoops(fn, dt)

	header, body, exit := fn.Blocks[1], fn.Blocks[2], fn.Blocks[3]

	assert.True(t, loops.IsHeader(header))
	assert.NotNil(t, loops.LoopOf(body))
	assert.Same(t, loops.HeaderLoop(header), loops.LoopOf(body))
	assert.Nil(t, loops.LoopOf(exit))
}

func TestFindLoopsRecordsExit(t *testing.T) {
	fn := loopedFunc()
	dt := structuralize.BuildDomTree(fn)
	loops := structuralize.FindLoops(fn, dt)

	header := fn.Blocks[1]
	loop := loops.HeaderLoop(header)
	require.NotNil(t, loop)
	require.Len(t, loop.Exits, 1)
	assert.Equal(t, header, loop.Exits[0].From)
	assert.Equal(t, fn.Blocks[3], loop.Exits[0].To)
}
