package region

import (
	"testing"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blk struct {
	exit   block.Exit
	instrs []block.Instr
}

func build(t *testing.T, blocks ...blk) *flowgraph.FlowGraph {
	t.Helper()
	g := flowgraph.New(flowgraph.AllowForward())
	for _, b := range blocks {
		_, err := g.AddBlock(b.exit, b.instrs...)
		require.NoError(t, err)
	}
	require.NoError(t, g.Resolve())
	return g
}

func exits(es ...block.Exit) []blk {
	out := make([]blk, len(es))
	for i, e := range es {
		out[i] = blk{exit: e}
	}
	return out
}

func detect(t *testing.T, g *flowgraph.FlowGraph) *Result {
	t.Helper()
	return NewDetector().Detect(g)
}

func TestIfElse(t *testing.T) {
	g := build(t, exits(
		block.CondJump{True: 1, False: 2},
		block.Jump{Target: 3},
		block.Jump{Target: 3},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Conditionals, 1)
	c := r.Conditionals[0]
	assert.Equal(t, IfElse, c.Shape)
	assert.Equal(t, 3, c.Merge)
	assert.Equal(t, []int{1}, c.Then)
	assert.Equal(t, []int{2}, c.Else)
	assert.Empty(t, c.Candidates)
}

func TestGuardedExit(t *testing.T) {
	g := build(t, exits(
		block.CondJump{True: 1, False: 2},
		block.Jump{Target: 3},
		block.Raise{},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Conditionals, 1)
	c := r.Conditionals[0]
	assert.Equal(t, GuardedExit, c.Shape)
	assert.Equal(t, -1, c.Merge)
	assert.Equal(t, []int{1, 3}, c.Then)
	assert.True(t, c.ThenExits)
	assert.True(t, c.ElseExits)
}

func TestAmbiguousMerge(t *testing.T) {
	g := build(t, exits(
		block.CondJump{True: 1, False: 2},
		block.CondJump{True: 3, False: 4},
		block.CondJump{True: 3, False: 4},
		block.Return{},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Conditionals, 3)
	c := r.Conditionals[0]
	assert.Equal(t, 0, c.Branch)
	assert.Equal(t, 3, c.Merge)
	assert.Equal(t, []int{3, 4}, c.Candidates)
}

func TestSharedTargets(t *testing.T) {
	g := build(t, exits(
		block.CondJump{True: 1, False: 1},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Conditionals, 1)
	assert.Equal(t, 1, r.Conditionals[0].Merge)
	assert.Empty(t, r.Conditionals[0].Then)
	assert.Empty(t, r.Conditionals[0].Else)
}

func TestLoopTestExcluded(t *testing.T) {
	g := build(t, exits(
		block.Jump{Target: 1},
		block.CondJump{True: 2, False: 3},
		block.Jump{Target: 1},
		block.Return{},
	)...)
	r := detect(t, g)
	assert.Empty(t, r.Conditionals)
	require.Len(t, r.Loops, 1)
	assert.Equal(t, 1, r.Loops[0].Entry())
	assert.Equal(t, []int{1, 2}, r.Loops[0].Blocks())
	assert.NotNil(t, r.Innermost(2))
	assert.Nil(t, r.Innermost(3))
}

func TestOrdered(t *testing.T) {
	g := build(t, exits(
		block.Jump{Target: 1},
		block.CondJump{True: 2, False: 6},
		block.CondJump{True: 3, False: 4},
		block.Jump{Target: 5},
		block.Jump{Target: 5},
		block.Jump{Target: 1},
		block.Return{},
	)...)
	r := detect(t, g)
	ordered := r.Ordered()
	require.Len(t, ordered, 2)
	c, ok := ordered[0].(*Conditional)
	require.True(t, ok, "want conditional first, got %s", ordered[0])
	assert.Equal(t, 2, c.Branch)
	assert.Equal(t, 5, c.Merge)
	_, ok = ordered[1].(*Loop)
	assert.True(t, ok)
}

func TestTryExcept(t *testing.T) {
	g := build(t,
		blk{exit: block.Try{Body: 1, Handler: 2}},
		blk{exit: block.Jump{Target: 4}},
		blk{exit: block.CondJump{True: 3, False: 5}, instrs: []block.Instr{block.Filter("ValueError")}},
		blk{exit: block.Jump{Target: 4}},
		blk{exit: block.Return{}},
		blk{exit: block.Raise{}},
	)
	r := detect(t, g)
	assert.Empty(t, r.Conditionals, "dispatch tests are not conditionals")
	require.Len(t, r.Protected, 1)
	tr, ok := r.Protected[0].(*Try)
	require.True(t, ok)
	require.NoError(t, tr.Err)
	assert.Equal(t, []int{1}, tr.Protected)
	assert.Equal(t, []Clause{{Dispatch: 2, Entry: 3, Filter: "ValueError"}}, tr.Clauses)
	assert.True(t, tr.Reraise)
	assert.Equal(t, 5, tr.Rethrow)
	assert.Equal(t, []int{2, 3, 5}, tr.Handlers)
	assert.Equal(t, -1, tr.Finally)
	assert.Equal(t, 4, tr.Follow)
	assert.True(t, r.Boundary(1, 4))
	assert.True(t, r.Boundary(3, 4))
	assert.False(t, r.Boundary(0, 1))
}

func TestTryFinallyPad(t *testing.T) {
	g := build(t, exits(
		block.Try{Body: 1, Handler: 2},
		block.Jump{Target: 3},
		block.Jump{Target: 3},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Protected, 1)
	tr := r.Protected[0].(*Try)
	require.NoError(t, tr.Err)
	assert.Equal(t, 3, tr.Finally)
	assert.Equal(t, 2, tr.Pad)
	assert.Empty(t, tr.Clauses)
	assert.True(t, r.Boundary(3, 4))
}

func TestTryFinallyHandler(t *testing.T) {
	g := build(t, exits(
		block.Try{Body: 1, Handler: 2},
		block.Jump{Target: 2},
		block.Return{},
	)...)
	tr := detect(t, g).Protected[0].(*Try)
	require.NoError(t, tr.Err)
	assert.Equal(t, 2, tr.Finally)
	assert.Equal(t, -1, tr.Pad)
}

func TestNonContiguousRange(t *testing.T) {
	g := build(t, exits(
		block.Try{Body: 1, Handler: 2},
		block.Return{},
		block.Jump{Target: 1},
	)...)
	tr := detect(t, g).Protected[0].(*Try)
	require.Error(t, tr.Err)
	var re RangeError
	require.ErrorAs(t, tr.Err, &re)
	assert.Equal(t, 1, re.Block)
	assert.ErrorIs(t, tr.Err, ErrNonContiguousRange)
}

func TestWith(t *testing.T) {
	g := build(t, exits(
		block.With{Resource: "f", Body: 1, Cleanup: 2},
		block.Jump{Target: 2},
		block.Return{},
	)...)
	r := detect(t, g)
	require.Len(t, r.Protected, 1)
	w := r.Protected[0].(*With)
	require.NoError(t, w.Err)
	assert.Equal(t, []int{1}, w.Protected)
	assert.Equal(t, []int{2}, w.Cleanups)
	assert.True(t, r.Boundary(2, 3))
}

func TestWithCleanupBypassed(t *testing.T) {
	g := build(t, exits(
		block.CondJump{True: 1, False: 4},
		block.With{Body: 2, Cleanup: 3},
		block.Jump{Target: 4},
		block.Jump{Target: 4},
		block.Return{},
	)...)
	var w *With
	for _, p := range detect(t, g).Protected {
		w = p.(*With)
	}
	require.NotNil(t, w)
	assert.ErrorIs(t, w.Err, ErrCleanupBypassed)
}
