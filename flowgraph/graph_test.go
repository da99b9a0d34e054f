package flowgraph

import (
	"testing"

	"github.com/nickng/gostruct/block"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build returns a strict graph with the given exits, added in order with
// forward references resolved.
func build(t *testing.T, exits ...block.Exit) *FlowGraph {
	t.Helper()
	g := New(AllowForward())
	for _, e := range exits {
		_, err := g.AddBlock(e)
		require.NoError(t, err)
	}
	require.NoError(t, g.Resolve())
	return g
}

func TestAddBlockStrict(t *testing.T) {
	g := New()
	i, err := g.AddBlock(block.Jump{Target: 0}) // self reference is fine.
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = g.AddBlock(block.Jump{Target: 5})
	var ite InvalidTargetError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, InvalidTargetError{Block: 1, Target: 5}, ite)
	assert.Equal(t, 1, g.Len(), "failed add must not append")

	_, err = g.AddBlock(nil)
	assert.Equal(t, ErrNilExit, err)
}

func TestTwoPhaseConstruction(t *testing.T) {
	g := New(AllowForward())
	head, err := g.AddBlock(block.CondJump{True: block.Placeholder, False: block.Placeholder})
	require.NoError(t, err)
	body, _ := g.AddBlock(block.Jump{Target: head})
	done, _ := g.AddBlock(block.Return{})

	err = g.Resolve()
	require.Error(t, err, "placeholders must not resolve")

	require.NoError(t, g.SetExit(head, block.CondJump{True: body, False: done}))
	require.NoError(t, g.Resolve())

	succs, err := g.Successors(head)
	require.NoError(t, err)
	assert.Equal(t, []int{body, done}, succs)
	preds, err := g.Predecessors(head)
	require.NoError(t, err)
	assert.Equal(t, []int{body}, preds)
}

func TestUnknownBlock(t *testing.T) {
	g := build(t, block.Return{})
	_, err := g.Successors(3)
	assert.Equal(t, UnknownBlockError{Index: 3}, err)
	_, err = g.Predecessors(-1)
	assert.Equal(t, UnknownBlockError{Index: -1}, err)
	assert.Equal(t, UnknownBlockError{Index: 9}, g.SetExit(9, block.Terminal{}))
}

func TestResolveNoSource(t *testing.T) {
	assert.Equal(t, ErrNoSource, New().Resolve())
}

func TestCollapse(t *testing.T) {
	// 0 -> 1 -> 2 -> 3
	g := build(t,
		block.Jump{Target: 1},
		block.Jump{Target: 2},
		block.Jump{Target: 3},
		block.Return{})
	require.NoError(t, g.Collapse(1, []int{2}, "seq", block.Jump{Target: 3}))
	assert.Equal(t, []int{0, 1, 3}, g.Live())
	b := g.MustBlock(1)
	assert.True(t, b.Synthetic())
	assert.Equal(t, "seq", b.Payload)

	preds, _ := g.Predecessors(3)
	assert.Equal(t, []int{1}, preds)
}

func TestCollapseRejectsSideEntry(t *testing.T) {
	// 0 -> {1, 2}, 1 -> 2: collapsing {1, 2} into 1 has a side entry at 2.
	g := build(t,
		block.CondJump{True: 1, False: 2},
		block.Jump{Target: 2},
		block.Return{})
	err := g.Collapse(1, []int{2}, "x", block.Terminal{})
	assert.Equal(t, ErrNotSingleEntry, errors.Cause(err))
}

func TestCacheInvalidation(t *testing.T) {
	g := build(t,
		block.Jump{Target: 1},
		block.Jump{Target: 2},
		block.Return{})
	assert.Equal(t, 1, g.Idom(2))
	require.NoError(t, g.SetExit(0, block.CondJump{True: 1, False: 2}))
	assert.Equal(t, 0, g.Idom(2), "dominators must be recomputed after mutation")
}

func TestUnreachableAndRemove(t *testing.T) {
	g := build(t, block.Return{}, block.Jump{Target: 0})
	assert.Equal(t, []int{1}, g.Unreachable())
	assert.Error(t, g.Remove(0))
	require.NoError(t, g.Remove(1))
	assert.Equal(t, []int{0}, g.Live())
}

func TestDuplicate(t *testing.T) {
	// 0 -> {1, 2}, 1 -> 2
	g := build(t,
		block.CondJump{True: 1, False: 2},
		block.Jump{Target: 2},
		block.Return{})
	c, err := g.Duplicate(2)
	require.NoError(t, err)
	assert.Equal(t, 3, c)
	require.NoError(t, g.Redirect(1, 2, c))

	preds, _ := g.Predecessors(2)
	assert.Equal(t, []int{0}, preds)
	preds, _ = g.Predecessors(c)
	assert.Equal(t, []int{1}, preds)
	assert.Equal(t, block.KindReturn, g.MustBlock(c).Exit.Kind())

	_, err = g.Duplicate(9)
	assert.Equal(t, UnknownBlockError{Index: 9}, err)
}
