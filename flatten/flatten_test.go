package flatten

import (
	"testing"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/structure"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func code(instrs ...block.Instr) *structure.Basic {
	return &structure.Basic{Instrs: instrs}
}

func TestIfElse(t *testing.T) {
	g, err := Flatten(&structure.Sequence{Nodes: []structure.Node{
		code("a"),
		&structure.If{Test: "c", Negated: true, Then: code("x"), Else: code("y")},
		&structure.Return{Value: true},
	}})
	require.NoError(t, err)
	require.Equal(t, 4, g.Len())
	assert.Equal(t, block.CondJump{Test: "c", True: 2, False: 1}, g.MustBlock(0).Exit)
	assert.Equal(t, []block.Instr{"a"}, g.MustBlock(0).Instrs)
	assert.Equal(t, block.Jump{Target: 3}, g.MustBlock(1).Exit)
	assert.Equal(t, block.Jump{Target: 3}, g.MustBlock(2).Exit)
	assert.Equal(t, block.Return{Value: true}, g.MustBlock(3).Exit)
}

func TestWhile(t *testing.T) {
	g, err := Flatten(&structure.While{Header: code("h"), Test: "c", Body: &structure.Sequence{Nodes: []structure.Node{
		&structure.Guard{Test: "d", Exit: &structure.Break{}},
		&structure.Guard{Test: "e", Exit: &structure.Continue{}},
	}}})
	require.NoError(t, err)
	// 0 -> 1 (header) -> 2 (body) / 3 (after).
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(0).Exit)
	assert.Equal(t, block.CondJump{Test: "c", True: 2, False: 3}, g.MustBlock(1).Exit)
	assert.Equal(t, block.CondJump{Test: "d", True: 4, False: 5}, g.MustBlock(2).Exit)
	assert.Equal(t, block.Jump{Target: 3}, g.MustBlock(4).Exit)
	assert.Equal(t, block.CondJump{Test: "e", True: 6, False: 7}, g.MustBlock(5).Exit)
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(6).Exit)
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(7).Exit)
	assert.Equal(t, block.Terminal{}, g.MustBlock(3).Exit)
}

func TestDoWhile(t *testing.T) {
	g, err := Flatten(&structure.DoWhile{Body: code("x"), Test: "c"})
	require.NoError(t, err)
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(0).Exit)
	assert.Equal(t, block.CondJump{Test: "c", True: 1, False: 2}, g.MustBlock(1).Exit)
}

func TestTryExcept(t *testing.T) {
	g, err := Flatten(&structure.Try{
		Body: code("x"),
		Handlers: []structure.Except{
			{Filter: "E", Body: code("y")},
			{Filter: "F", Match: code(block.Filter("F")), Body: &structure.Raise{}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, block.Try{Body: 1, Handler: 2}, g.MustBlock(0).Exit)

	d := g.MustBlock(2)
	assert.True(t, d.IsDispatch())
	assert.Equal(t, []block.Instr{block.Filter("E")}, d.Instrs)
	cj, ok := d.Exit.(block.CondJump)
	require.True(t, ok)

	next := g.MustBlock(cj.False)
	assert.True(t, next.IsDispatch())
	assert.Len(t, next.Instrs, 1, "filter added once")
	nj := next.Exit.(block.CondJump)
	assert.Equal(t, block.Raise{}, g.MustBlock(nj.True).Exit)
	assert.Equal(t, block.Raise{}, g.MustBlock(nj.False).Exit)
}

func TestTryFinally(t *testing.T) {
	g, err := Flatten(&structure.Try{Body: code("x"), Finally: code("f")})
	require.NoError(t, err)
	assert.Equal(t, block.Try{Body: 1, Handler: 2}, g.MustBlock(0).Exit)
	pad := g.MustBlock(2)
	assert.Empty(t, pad.Instrs)
	assert.Equal(t, block.Jump{Target: 3}, pad.Exit)
	assert.Equal(t, block.Jump{Target: 3}, g.MustBlock(1).Exit)
	assert.Equal(t, []block.Instr{"f"}, g.MustBlock(3).Instrs)
	assert.Equal(t, block.Jump{Target: 4}, g.MustBlock(3).Exit, "finally ends before what follows")
}

func TestWith(t *testing.T) {
	g, err := Flatten(&structure.With{Resource: "r", Body: code("x"), Cleanup: code("c")})
	require.NoError(t, err)
	assert.Equal(t, block.With{Resource: "r", Body: 1, Cleanup: 2}, g.MustBlock(0).Exit)
	assert.Equal(t, block.Jump{Target: 2}, g.MustBlock(1).Exit)
	assert.Equal(t, block.Jump{Target: 3}, g.MustBlock(2).Exit, "cleanup ends before what follows")
}

func TestWithFollow(t *testing.T) {
	g, err := Flatten(&structure.Sequence{Nodes: []structure.Node{
		&structure.With{Resource: "r", Body: code("x"), Cleanup: code("c")},
		code("y"),
		&structure.Return{},
	}})
	require.NoError(t, err)
	assert.Equal(t, []block.Instr{"c"}, g.MustBlock(2).Instrs)
	assert.Equal(t, []block.Instr{"y"}, g.MustBlock(3).Instrs)
	assert.Equal(t, block.Return{}, g.MustBlock(3).Exit)
}

func TestLabelGoto(t *testing.T) {
	g, err := Flatten(&structure.Sequence{Nodes: []structure.Node{
		&structure.Label{Index: 7, Body: code("x")},
		&structure.Goto{Target: 7},
	}})
	require.NoError(t, err)
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(0).Exit)
	assert.Equal(t, block.Jump{Target: 1}, g.MustBlock(1).Exit)
}

func TestUnknownLabel(t *testing.T) {
	_, err := Flatten(&structure.Goto{Target: 3})
	var ule UnknownLabelError
	require.True(t, errors.As(err, &ule))
	assert.Equal(t, 3, ule.Label)
}

func TestUnboundBreak(t *testing.T) {
	_, err := Flatten(&structure.Break{})
	assert.Equal(t, ErrUnboundJump, err)
	_, err = Flatten(&structure.If{Test: "c", Then: &structure.Continue{}})
	assert.Equal(t, ErrUnboundJump, err)
}
