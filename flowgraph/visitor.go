package flowgraph

import "github.com/nickng/gostruct/block"

// Visitor handles block transitions of a Walk.
type Visitor interface {
	// EnterBlk is called once per reachable block, in breadth-first order
	// from the source.
	EnterBlk(blk *block.Block)

	// JumpBlk is called for every edge curr -> next leaving an entered
	// block. label names the role of the target in curr's exit.
	JumpBlk(curr, next *block.Block, label string)

	// ExitBlk is called for blocks without successors.
	ExitBlk(blk *block.Block)
}

// EdgeLabel returns the role of target in exit: ifTrue/ifFalse for
// conditional jumps, body/handler/cleanup for protected regions, and "" for
// unconditional jumps.
func EdgeLabel(exit block.Exit, target int) string {
	switch e := exit.(type) {
	case block.CondJump:
		switch {
		case e.True == target && e.False == target:
			return "ifTrue|ifFalse"
		case e.True == target:
			return "ifTrue"
		case e.False == target:
			return "ifFalse"
		}
	case block.Try:
		if e.Body == target {
			return "body"
		}
		if e.Handler == target {
			return "handler"
		}
	case block.With:
		if e.Body == target {
			return "body"
		}
		if e.Cleanup == target {
			return "cleanup"
		}
	}
	return ""
}

// Walk visits the reachable part of g breadth-first from the source.
func Walk(g *FlowGraph, v Visitor) {
	TraverseEdges(g, func(from, to int) {
		if from < 0 {
			return
		}
		curr, next := g.blocks[from], g.blocks[to]
		v.JumpBlk(curr, next, EdgeLabel(curr.Exit, to))
	}, func(i int) {
		b := g.blocks[i]
		v.EnterBlk(b)
		if b.IsTerminal() {
			v.ExitBlk(b)
		}
	})
}
