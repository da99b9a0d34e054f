package region

import (
	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
)

// protectedRange returns the blocks dominated by body and not by handler.
// Only setup may enter the range, and only through body.
func protectedRange(g *flowgraph.FlowGraph, setup, body, handler int) ([]int, error) {
	if body == handler || !g.Reachable(body) {
		return nil, RangeError{Entry: setup, Block: body, Err: ErrEmptyRange}
	}
	p := subtree(g, body, -1)
	var out []int
	for _, x := range p {
		if !g.Dominates(handler, x) {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil, RangeError{Entry: setup, Block: body, Err: ErrEmptyRange}
	}
	in := make(map[int]bool, len(out))
	for _, x := range out {
		in[x] = true
	}
	for _, x := range out {
		preds, _ := g.Predecessors(x)
		for _, q := range preds {
			if in[q] || !g.Reachable(q) || (q == setup && x == body) {
				continue
			}
			return out, RangeError{Entry: setup, Block: x, Err: ErrNonContiguousRange}
		}
	}
	return out, nil
}

func allEqual(xs []int, v int) bool {
	for _, x := range xs {
		if x != v {
			return false
		}
	}
	return len(xs) > 0
}

func (d *Detector) try(g *flowgraph.FlowGraph, t int, exit block.Try) *Try {
	r := &Try{
		Setup:   t,
		Body:    exit.Body,
		Handler: exit.Handler,
		Rethrow: -1,
		Finally: -1,
		Pad:     -1,
		Follow:  -1,
	}
	r.Protected, r.Err = protectedRange(g, t, exit.Body, exit.Handler)
	if r.Err != nil {
		return r
	}
	exits := exitTargets(g, r.Protected)
	h := g.MustBlock(exit.Handler)

	// try/finally: the range leaves through the handler only.
	if !h.IsDispatch() && allEqual(exits, exit.Handler) {
		r.Finally = exit.Handler
		r.Follow = exit.Handler
		r.Handlers = []int{exit.Handler}
		return r
	}
	// try/finally via an empty landing pad.
	if j, ok := h.Exit.(block.Jump); ok && len(h.Instrs) == 0 && !h.Synthetic() &&
		onlyPred(g, exit.Handler, t) && allEqual(exits, j.Target) {
		r.Finally = j.Target
		r.Pad = exit.Handler
		r.Follow = j.Target
		r.Handlers = []int{exit.Handler, j.Target}
		return r
	}

	if f := g.Ipdom(t); f >= 0 {
		r.Follow = f
	} else if len(exits) == 1 {
		r.Follow = exits[0] // Handlers never re-join, e.g. they all re-raise.
	}
	seen := make(map[int]bool)
	for cur := exit.Handler; !seen[cur]; {
		seen[cur] = true
		b := g.MustBlock(cur)
		if b.IsDispatch() {
			cj := b.Exit.(block.CondJump)
			f, _ := b.Filter()
			r.Clauses = append(r.Clauses, Clause{Dispatch: cur, Entry: cj.True, Filter: f.Exception()})
			r.Handlers = append(r.Handlers, cur)
			if onlyPred(g, cj.True, cur) {
				r.Handlers = append(r.Handlers, subtree(g, cj.True, r.Follow)...)
			}
			cur = cj.False
			continue
		}
		if _, ok := b.Exit.(block.Raise); ok && len(b.Instrs) == 0 && !b.Synthetic() && len(r.Clauses) > 0 {
			r.Reraise = true
			r.Rethrow = cur
			r.Handlers = append(r.Handlers, cur)
			break
		}
		r.Clauses = append(r.Clauses, Clause{Dispatch: -1, Entry: cur})
		r.Handlers = append(r.Handlers, subtree(g, cur, r.Follow)...)
		break
	}
	return r
}

func (d *Detector) with(g *flowgraph.FlowGraph, w int, exit block.With) *With {
	r := &With{
		Setup:    w,
		Body:     exit.Body,
		Cleanup:  exit.Cleanup,
		Cleanups: []int{exit.Cleanup},
		Follow:   exit.Cleanup,
	}
	r.Protected, r.Err = protectedRange(g, w, exit.Body, exit.Cleanup)
	if r.Err != nil {
		return r
	}
	for _, x := range exitTargets(g, r.Protected) {
		if x != exit.Cleanup {
			r.Err = RangeError{Entry: w, Block: x, Err: ErrCleanupBypassed}
			break
		}
	}
	return r
}
