package structure

import (
	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/loop"
	"github.com/nickng/gostruct/region"
)

// regions reduces the first ready region, innermost first.
func (e *Engine) regions() (bool, error) {
	for _, r := range e.res.Ordered() {
		var ok bool
		var err error
		switch r := r.(type) {
		case *region.Loop:
			ok, err = e.reduceLoop(r)
		case *region.Conditional:
			ok, err = e.reduceConditional(r)
		case *region.Try:
			ok, err = e.reduceTry(r)
		case *region.With:
			ok, err = e.reduceWith(r)
		}
		if ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

func (e *Engine) reduceLoop(l *region.Loop) (bool, error) {
	h := l.Header()
	st, ok := e.loops[h]
	if !ok {
		return false, nil
	}
	var n Node
	exit := jumpOrEnd(st.follow)
	var members []int
	switch hx := e.g.MustBlock(h).Exit.(type) {
	case block.CondJump:
		negated := hx.True == st.follow
		b := hx.True
		if negated {
			b = hx.False
		}
		switch {
		case st.kind == loop.PostTested && b == h:
			n = &DoWhile{Body: e.node(h), Test: hx.Test, Negated: negated}
		case st.kind == loop.PreTested && b != h && e.onlyPred(b, h) && e.isJump(b, h):
			n = &While{Header: e.node(h), Test: hx.Test, Negated: negated, Body: e.node(b)}
			members = []int{b}
		}
		if n != nil {
			break
		}
		if st.kind != loop.PreTested {
			// A test in the header of an endless or post-tested loop only
			// guards an exit.
			if c, ok := e.det.Conditional(e.g, h); ok {
				return e.reduceConditional(c)
			}
		}
		return false, nil
	case block.Jump:
		if st.kind != loop.Endless || hx.Target != h {
			return false, nil
		}
		n = &Loop{Body: e.node(h)}
	default:
		return false, nil
	}
	// The loop no longer pins its blocks once reduced.
	delete(e.loops, h)
	ok, err := e.collapse(h, members, n, exit)
	if !ok || err != nil {
		e.loops[h] = st
		return ok, err
	}
	e.logger.Debugf("%s reduce %s loop #%d follow #%d", e.logger.Module(), st.kind, h, st.follow)
	return true, nil
}

func (e *Engine) isJump(x, target int) bool {
	j, ok := e.g.MustBlock(x).Exit.(block.Jump)
	return ok && j.Target == target
}

// ready returns true if b is a branch of c that is one block rejoining at m.
func (e *Engine) ready(b, c, m int) bool {
	return b != c && b != m && e.onlyPred(b, c) && e.succsWithin(b, m)
}

// deadEnd returns true if b is a branch of c that is one dead-end block.
func (e *Engine) deadEnd(b, c int) bool {
	return b != c && e.onlyPred(b, c) && e.g.MustBlock(b).IsTerminal()
}

func (e *Engine) reduceConditional(c *region.Conditional) (bool, error) {
	x := c.Branch
	cj, ok := e.g.MustBlock(x).Exit.(block.CondJump)
	if !ok {
		return false, nil
	}
	t, f := cj.True, cj.False
	if t == f {
		n := Seq(e.node(x), &If{Test: cj.Test, Then: &Sequence{}})
		return e.collapse(x, nil, n, block.Jump{Target: t})
	}
	switch c.Shape {
	case region.IfElse:
		m := c.Merge
		if t != m && f != m && e.virtualLatch(m) {
			// Both branches are back edges: one of them is a continue.
			return false, nil
		}
		var n *If
		var members []int
		switch {
		case f == m && e.ready(t, x, m):
			n, members = &If{Test: cj.Test, Then: e.full(t)}, []int{t}
		case t == m && e.ready(f, x, m):
			n, members = &If{Test: cj.Test, Negated: true, Then: e.full(f)}, []int{f}
		case e.ready(t, x, m) && e.ready(f, x, m):
			n, members = &If{Test: cj.Test, Then: e.full(t), Else: e.full(f)}, []int{t, f}
		default:
			return false, nil
		}
		ok, err := e.collapse(x, members, Seq(e.node(x), n), block.Jump{Target: m})
		if ok {
			e.logger.Debugf("%s reduce if #%d merge #%d", e.logger.Module(), x, m)
		}
		return ok, err

	case region.GuardedExit:
		deadT, deadF := e.deadEnd(t, x), e.deadEnd(f, x)
		var guard int
		switch {
		case deadT && deadF:
			guard = t
			if raises(e.full(f)) && !raises(e.full(t)) {
				guard = f
			}
		case deadT:
			guard = t
		case deadF:
			guard = f
		default:
			return false, nil
		}
		rest := other(cj, guard)
		n := Seq(e.node(x), &Guard{Test: cj.Test, Negated: guard == f, Exit: e.full(guard)})
		ok, err := e.collapse(x, []int{guard}, n, block.Jump{Target: rest})
		if ok {
			e.logger.Debugf("%s reduce guard #%d exit #%d", e.logger.Module(), x, guard)
		}
		return ok, err
	}
	return false, nil
}

func (e *Engine) reduceTry(r *region.Try) (bool, error) {
	if r.Err != nil {
		return e.degrade(r.Setup, r.Body, r.Handler, r.Err)
	}
	if r.Finally >= 0 {
		return e.reduceFinally(r)
	}
	t, follow := r.Setup, r.Follow
	if r.Body == follow || !e.onlyPred(r.Body, t) || !e.succsWithin(r.Body, follow) {
		return false, nil
	}
	members := []int{r.Body}
	var handlers []Except
	prev := t
	for _, cl := range r.Clauses {
		h := Except{Filter: cl.Filter}
		if cl.Dispatch >= 0 {
			if !e.onlyPred(cl.Dispatch, prev) {
				return false, nil
			}
			h.Match = e.node(cl.Dispatch)
			members = append(members, cl.Dispatch)
			prev = cl.Dispatch
		}
		switch {
		case cl.Entry == follow:
			h.Body = &Sequence{}
		case e.onlyPred(cl.Entry, prev) && e.succsWithin(cl.Entry, follow):
			h.Body = e.full(cl.Entry)
			members = append(members, cl.Entry)
		default:
			return false, nil
		}
		handlers = append(handlers, h)
	}
	if r.Reraise {
		if !e.onlyPred(r.Rethrow, prev) {
			return false, nil
		}
		members = append(members, r.Rethrow)
	}
	n := Seq(e.node(t), &Try{Body: e.full(r.Body), Handlers: handlers, Reraise: r.Reraise})
	ok, err := e.collapse(t, members, n, jumpOrEnd(follow))
	if ok {
		e.logger.Debugf("%s reduce try #%d handlers %d follow #%d", e.logger.Module(), t, len(handlers), follow)
	}
	return ok, err
}

func (e *Engine) reduceFinally(r *region.Try) (bool, error) {
	t, c := r.Setup, r.Finally
	members := []int{r.Body, c}
	allowed := []int{t, r.Body}
	if r.Pad >= 0 {
		if !e.onlyPred(r.Pad, t) {
			return false, nil
		}
		members = []int{r.Body, r.Pad, c}
		allowed = []int{r.Body, r.Pad}
	}
	if !e.onlyPred(r.Body, t) || !e.succsWithin(r.Body, c) || !e.predsWithin(c, allowed...) {
		return false, nil
	}
	body := e.full(r.Body)
	try := &Try{Body: body, Finally: e.node(c)}
	if inner, ok := asTryExcept(body); ok {
		try.Body, try.Handlers, try.Reraise = inner.Body, inner.Handlers, inner.Reraise
	}
	n := Seq(e.node(t), try, e.tail(c))
	ok, err := e.collapse(t, members, n, passExit(e.g.MustBlock(c).Exit))
	if ok {
		e.logger.Debugf("%s reduce try #%d finally #%d", e.logger.Module(), t, c)
	}
	return ok, err
}

func (e *Engine) reduceWith(r *region.With) (bool, error) {
	if r.Err != nil {
		return e.degrade(r.Setup, r.Body, r.Cleanup, r.Err)
	}
	w, b, c := r.Setup, r.Body, r.Cleanup
	if !e.onlyPred(b, w) || !e.succsWithin(b, c) || !e.predsWithin(c, w, b) {
		return false, nil
	}
	wx, ok := e.g.MustBlock(w).Exit.(block.With)
	if !ok {
		return false, nil
	}
	n := Seq(e.node(w), &With{Resource: wx.Resource, Body: e.full(b), Cleanup: e.node(c)}, e.tail(c))
	ok, err := e.collapse(w, []int{b, c}, n, passExit(e.g.MustBlock(c).Exit))
	if ok {
		e.logger.Debugf("%s reduce with #%d cleanup #%d", e.logger.Module(), w, c)
	}
	return ok, err
}

// degrade turns a malformed protected range entered at setup into a branch
// on whether the range raised.
func (e *Engine) degrade(setup, body, handler int, err error) (bool, error) {
	e.diags.add(NonContiguousProtectedRange, setup, "%v", err)
	e.logger.Debugf("%s degrade #%d: %v", e.logger.Module(), setup, err)
	return true, e.g.SetExit(setup, block.CondJump{Test: Raised{Setup: setup}, True: handler, False: body})
}
