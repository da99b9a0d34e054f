package structure

import (
	"sort"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/region"
)

// continues turns one edge into a virtual latch with several predecessors
// into a Continue escape. Conditional predecessors go first, then the latest
// in reverse postorder.
func (e *Engine) continues() (bool, error) {
	headers := make([]int, 0, len(e.loops))
	for h := range e.loops {
		headers = append(headers, h)
	}
	sort.Ints(headers)
	for _, h := range headers {
		v := e.loops[h].virtual
		if v < 0 || !e.g.IsLive(v) {
			continue
		}
		preds := e.preds(v)
		if len(preds) < 2 {
			continue
		}
		best, bestCond := -1, false
		for _, p := range preds {
			if !e.g.Reachable(p) {
				continue
			}
			_, cond := e.g.MustBlock(p).Exit.(block.CondJump)
			switch {
			case best < 0, cond && !bestCond:
				best, bestCond = p, cond
			case cond == bestCond && e.g.RPONumber(p) > e.g.RPONumber(best):
				best = p
			}
		}
		if best < 0 {
			continue
		}
		if first, ok := e.siblings(preds); ok {
			best = first
		}
		esc, err := e.g.AddSynthetic(block.Terminal{}, &Continue{Loop: h})
		if err != nil {
			return false, err
		}
		e.logger.Debugf("%s continue #%d -> loop #%d", e.logger.Module(), best, h)
		return true, e.g.Redirect(best, v, esc)
	}
	return false, nil
}

// siblings returns the lower of two preds that are the only-entered branches
// of one conditional. The branch laid out first is the one that continues.
func (e *Engine) siblings(preds []int) (int, bool) {
	if len(preds) != 2 {
		return -1, false
	}
	a, b := preds[0], preds[1]
	pa, pb := e.preds(a), e.preds(b)
	if len(pa) != 1 || len(pb) != 1 || pa[0] != pb[0] {
		return -1, false
	}
	cj, ok := e.g.MustBlock(pa[0]).Exit.(block.CondJump)
	if !ok || cj.True == cj.False {
		return -1, false
	}
	if b < a {
		a = b
	}
	return a, true
}

// retreating cuts the first edge that goes back in reverse postorder to a
// block that does not dominate its tail. Such edges enter a cycle other than
// through its header.
func (e *Engine) retreating() (bool, error) {
	for _, x := range e.g.ReversePostOrder() {
		for _, s := range e.succs(x) {
			if e.g.RPONumber(s) <= e.g.RPONumber(x) && !e.g.Dominates(s, x) {
				return e.cut(x, s)
			}
		}
	}
	return false, nil
}

// stuckConditional splits the shared branch target of a conditional that
// cannot reduce, innermost first.
func (e *Engine) stuckConditional() (bool, error) {
	for _, r := range e.res.Ordered() {
		c, ok := r.(*region.Conditional)
		if !ok {
			continue
		}
		for _, s := range []int{c.True, c.False} {
			if s == c.Merge || s == c.Branch || len(e.preds(s)) < 2 {
				continue
			}
			return e.split(c.Branch, s)
		}
	}
	return false, nil
}

// shared splits the latest block in reverse postorder that has several
// predecessors and is not a loop header.
func (e *Engine) shared() (bool, error) {
	rpo := e.g.ReversePostOrder()
	for i := len(rpo) - 1; i >= 0; i-- {
		y := rpo[i]
		preds := e.preds(y)
		if len(preds) < 2 || e.isHeader(y) || e.isVirtual(y) {
			continue
		}
		p := -1
		for _, q := range preds {
			if e.g.Reachable(q) && (p < 0 || e.g.RPONumber(q) > e.g.RPONumber(p)) {
				p = q
			}
		}
		if p >= 0 {
			return e.split(p, y)
		}
	}
	return false, nil
}

func (e *Engine) isHeader(x int) bool {
	if _, ok := e.loops[x]; ok {
		return true
	}
	for _, p := range e.preds(x) {
		if e.g.IsBackEdge(p, x) {
			return true
		}
	}
	return false
}

func (e *Engine) isVirtual(x int) bool {
	for _, st := range e.loops {
		if st.virtual == x {
			return true
		}
	}
	return false
}

// cloneable returns true if s may be duplicated.
func (e *Engine) cloneable(s int) bool {
	b := e.g.MustBlock(s)
	switch b.Exit.(type) {
	case block.Try, block.With:
		return false
	}
	if b.IsDispatch() || e.labels[s] || e.pinned(s) || e.isHeader(s) || e.isVirtual(s) {
		return false
	}
	// Blocks on a cycle outside any natural loop are part of an irreducible
	// region.
	return !e.g.InCycle(s) || e.res.Innermost(s) != nil
}

// split gives edge p -> s its own copy of s, or cuts it into a Goto escape
// when s cannot be duplicated.
func (e *Engine) split(p, s int) (bool, error) {
	if e.dups < e.budget && e.cloneable(s) {
		c, err := e.g.Duplicate(s)
		if err != nil {
			return false, err
		}
		e.dups++
		e.logger.Debugf("%s duplicate #%d as #%d for #%d", e.logger.Module(), s, c, p)
		return true, e.g.Redirect(p, s, c)
	}
	return e.cut(p, s)
}

// cut replaces edge p -> s by a Goto escape. s keeps another predecessor.
func (e *Engine) cut(p, s int) (bool, error) {
	esc, err := e.g.AddSynthetic(block.Terminal{}, &Goto{Target: s})
	if err != nil {
		return false, err
	}
	e.labels[s] = true
	e.diags.add(Irreducible, p, "edge #%d -> #%d left as goto", p, s)
	e.logger.Debugf("%s cut #%d -> #%d", e.logger.Module(), p, s)
	return true, e.g.Redirect(p, s, esc)
}

// residue emits every remaining block as a labelled statement ending with
// explicit gotos.
func (e *Engine) residue() Node {
	order := append([]int(nil), e.g.ReversePostOrder()...)
	order = append(order, e.g.Unreachable()...)
	var nodes []Node
	for _, x := range order {
		b := e.g.MustBlock(x)
		var n Node = &Basic{Index: x, Instrs: b.Instrs}
		if p, ok := b.Payload.(Node); ok {
			n = p
		}
		if _, ok := b.Exit.(block.Terminal); ok && !b.Synthetic() {
			n = Seq(n, &End{})
		} else {
			n = Seq(n, gotos(b.Exit))
		}
		if !labelled(n, x) {
			n = &Label{Index: x, Body: n}
		}
		nodes = append(nodes, n)
		e.diags.add(Irreducible, x, "block left unstructured")
	}
	return Seq(nodes...)
}

// gotos returns exit as explicit transfers.
func gotos(exit block.Exit) Node {
	switch exit := exit.(type) {
	case block.Jump:
		return &Goto{Target: exit.Target}
	case block.CondJump:
		return &If{Test: exit.Test, Then: &Goto{Target: exit.True}, Else: &Goto{Target: exit.False}}
	case block.Try:
		return &Try{Body: &Goto{Target: exit.Body}, Handlers: []Except{{Body: &Goto{Target: exit.Handler}}}}
	case block.With:
		return &With{Resource: exit.Resource, Body: &Goto{Target: exit.Body}, Cleanup: &Goto{Target: exit.Cleanup}}
	}
	return exitNode(exit)
}
