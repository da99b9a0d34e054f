package region

import (
	"sort"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/internal/logger"
	"github.com/nickng/gostruct/loop"
)

// Result holds the regions detected on one version of a graph.
type Result struct {
	Loops        []*Loop
	Protected    []Region // *Try and *With, in block order.
	Conditionals []*Conditional

	g     *flowgraph.FlowGraph
	loops *loop.Detector
}

type Detector struct {
	loops  *loop.Detector
	logger *logger.Logger
}

func NewDetector() *Detector {
	return &Detector{
		loops:  loop.NewDetector(),
		logger: logger.Nop().Named("region"),
	}
}

var _ logger.LogSetter = (*Detector)(nil)

func (d *Detector) SetLogger(l *logger.Logger) {
	d.logger = l.Named("region")
	d.loops.SetLogger(l)
}

// Detect finds all regions of the reachable part of g.
func (d *Detector) Detect(g *flowgraph.FlowGraph) *Result {
	r := &Result{g: g, loops: d.loops}
	for _, l := range d.loops.Detect(g) {
		r.Loops = append(r.Loops, &Loop{Info: l})
	}
	for _, i := range g.ReversePostOrder() {
		b := g.MustBlock(i)
		switch exit := b.Exit.(type) {
		case block.Try:
			t := d.try(g, i, exit)
			d.logger.Debugf("%s Detect: %s", d.logger.Module(), t)
			r.Protected = append(r.Protected, t)
		case block.With:
			w := d.with(g, i, exit)
			d.logger.Debugf("%s Detect: %s", d.logger.Module(), w)
			r.Protected = append(r.Protected, w)
		case block.CondJump:
			if b.IsDispatch() || r.isLoopTest(i) {
				continue
			}
			c := d.conditional(g, i, exit)
			d.logger.Debugf("%s Detect: %s", d.logger.Module(), c)
			r.Conditionals = append(r.Conditionals, c)
		}
	}
	sort.Slice(r.Protected, func(i, j int) bool { return r.Protected[i].Entry() < r.Protected[j].Entry() })
	sort.Slice(r.Conditionals, func(i, j int) bool { return r.Conditionals[i].Branch < r.Conditionals[j].Branch })
	return r
}

// Conditional returns the conditional region of block c, including loop
// tests, if c ends with a CondJump.
func (d *Detector) Conditional(g *flowgraph.FlowGraph, c int) (*Conditional, bool) {
	cj, ok := g.MustBlock(c).Exit.(block.CondJump)
	if !ok {
		return nil, false
	}
	return d.conditional(g, c, cj), true
}

// isLoopTest returns true if conditional block c decides whether a loop
// iterates again: a header with a successor outside its loop, or a latch.
func (r *Result) isLoopTest(c int) bool {
	succs, _ := r.g.Successors(c)
	for _, s := range succs {
		if r.g.IsBackEdge(c, s) {
			return true
		}
	}
	if l := r.loops.LoopAt(c); l != nil {
		for _, s := range succs {
			if !l.Contains(s) {
				return true
			}
		}
	}
	return false
}

func rank(reg Region) int {
	switch reg.(type) {
	case *Loop:
		return 0
	case *Try, *With:
		return 1
	}
	return 2
}

// Ordered returns every region innermost first.
func (r *Result) Ordered() []Region {
	var all []Region
	for _, l := range r.Loops {
		all = append(all, l)
	}
	all = append(all, r.Protected...)
	for _, c := range r.Conditionals {
		all = append(all, c)
	}
	sort.SliceStable(all, func(i, j int) bool {
		di, dj := r.g.DomDepth(all[i].Entry()), r.g.DomDepth(all[j].Entry())
		if di != dj {
			return di > dj
		}
		if ri, rj := rank(all[i]), rank(all[j]); ri != rj {
			return ri < rj
		}
		return all[i].Entry() < all[j].Entry()
	})
	return all
}

// LoopAt returns the loop region headed by h, or nil.
func (r *Result) LoopAt(h int) *Loop {
	for _, l := range r.Loops {
		if l.Header() == h {
			return l
		}
	}
	return nil
}

// Innermost returns the innermost loop region containing b, or nil.
func (r *Result) Innermost(b int) *Loop {
	if l := r.loops.Innermost(b); l != nil {
		return r.LoopAt(l.Header())
	}
	return nil
}

// Boundary returns true if merging x with its successor y would cross the
// edge of a protected region that is not reduced yet.
func (r *Result) Boundary(x, y int) bool {
	for _, p := range r.Protected {
		switch p := p.(type) {
		case *Try:
			if y == p.Follow || x == p.Finally {
				return true
			}
		case *With:
			if y == p.Follow || x == p.Cleanup {
				return true
			}
		}
	}
	return false
}

// subtree returns b and every block dominated by b, excluding the subtree of
// stop.
func subtree(g *flowgraph.FlowGraph, b, stop int) []int {
	var out []int
	work := []int{b}
	for len(work) > 0 {
		x := work[len(work)-1]
		work = work[:len(work)-1]
		if x == stop {
			continue
		}
		out = append(out, x)
		work = append(work, g.DomChildren(x)...)
	}
	sort.Ints(out)
	return out
}

// exitTargets returns the targets of edges leaving set, sorted.
func exitTargets(g *flowgraph.FlowGraph, set []int) []int {
	in := make(map[int]bool, len(set))
	for _, b := range set {
		in[b] = true
	}
	seen := make(map[int]bool)
	var out []int
	for _, b := range set {
		succs, _ := g.Successors(b)
		for _, s := range succs {
			if !in[s] && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Ints(out)
	return out
}

// onlyPred returns true if p is the only predecessor of b.
func onlyPred(g *flowgraph.FlowGraph, b, p int) bool {
	preds, err := g.Predecessors(b)
	return err == nil && len(preds) == 1 && preds[0] == p
}
