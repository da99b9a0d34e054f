package loop

import (
	"sort"

	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/internal/logger"
)

type Detector struct {
	loops  map[int]*Info // Loops by header.
	logger *logger.Logger
}

func NewDetector() *Detector {
	return &Detector{
		loops:  make(map[int]*Info),
		logger: logger.Nop().Named("loop"),
	}
}

var _ logger.LogSetter = (*Detector)(nil)

func (d *Detector) SetLogger(l *logger.Logger) {
	d.logger = l.Named("loop")
}

// Detect finds the natural loops of g and returns them innermost first.
func (d *Detector) Detect(g *flowgraph.FlowGraph) []*Info {
	d.loops = make(map[int]*Info)
	for _, e := range g.BackEdges() {
		l, exists := d.loops[e.Head]
		if !exists {
			l = New(e.Head)
			d.loops[e.Head] = l
			d.logger.Debugf("%s Detect: registers new loop at #%d", d.logger.Module(), e.Head)
		}
		l.backEdges = append(l.backEdges, e)
		d.naturalLoop(g, l, e.Tail)
		d.logger.Debugf("%s Detect: #%d → #%d merged into loop@#%d", d.logger.Module(), e.Tail, e.Head, e.Head)
	}
	for _, l := range d.loops {
		l.computeExits(g)
	}
	t := NewTree(d.loops)
	return t.PostOrder()
}

// naturalLoop adds to l every block that reaches tail without passing
// through the header.
func (d *Detector) naturalLoop(g *flowgraph.FlowGraph, l *Info, tail int) {
	work := NewStack()
	if l.addBody(tail) {
		work.Push(tail)
	}
	for !work.IsEmpty() {
		b, _ := work.Pop()
		preds, _ := g.Predecessors(b)
		for _, p := range preds {
			if !g.Reachable(p) {
				continue
			}
			if l.addBody(p) {
				work.Push(p)
			}
		}
	}
}

// LoopAt returns the loop headed by block b, or nil.
func (d *Detector) LoopAt(b int) *Info {
	return d.loops[b]
}

// Innermost returns the innermost loop containing block b, or nil.
func (d *Detector) Innermost(b int) *Info {
	var inner *Info
	for _, l := range d.loops {
		if !l.Contains(b) {
			continue
		}
		if inner == nil || l.depth > inner.depth || (l.depth == inner.depth && l.header < inner.header) {
			inner = l
		}
	}
	return inner
}

// Headers returns the loop headers in index order.
func (d *Detector) Headers() []int {
	var hs []int
	for h := range d.loops {
		hs = append(hs, h)
	}
	sort.Ints(hs)
	return hs
}
