package flowgraph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// InCycle returns true if block i lies on a cycle of reachable blocks.
func (g *FlowGraph) InCycle(i int) bool {
	if !g.Reachable(i) {
		return false
	}
	return g.cycles()[i]
}

// cycles marks every reachable block that belongs to a strongly connected
// component with a cycle.
func (g *FlowGraph) cycles() []bool {
	c := g.derived()
	if c.cyclic != nil {
		return c.cyclic
	}
	c.cyclic = make([]bool, len(g.blocks))
	dg := simple.NewDirectedGraph()
	for _, b := range c.rpo {
		dg.AddNode(simple.Node(b))
	}
	for _, b := range c.rpo {
		for _, s := range g.blocks[b].Successors() {
			if s == b {
				c.cyclic[b] = true // simple graphs do not hold self edges.
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(b), T: simple.Node(s)})
		}
	}
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		for _, n := range scc {
			c.cyclic[n.ID()] = true
		}
	}
	return c.cyclic
}
