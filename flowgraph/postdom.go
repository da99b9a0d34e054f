package flowgraph

// PostDominators returns the immediate post-dominator of every block,
// indexed by block.
//
// Dead-end blocks fall through to ExitSentinel. Back edges are treated as
// edges to ExitSentinel, so post-dominance is local to the innermost loop a
// block belongs to. Blocks whose only post-dominator is the sentinel map to
// ExitSentinel; removed, unreachable blocks and blocks that cannot reach the
// sentinel map to -1.
func (g *FlowGraph) PostDominators() []int {
	c := g.postDominance()
	out := make([]int, len(c.ipdom))
	copy(out, c.ipdom)
	return out
}

// Ipdom returns the immediate post-dominator of block i.
func (g *FlowGraph) Ipdom(i int) int {
	if !g.IsLive(i) {
		return -1
	}
	return g.postDominance().ipdom[i]
}

// pdomSuccs returns successors used for post-dominance, with sentinel edges.
func (g *FlowGraph) pdomSuccs(i int) []int {
	b := g.blocks[i]
	succs := b.Successors()
	if len(succs) == 0 {
		return []int{ExitSentinel}
	}
	var out []int
	cut := false
	for _, s := range succs {
		if g.Dominates(s, i) {
			cut = true
			continue
		}
		out = append(out, s)
	}
	if cut {
		out = append(out, ExitSentinel)
	}
	return out
}

func (g *FlowGraph) postDominance() *cache {
	c := g.dominance()
	if c.pdomDone {
		return c
	}
	n := len(g.blocks)
	rsuccs := make(map[int][]int) // Reverse graph: node -> forward predecessors.
	fsuccs := make(map[int][]int)
	for _, b := range c.rpo {
		for _, s := range g.pdomSuccs(b) {
			fsuccs[b] = append(fsuccs[b], s)
			rsuccs[s] = append(rsuccs[s], b)
		}
	}
	rpo := reversePostOrder(ExitSentinel, func(i int) []int { return rsuccs[i] })
	ipdom := immediateDominators(rpo, func(i int) []int { return fsuccs[i] })

	c.ipdom = make([]int, n)
	for i := range c.ipdom {
		c.ipdom[i] = -1
	}
	for b, d := range ipdom {
		if b >= 0 {
			c.ipdom[b] = d
		}
	}
	c.pdomDone = true
	return c
}

// PostDominates returns true if a post-dominates b.
func (g *FlowGraph) PostDominates(a, b int) bool {
	if !g.IsLive(b) {
		return false
	}
	c := g.postDominance()
	for b >= 0 {
		if b == a {
			return true
		}
		b = c.ipdom[b]
	}
	return a == ExitSentinel && b == ExitSentinel
}
