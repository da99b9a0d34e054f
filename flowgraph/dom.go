package flowgraph

// ExitSentinel is the implicit block every dead-end block falls through to
// for post-dominance.
const ExitSentinel = -2

// cache holds results derived from the current version of the graph.
type cache struct {
	preds     [][]int
	reachable []bool
	rpo       []int
	rpoNum    []int // -1 for blocks not in rpo.

	idom     []int
	depth    []int
	children [][]int
	domDone  bool

	ipdom    []int
	pdomDone bool

	cyclic []bool
}

func (g *FlowGraph) derived() *cache {
	if g.cache != nil {
		return g.cache
	}
	n := len(g.blocks)
	c := &cache{
		preds:     make([][]int, n),
		reachable: make([]bool, n),
		rpoNum:    make([]int, n),
	}
	for i, b := range g.blocks {
		if b == nil {
			continue
		}
		for _, s := range b.Successors() {
			if s >= 0 && s < n {
				c.preds[s] = append(c.preds[s], i)
			}
		}
	}
	for i := range c.rpoNum {
		c.rpoNum[i] = -1
	}
	if g.IsLive(g.source) {
		c.rpo = reversePostOrder(g.source, func(i int) []int { return g.blocks[i].Successors() })
	}
	for i, b := range c.rpo {
		c.rpoNum[b] = i
		c.reachable[b] = true
	}
	g.cache = c
	return c
}

// reversePostOrder returns nodes reachable from entry in reverse postorder.
// Successors are visited in order, so the order is deterministic.
func reversePostOrder(entry int, succs func(int) []int) []int {
	type frame struct {
		node int
		next int
	}
	visited := map[int]bool{entry: true}
	stack := []frame{{node: entry}}
	var order []int
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		ss := succs(top.node)
		if top.next < len(ss) {
			s := ss[top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, frame{node: s})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// immediateDominators computes immediate dominators of the nodes in rpo
// (rpo[0] is the entry) using Cooper, Harvey and Kennedy's iterative
// algorithm. The result maps node to idom; the entry and nodes not in rpo are
// absent.
func immediateDominators(rpo []int, preds func(int) []int) map[int]int {
	if len(rpo) == 0 {
		return nil
	}
	rpoNum := make(map[int]int, len(rpo))
	for i, b := range rpo {
		rpoNum[b] = i
	}
	entry := rpo[0]
	idom := map[int]int{entry: entry}

	intersect := func(b1, b2 int) int {
		for b1 != b2 {
			for rpoNum[b1] > rpoNum[b2] {
				b1 = idom[b1]
			}
			for rpoNum[b2] > rpoNum[b1] {
				b2 = idom[b2]
			}
		}
		return b1
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			newIdom, found := 0, false
			for _, p := range preds(b) {
				if _, ok := rpoNum[p]; !ok {
					continue
				}
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom, found = p, true
					continue
				}
				newIdom = intersect(p, newIdom)
			}
			if !found {
				continue
			}
			if old, ok := idom[b]; !ok || old != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, entry)
	return idom
}

func (g *FlowGraph) dominance() *cache {
	c := g.derived()
	if c.domDone {
		return c
	}
	n := len(g.blocks)
	c.idom = make([]int, n)
	c.depth = make([]int, n)
	c.children = make([][]int, n)
	for i := range c.idom {
		c.idom[i] = -1
		c.depth[i] = -1
	}
	idom := immediateDominators(c.rpo, func(i int) []int { return c.preds[i] })
	for _, b := range c.rpo {
		if d, ok := idom[b]; ok {
			c.idom[b] = d
			c.children[d] = append(c.children[d], b)
			c.depth[b] = c.depth[d] + 1
		} else {
			c.depth[b] = 0
		}
	}
	c.domDone = true
	return c
}

// Dominators returns the immediate dominator of every block, indexed by
// block. The source, removed and unreachable blocks map to -1.
func (g *FlowGraph) Dominators() []int {
	idom := g.dominance().idom
	out := make([]int, len(idom))
	copy(out, idom)
	return out
}

// Idom returns the immediate dominator of block i, or -1.
func (g *FlowGraph) Idom(i int) int {
	if !g.IsLive(i) {
		return -1
	}
	return g.dominance().idom[i]
}

// Dominates returns true if a dominates b. Every reachable block dominates
// itself.
func (g *FlowGraph) Dominates(a, b int) bool {
	if !g.IsLive(a) || !g.IsLive(b) {
		return false
	}
	c := g.dominance()
	if !c.reachable[a] || !c.reachable[b] {
		return false
	}
	for b != -1 && c.depth[b] >= c.depth[a] {
		if b == a {
			return true
		}
		b = c.idom[b]
	}
	return false
}

// DomDepth returns the depth of block i in the dominator tree (the source is
// 0), or -1 if i is unreachable.
func (g *FlowGraph) DomDepth(i int) int {
	if !g.IsLive(i) {
		return -1
	}
	return g.dominance().depth[i]
}

// DomChildren returns the blocks immediately dominated by i.
func (g *FlowGraph) DomChildren(i int) []int {
	if !g.IsLive(i) {
		return nil
	}
	return g.dominance().children[i]
}

// ReversePostOrder returns the blocks reachable from the source in reverse
// postorder.
func (g *FlowGraph) ReversePostOrder() []int {
	return g.derived().rpo
}

// RPONumber returns the position of block i in ReversePostOrder, or -1.
func (g *FlowGraph) RPONumber(i int) int {
	if i < 0 || i >= len(g.blocks) {
		return -1
	}
	return g.derived().rpoNum[i]
}

// Reachable returns true if block i is reachable from the source.
func (g *FlowGraph) Reachable(i int) bool {
	return g.IsLive(i) && g.derived().reachable[i]
}

// Unreachable returns live blocks not reachable from the source.
func (g *FlowGraph) Unreachable() []int {
	c := g.derived()
	var out []int
	for i, b := range g.blocks {
		if b != nil && !c.reachable[i] {
			out = append(out, i)
		}
	}
	return out
}

// BackEdges returns the edges whose head dominates their tail, ordered by
// tail then head.
func (g *FlowGraph) BackEdges() []Edge {
	c := g.dominance()
	var edges []Edge
	for i, b := range g.blocks {
		if b == nil || !c.reachable[i] {
			continue
		}
		for _, s := range b.Successors() {
			if g.Dominates(s, i) {
				edges = append(edges, Edge{Tail: i, Head: s})
			}
		}
	}
	return edges
}

// IsBackEdge returns true if tail -> head is an edge and head dominates tail.
func (g *FlowGraph) IsBackEdge(tail, head int) bool {
	if !g.IsLive(tail) {
		return false
	}
	for _, s := range g.blocks[tail].Successors() {
		if s == head {
			return g.Dominates(head, tail)
		}
	}
	return false
}
