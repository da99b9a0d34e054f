package flowgraph

// TraverseEdges walks g breadth-first from the source and applies visit to
// each edge exactly once. The source is reported as the edge (-1, source).
// enter, if not nil, is called the first time a block is reached.
func TraverseEdges(g *FlowGraph, visit func(from, to int), enter func(i int)) {
	if !g.IsLive(g.source) {
		return
	}
	type edge struct {
		From, To int
	}
	entered := make(map[int]bool)
	queue := []edge{{From: -1, To: g.source}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		visit(e.From, e.To)
		if entered[e.To] {
			continue
		}
		entered[e.To] = true
		if enter != nil {
			enter(e.To)
		}
		for _, succ := range g.blocks[e.To].Successors() {
			queue = append(queue, edge{From: e.To, To: succ})
		}
	}
}
