package region

import (
	"sort"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
)

func (d *Detector) conditional(g *flowgraph.FlowGraph, c int, cj block.CondJump) *Conditional {
	r := &Conditional{Branch: c, True: cj.True, False: cj.False, Merge: -1}
	if cj.True == cj.False {
		r.Merge = cj.True
		return r
	}
	m := g.Ipdom(c)
	if m < 0 {
		m, r.Candidates = candidateMerge(g, c, cj.True, cj.False)
		if len(r.Candidates) > 1 {
			d.logger.Debugf("%s cond #%d: ambiguous merge %v, picks #%d", d.logger.Module(), c, r.Candidates, m)
		}
	}
	r.Merge = m
	r.Then = owned(g, c, cj.True, m)
	r.Else = owned(g, c, cj.False, m)
	r.ThenExits = closed(g, r.Then)
	r.ElseExits = closed(g, r.Else)
	switch {
	case m >= 0:
		r.Shape = IfElse
	case r.ThenExits || r.ElseExits:
		r.Shape = GuardedExit
	default:
		r.Shape = Irreducible
	}
	return r
}

// owned returns the blocks owned by the branch of c into t: t and every block
// it dominates, provided t is entered only from c.
func owned(g *flowgraph.FlowGraph, c, t, merge int) []int {
	if t == merge || !onlyPred(g, t, c) {
		return nil
	}
	return subtree(g, t, merge)
}

// closed returns true if no edge leaves set.
func closed(g *flowgraph.FlowGraph, set []int) bool {
	return len(set) > 0 && len(exitTargets(g, set)) == 0
}

// reach returns the blocks reachable from b without passing through stop.
func reach(g *flowgraph.FlowGraph, b, stop int) map[int]bool {
	seen := map[int]bool{b: true}
	work := []int{b}
	for len(work) > 0 {
		x := work[len(work)-1]
		work = work[:len(work)-1]
		succs, _ := g.Successors(x)
		for _, s := range succs {
			if s != stop && !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	return seen
}

// candidateMerge searches for the nearest block reachable from both branches
// of c. Candidates that no other candidate precedes are nearest; among them
// the shallowest in the dominator tree wins and ties go to the lowest index.
// The tied candidates are returned when there is more than one.
func candidateMerge(g *flowgraph.FlowGraph, c, t, f int) (int, []int) {
	rt, rf := reach(g, t, c), reach(g, f, c)
	var common []int
	for b := range rt {
		if rf[b] {
			common = append(common, b)
		}
	}
	sort.Ints(common)
	reaches := make(map[int]map[int]bool, len(common))
	for _, b := range common {
		reaches[b] = reach(g, b, c)
	}
	var nearest []int
	for _, m := range common {
		preceded := false
		for _, o := range common {
			if o != m && reaches[o][m] && !reaches[m][o] {
				preceded = true
				break
			}
		}
		if !preceded {
			nearest = append(nearest, m)
		}
	}
	if len(nearest) == 0 {
		return -1, nil
	}
	best := -1
	var tied []int
	for _, m := range nearest {
		depth := g.DomDepth(m)
		switch {
		case best < 0 || depth < best:
			best, tied = depth, []int{m}
		case depth == best:
			tied = append(tied, m)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}
	return tied[0], tied
}
