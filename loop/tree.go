package loop

import "sort"

// Tree is the loop nesting forest. A loop is a child of the smallest other
// loop whose body contains its header.
type Tree struct {
	Roots []*Info
}

// NewTree links the loops into a nesting forest.
func NewTree(loops map[int]*Info) *Tree {
	var all []*Info
	for _, l := range loops {
		l.parent, l.children, l.depth = nil, nil, 0
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].header < all[j].header })

	t := &Tree{}
	for _, l := range all {
		for _, p := range all {
			if p == l || !p.Contains(l.header) || p.Size() < l.Size() {
				continue
			}
			if p.Size() == l.Size() && p.header > l.header {
				continue // Same body (irreducible overlap), lowest header is outer.
			}
			if l.parent == nil || p.Size() < l.parent.Size() {
				l.parent = p
			}
		}
	}
	for _, l := range all {
		if l.parent == nil {
			t.Roots = append(t.Roots, l)
			continue
		}
		l.parent.children = append(l.parent.children, l)
	}
	var setDepth func(l *Info, depth int)
	setDepth = func(l *Info, depth int) {
		l.depth = depth
		for _, c := range l.children {
			setDepth(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		setDepth(r, 0)
	}
	return t
}

// PostOrder returns the loops with every loop after the loops nested in it.
// Siblings are ordered by header index.
func (t *Tree) PostOrder() []*Info {
	var out []*Info
	var visit func(l *Info)
	visit = func(l *Info) {
		for _, c := range l.children {
			visit(c)
		}
		out = append(out, l)
	}
	for _, r := range t.Roots {
		visit(r)
	}
	return out
}
