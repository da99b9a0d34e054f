package loop

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/nickng/gostruct/flowgraph"
)

// Kind is the shape of a loop.
type Kind int

const (
	Unknown    Kind = iota
	PreTested       // PreTested loops test at the header (while).
	PostTested      // PostTested loops test at the latch (do-while).
	Endless         // Endless loops leave only through breaks.
)

func (k Kind) String() string {
	switch k {
	case PreTested:
		return "pre-tested"
	case PostTested:
		return "post-tested"
	case Endless:
		return "endless"
	}
	return "unknown"
}

// Info is a data structure to hold loop information: the header, the body,
// back edges and exits of one natural loop.
type Info struct {
	header    int
	body      *bitset.BitSet
	backEdges []flowgraph.Edge
	exits     []int // Targets outside the body, sorted.

	parent   *Info
	children []*Info
	depth    int // Nesting depth, 0 for outermost loops.

	kind   Kind
	latch  int // Latch of a post-tested loop.
	follow int // Block control reaches when the loop ends, or -1.
}

func New(header int) *Info {
	return &Info{
		header: header,
		body:   bitset.New(uint(header + 1)).Set(uint(header)),
		latch:  -1,
		follow: -1,
	}
}

// Header returns the loop header.
func (i *Info) Header() int { return i.header }

// Contains returns true if block b is in the loop body (the header included).
func (i *Info) Contains(b int) bool {
	return b >= 0 && i.body.Test(uint(b))
}

// Body returns the body blocks in index order.
func (i *Info) Body() []int {
	var out []int
	for b, ok := i.body.NextSet(0); ok; b, ok = i.body.NextSet(b + 1) {
		out = append(out, int(b))
	}
	return out
}

// BodySet returns the body as a bitset. Callers must not modify it.
func (i *Info) BodySet() *bitset.BitSet { return i.body }

// Size returns the number of blocks in the body.
func (i *Info) Size() int { return int(i.body.Count()) }

// BackEdges returns the back edges of the loop.
func (i *Info) BackEdges() []flowgraph.Edge { return i.backEdges }

// Latches returns the tails of the back edges.
func (i *Info) Latches() []int {
	var out []int
	for _, e := range i.backEdges {
		out = append(out, e.Tail)
	}
	return out
}

// Exits returns the targets of edges leaving the body.
func (i *Info) Exits() []int { return i.exits }

// Parent returns the innermost enclosing loop.
func (i *Info) Parent() *Info { return i.parent }

// Children returns loops nested directly inside i.
func (i *Info) Children() []*Info { return i.children }

// Depth returns the nesting depth.
func (i *Info) Depth() int { return i.depth }

func (i *Info) Kind() Kind  { return i.kind }
func (i *Info) Latch() int  { return i.latch }
func (i *Info) Follow() int { return i.follow }

// SetShape records the decided shape of the loop.
func (i *Info) SetShape(kind Kind, latch, follow int) {
	i.kind = kind
	i.latch = latch
	i.follow = follow
}

// addBody adds block b to the loop body.
func (i *Info) addBody(b int) bool {
	if i.body.Test(uint(b)) {
		return false
	}
	i.body.Set(uint(b))
	return true
}

// Absorb adds block b to the body. It is used for dead-end blocks that belong
// to the loop but cannot reach a latch.
func (i *Info) Absorb(b int) {
	i.addBody(b)
	for k, e := range i.exits {
		if e == b {
			i.exits = append(i.exits[:k], i.exits[k+1:]...)
			break
		}
	}
}

// computeExits collects successors of body blocks outside the body.
func (i *Info) computeExits(g *flowgraph.FlowGraph) {
	seen := make(map[int]bool)
	i.exits = nil
	for _, b := range i.Body() {
		succs, _ := g.Successors(b)
		for _, s := range succs {
			if !i.Contains(s) && !seen[s] {
				seen[s] = true
				i.exits = append(i.exits, s)
			}
		}
	}
	sort.Ints(i.exits)
}

func (i *Info) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "loop@#%d body%v", i.header, i.Body())
	if len(i.exits) > 0 {
		fmt.Fprintf(&buf, " exits%v", i.exits)
	}
	if i.kind != Unknown {
		fmt.Fprintf(&buf, " %s", i.kind)
		if i.follow >= 0 {
			fmt.Fprintf(&buf, " follow #%d", i.follow)
		}
	}
	return buf.String()
}
