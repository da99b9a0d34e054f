package flowgraph

import (
	"github.com/nickng/gostruct/block"
	"github.com/pkg/errors"
)

// Option configures a FlowGraph.
type Option func(*FlowGraph)

// AllowForward enables forward references during construction.
func AllowForward() Option {
	return func(g *FlowGraph) { g.forward = true }
}

// Edge is a directed edge between two blocks.
type Edge struct {
	Tail int
	Head int
}

// FlowGraph owns all blocks of a unit.
type FlowGraph struct {
	blocks  []*block.Block // Removed blocks are nil.
	source  int
	forward bool

	version int
	cache   *cache
}

// New returns an empty FlowGraph whose source is the first block added.
func New(opts ...Option) *FlowGraph {
	g := &FlowGraph{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *FlowGraph) touch() {
	g.version++
	g.cache = nil
}

// Len returns the size of the arena, including removed blocks.
func (g *FlowGraph) Len() int {
	return len(g.blocks)
}

// Source returns the index of the source block.
func (g *FlowGraph) Source() int {
	return g.source
}

// SetSource designates block i as the source.
func (g *FlowGraph) SetSource(i int) error {
	if !g.IsLive(i) {
		return UnknownBlockError{Index: i}
	}
	g.source = i
	g.touch()
	return nil
}

// IsLive returns true if i is a block in the arena that has not been removed.
func (g *FlowGraph) IsLive(i int) bool {
	return i >= 0 && i < len(g.blocks) && g.blocks[i] != nil
}

// Live returns the indices of live blocks in index order.
func (g *FlowGraph) Live() []int {
	var live []int
	for i, b := range g.blocks {
		if b != nil {
			live = append(live, i)
		}
	}
	return live
}

// Block returns block i.
func (g *FlowGraph) Block(i int) (*block.Block, error) {
	if !g.IsLive(i) {
		return nil, UnknownBlockError{Index: i}
	}
	return g.blocks[i], nil
}

// MustBlock is Block for indices already known to be live.
func (g *FlowGraph) MustBlock(i int) *block.Block {
	b, err := g.Block(i)
	if err != nil {
		panic(err)
	}
	return b
}

// AddBlock appends a block and returns its index.
func (g *FlowGraph) AddBlock(exit block.Exit, instrs ...block.Instr) (int, error) {
	if exit == nil {
		return -1, ErrNilExit
	}
	index := len(g.blocks)
	if err := g.checkTargets(index, exit, index); err != nil {
		return -1, err
	}
	g.blocks = append(g.blocks, block.New(index, exit, instrs...))
	g.touch()
	return index, nil
}

// AddSynthetic appends a block standing for an already structured region.
func (g *FlowGraph) AddSynthetic(exit block.Exit, payload interface{}) (int, error) {
	index, err := g.AddBlock(exit)
	if err != nil {
		return -1, err
	}
	g.blocks[index].Payload = payload
	return index, nil
}

// Duplicate appends a copy of block i, payload included, and returns its
// index. The copy has no predecessors.
func (g *FlowGraph) Duplicate(i int) (int, error) {
	b, err := g.Block(i)
	if err != nil {
		return -1, err
	}
	index := len(g.blocks)
	c := block.New(index, b.Exit, b.Instrs...)
	c.Payload = b.Payload
	g.blocks = append(g.blocks, c)
	g.touch()
	return index, nil
}

// SetExit replaces the exit of block i.
func (g *FlowGraph) SetExit(i int, exit block.Exit) error {
	if !g.IsLive(i) {
		return UnknownBlockError{Index: i}
	}
	if exit == nil {
		return ErrNilExit
	}
	if err := g.checkTargets(i, exit, len(g.blocks)-1); err != nil {
		return err
	}
	g.blocks[i].Exit = exit
	g.touch()
	return nil
}

// Redirect replaces target from -> oldTo with from -> newTo.
func (g *FlowGraph) Redirect(from, oldTo, newTo int) error {
	b, err := g.Block(from)
	if err != nil {
		return err
	}
	return g.SetExit(from, b.Exit.Retarget(oldTo, newTo))
}

// checkTargets validates targets of exit for block i, where max is the
// highest index allowed in strict mode.
func (g *FlowGraph) checkTargets(i int, exit block.Exit, max int) error {
	for _, t := range exit.Targets() {
		if g.forward && (t == block.Placeholder || t > max) {
			continue
		}
		if t < 0 || t > max || (t < len(g.blocks) && g.blocks[t] == nil) {
			return InvalidTargetError{Block: i, Target: t}
		}
	}
	return nil
}

// Resolve checks that every target refers to a live block and that the source
// is live. It ends two-phase construction.
func (g *FlowGraph) Resolve() error {
	if !g.IsLive(g.source) {
		return ErrNoSource
	}
	for i, b := range g.blocks {
		if b == nil {
			continue
		}
		for _, t := range b.Exit.Targets() {
			if !g.IsLive(t) {
				return InvalidTargetError{Block: i, Target: t}
			}
		}
	}
	g.forward = false
	return nil
}

// Successors returns the successors of block i.
func (g *FlowGraph) Successors(i int) ([]int, error) {
	b, err := g.Block(i)
	if err != nil {
		return nil, err
	}
	return b.Successors(), nil
}

// Predecessors returns the predecessors of block i in index order.
func (g *FlowGraph) Predecessors(i int) ([]int, error) {
	if !g.IsLive(i) {
		return nil, UnknownBlockError{Index: i}
	}
	return g.derived().preds[i], nil
}

// Edges returns all edges between live blocks, ordered by tail then target
// order.
func (g *FlowGraph) Edges() []Edge {
	var edges []Edge
	for i, b := range g.blocks {
		if b == nil {
			continue
		}
		for _, s := range b.Successors() {
			edges = append(edges, Edge{Tail: i, Head: s})
		}
	}
	return edges
}

// Collapse replaces the blocks in members by block into, which becomes a
// synthetic block with payload and exit. into must be the only member entered
// from outside the set.
func (g *FlowGraph) Collapse(into int, members []int, payload interface{}, exit block.Exit) error {
	if !g.IsLive(into) {
		return UnknownBlockError{Index: into}
	}
	in := make(map[int]bool, len(members)+1)
	in[into] = true
	for _, m := range members {
		if !g.IsLive(m) {
			return UnknownBlockError{Index: m}
		}
		in[m] = true
	}
	for i, b := range g.blocks {
		if b == nil || in[i] {
			continue
		}
		for _, s := range b.Successors() {
			if in[s] && s != into {
				return errors.Wrapf(ErrNotSingleEntry, "block #%d enters #%d", i, s)
			}
		}
	}
	for _, t := range exit.Targets() {
		if (in[t] && t != into) || !g.IsLive(t) {
			return InvalidTargetError{Block: into, Target: t}
		}
	}
	if in[g.source] {
		g.source = into
	}
	for m := range in {
		if m != into {
			g.blocks[m] = nil
		}
	}
	b := g.blocks[into]
	b.Instrs = nil
	b.Payload = payload
	b.Exit = exit
	g.touch()
	return nil
}

// Remove deletes blocks that are unreachable from the source.
func (g *FlowGraph) Remove(indices ...int) error {
	reach := g.derived().reachable
	for _, i := range indices {
		if !g.IsLive(i) {
			return UnknownBlockError{Index: i}
		}
		if reach[i] {
			return errors.Errorf("flowgraph: cannot remove reachable block #%d", i)
		}
	}
	for _, i := range indices {
		g.blocks[i] = nil
	}
	g.touch()
	return nil
}
