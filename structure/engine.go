package structure

import (
	"context"
	"sort"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/internal/logger"
	"github.com/nickng/gostruct/loop"
	"github.com/nickng/gostruct/region"
	"github.com/pkg/errors"
)

// loopState is a loop prepared for reduction.
type loopState struct {
	kind    loop.Kind
	latch   int // Latch of a post-tested loop, or -1.
	follow  int // Block after the loop, or -1.
	virtual int // Virtual latch, or -1 once merged away.
	pending bool
}

// Engine structures flow graphs. An Engine runs one pass at a time.
type Engine struct {
	conf   *Config
	det    *region.Detector
	logger *logger.Logger

	g      *flowgraph.FlowGraph
	res    *region.Result
	diags  *diagnostics
	loops  map[int]*loopState // Prepared loops by header.
	labels map[int]bool       // Goto targets whose label is not placed yet.
	budget int
	dups   int
}

// NewEngine returns an engine for conf, or the default configuration if conf
// is nil.
func NewEngine(conf *Config) *Engine {
	if conf == nil {
		conf = NewConfig()
	}
	e := &Engine{conf: conf, det: region.NewDetector()}
	e.SetLogger(conf.logger)
	return e
}

var _ logger.LogSetter = (*Engine)(nil)

func (e *Engine) SetLogger(l *logger.Logger) {
	e.logger = l.Named("structure")
	e.det.SetLogger(l)
}

// Structure reduces g with the default configuration.
func Structure(ctx context.Context, g *flowgraph.FlowGraph) (Node, []Diagnostic, error) {
	return NewEngine(nil).Structure(ctx, g)
}

// Structure reduces g in place to a single block and returns the tree of
// that block. Malformed graphs are a hard error; every other condition is
// reported as a Diagnostic. ctx is checked between reductions.
func (e *Engine) Structure(ctx context.Context, g *flowgraph.FlowGraph) (Node, []Diagnostic, error) {
	e.g = g
	e.diags = &diagnostics{}
	e.loops = make(map[int]*loopState)
	e.labels = make(map[int]bool)
	e.dups = 0
	if err := e.validate(); err != nil {
		return nil, e.diags.Sorted(), err
	}
	e.budget = e.conf.budget(len(g.Live()))
	limit := 64 * (len(g.Live()) + e.budget)
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, e.diags.Sorted(), err
		}
		if n, ok := e.reduced(); ok {
			return n, e.diags.Sorted(), nil
		}
		e.res = e.det.Detect(g)
		e.note()
		ok, err := e.step()
		if err != nil {
			return nil, e.diags.Sorted(), err
		}
		if !ok || steps > limit {
			return e.residue(), e.diags.Sorted(), nil
		}
	}
}

func (e *Engine) validate() error {
	if err := e.g.Resolve(); err != nil {
		var ite flowgraph.InvalidTargetError
		if errors.As(err, &ite) {
			e.diags.add(InvalidTarget, ite.Block, "target #%d is not a block", ite.Target)
		}
		return err
	}
	if dead := e.g.Unreachable(); len(dead) > 0 {
		for _, i := range dead {
			e.diags.add(Unreachable, i, "not reachable from #%d", e.g.Source())
		}
		if err := e.g.Remove(dead...); err != nil {
			return errors.Wrap(err, "structure: cannot drop unreachable blocks")
		}
	}
	return nil
}

// reduced returns the tree of g if g is a single dead-end block.
func (e *Engine) reduced() (Node, bool) {
	live := e.g.Live()
	if len(live) != 1 || !e.g.MustBlock(live[0]).IsTerminal() {
		return nil, false
	}
	return e.full(live[0]), true
}

// note records what detection found.
func (e *Engine) note() {
	for _, c := range e.res.Conditionals {
		if len(c.Candidates) > 1 {
			e.diags.add(AmbiguousMergePoint, c.Branch, "merge candidates %v, picked #%d", c.Candidates, c.Merge)
		}
	}
	for _, l := range e.res.Loops {
		if st, ok := e.loops[l.Header()]; ok {
			l.SetShape(st.kind, st.latch, st.follow)
		}
	}
}

func (e *Engine) step() (bool, error) {
	for _, rule := range []func() (bool, error){
		e.chain,
		e.encapsulate,
		e.regions,
		e.continues,
		e.retreating,
		e.stuckConditional,
		e.shared,
	} {
		if ok, err := rule(); ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

// node returns the tree of block x without its exit.
func (e *Engine) node(x int) Node {
	b := e.g.MustBlock(x)
	var n Node
	if p, ok := b.Payload.(Node); ok {
		n = p
	} else {
		n = &Basic{Index: x, Instrs: b.Instrs}
	}
	if e.labels[x] && !labelled(n, x) {
		n = &Label{Index: x, Body: n}
	}
	return n
}

// full returns the tree of block x with its dead-end exit.
func (e *Engine) full(x int) Node {
	return Seq(e.node(x), e.tail(x))
}

// tail returns the statement for the exit of x if x is a dead end. The
// payload of a synthetic block already holds it.
func (e *Engine) tail(x int) Node {
	b := e.g.MustBlock(x)
	if _, ok := b.Exit.(block.Terminal); ok && !b.Synthetic() {
		return &End{}
	}
	return exitNode(b.Exit)
}

func exitNode(exit block.Exit) Node {
	switch exit := exit.(type) {
	case block.Return:
		return &Return{Value: exit.Value}
	case block.Raise:
		return &Raise{}
	}
	return nil
}

// passExit returns the exit of a region ending with exit.
func passExit(exit block.Exit) block.Exit {
	switch exit.(type) {
	case block.Return, block.Raise:
		return block.Terminal{}
	}
	return exit
}

func jumpOrEnd(target int) block.Exit {
	if target < 0 {
		return block.Terminal{}
	}
	return block.Jump{Target: target}
}

func (e *Engine) preds(x int) []int {
	preds, _ := e.g.Predecessors(x)
	return preds
}

func (e *Engine) succs(x int) []int {
	succs, _ := e.g.Successors(x)
	return succs
}

// onlyPred returns true if p is the only predecessor of x.
func (e *Engine) onlyPred(x, p int) bool {
	preds := e.preds(x)
	return len(preds) == 1 && preds[0] == p
}

// succsWithin returns true if every successor of x is target.
func (e *Engine) succsWithin(x, target int) bool {
	for _, s := range e.succs(x) {
		if s != target {
			return false
		}
	}
	return true
}

// predsWithin returns true if every predecessor of x is in allowed.
func (e *Engine) predsWithin(x int, allowed ...int) bool {
	for _, p := range e.preds(x) {
		found := false
		for _, a := range allowed {
			found = found || p == a
		}
		if !found {
			return false
		}
	}
	return true
}

// virtualLatch returns true if x is the virtual latch of a prepared loop.
func (e *Engine) virtualLatch(x int) bool {
	for _, st := range e.loops {
		if st.virtual == x {
			return true
		}
	}
	return false
}

// pinned returns true if x must keep its index until some loop reduces.
func (e *Engine) pinned(x int) bool {
	if x == e.g.Source() {
		return true
	}
	for h, st := range e.loops {
		if x == h || (st.pending && x == st.follow) {
			return true
		}
	}
	return false
}

// collapse replaces into and members by into carrying n. It returns false
// if a member cannot be consumed.
func (e *Engine) collapse(into int, members []int, n Node, exit block.Exit) (bool, error) {
	for _, m := range members {
		if m == into || e.pinned(m) {
			return false, nil
		}
	}
	if err := e.g.Collapse(into, members, n, exit); err != nil {
		if errors.Cause(err) == flowgraph.ErrNotSingleEntry {
			return false, nil
		}
		return false, errors.Wrapf(err, "structure: collapse into #%d", into)
	}
	delete(e.labels, into)
	for _, m := range members {
		delete(e.labels, m)
		for _, st := range e.loops {
			if st.virtual == m {
				st.virtual = -1
			}
		}
	}
	return true, nil
}

// chain merges x with its only successor y when x is y's only predecessor.
func (e *Engine) chain() (bool, error) {
	for _, x := range e.g.ReversePostOrder() {
		j, ok := e.g.MustBlock(x).Exit.(block.Jump)
		if !ok {
			continue
		}
		y := j.Target
		if y == x || !e.onlyPred(y, x) || e.res.Boundary(x, y) || e.pinned(y) {
			continue
		}
		n, exit := Seq(e.node(x), e.node(y)), e.g.MustBlock(y).Exit
		if len(exit.Targets()) == 0 {
			n, exit = Seq(e.node(x), e.full(y)), block.Terminal{}
		}
		if ok, err := e.collapse(x, []int{y}, n, exit); ok || err != nil {
			e.logger.Debugf("%s chain #%d #%d", e.logger.Module(), x, y)
			return ok, err
		}
	}
	return false, nil
}

// encapsulate prepares the innermost loop not prepared yet. Only one loop is
// prepared at a time.
func (e *Engine) encapsulate() (bool, error) {
	if len(e.loops) > 0 || len(e.res.Loops) == 0 {
		return false, nil
	}
	return true, e.prepare(e.res.Loops[0])
}

// prepare decides the shape and follow of l, then inserts a virtual latch
// for back edges and escape blocks for exits.
func (e *Engine) prepare(l *region.Loop) error {
	g := e.g
	h := l.Header()
	st := &loopState{kind: loop.Endless, latch: -1, follow: -1, virtual: -1}
	body := make(map[int]bool)
	for _, b := range l.Body() {
		body[b] = true
	}
	latches := l.Latches()

	if cj, ok := g.MustBlock(h).Exit.(block.CondJump); ok && cj.True != cj.False {
		switch {
		case len(latches) == 1 && latches[0] == h && !body[other(cj, h)]:
			st.kind, st.latch, st.follow = loop.PostTested, h, other(cj, h)
		case body[cj.True] != body[cj.False]:
			st.kind, st.follow = loop.PreTested, cj.False
			if body[cj.False] {
				st.follow = cj.True
			}
		}
	}
	if st.kind == loop.Endless && len(latches) == 1 && latches[0] != h {
		if cj, ok := g.MustBlock(latches[0]).Exit.(block.CondJump); ok && (cj.True == h) != (cj.False == h) {
			if o := other(cj, h); !body[o] {
				st.kind, st.latch, st.follow = loop.PostTested, latches[0], o
			}
		}
	}

	// A header test leaving through a pad to where a conditional latch
	// exits is a break out of a post-tested loop.
	if st.kind == loop.PreTested && len(latches) == 1 && latches[0] != h {
		if cj, ok := g.MustBlock(latches[0]).Exit.(block.CondJump); ok && (cj.True == h) != (cj.False == h) {
			o := other(cj, h)
			if to := e.padTarget(st.follow, body); !body[o] && to != st.follow && to == e.padTarget(o, body) {
				st.kind, st.latch, st.follow = loop.PostTested, latches[0], o
			}
		}
	}

	// A header test leaving through a pad shared with other exits is a
	// break, not the loop condition.
	if st.kind == loop.PreTested {
		if to := e.padTarget(st.follow, body); to != st.follow {
			for _, x := range e.exitsOf(body) {
				if x != st.follow && e.padTarget(x, body) == to {
					st.kind, st.follow = loop.Endless, -1
					break
				}
			}
		}
	}

	// Dead-end regions entered only from the loop belong to it.
	for changed := true; changed; {
		changed = false
		for _, x := range e.exitsOf(body) {
			if body[x] || x == st.follow || !e.predsIn(x, body) {
				continue
			}
			sub := e.dominated(x)
			if len(e.exitsOf(sub)) > 0 {
				continue
			}
			for b := range sub {
				body[b] = true
			}
			changed = true
		}
	}
	if st.kind == loop.Endless {
		for _, x := range e.exitsOf(body) {
			if to := e.padTarget(x, body); to != x && !body[to] {
				body[x] = true
			}
		}
		st.follow = e.pickFollow(body)
		st.pending = st.follow >= 0
	}
	// Other exits entered only from the loop are absorbed too, so that no
	// escape leaves its target unreachable.
	for changed := true; changed; {
		changed = false
		for _, x := range e.exitsOf(body) {
			if !body[x] && x != st.follow && e.predsIn(x, body) {
				body[x] = true
				changed = true
			}
		}
	}

	var redirect []flowgraph.Edge
	for _, be := range l.BackEdges() {
		if st.kind == loop.PostTested && be.Tail == st.latch {
			continue
		}
		redirect = append(redirect, be)
	}
	if len(redirect) > 0 {
		v, err := g.AddSynthetic(block.Jump{Target: h}, &Sequence{})
		if err != nil {
			return err
		}
		st.virtual = v
		for _, be := range redirect {
			if err := g.Redirect(be.Tail, h, v); err != nil {
				return err
			}
		}
	}

	blocks := make([]int, 0, len(body))
	for b := range body {
		blocks = append(blocks, b)
	}
	sort.Ints(blocks)
	for _, x := range blocks {
		for _, s := range e.succs(x) {
			if body[s] || s == st.virtual {
				continue
			}
			if s == st.follow && ((st.kind == loop.PreTested && x == h) || (st.kind == loop.PostTested && x == st.latch)) {
				continue
			}
			var esc Node = &Break{Loop: h}
			if s != st.follow {
				esc = &Goto{Target: s}
				e.labels[s] = true
				e.diags.add(Irreducible, x, "loop #%d exits to #%d, not its follow #%d", h, s, st.follow)
			}
			v, err := g.AddSynthetic(block.Terminal{}, esc)
			if err != nil {
				return err
			}
			if err := g.Redirect(x, s, v); err != nil {
				return err
			}
		}
	}
	e.loops[h] = st
	l.SetShape(st.kind, st.latch, st.follow)
	e.logger.Debugf("%s prepare %s latch #%d virtual #%d", e.logger.Module(), l, st.latch, st.virtual)
	return nil
}

// padTarget returns where exit x of a loop body jumps to if x is only
// entered from the body, or x itself.
func (e *Engine) padTarget(x int, body map[int]bool) int {
	j, ok := e.g.MustBlock(x).Exit.(block.Jump)
	if !ok || j.Target == x || !e.predsIn(x, body) {
		return x
	}
	return j.Target
}

func other(cj block.CondJump, x int) int {
	if cj.True == x {
		return cj.False
	}
	return cj.True
}

// exitsOf returns the successors of blocks in set that are not in set.
func (e *Engine) exitsOf(set map[int]bool) []int {
	seen := make(map[int]bool)
	var out []int
	for b := range set {
		for _, s := range e.succs(b) {
			if !set[s] && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Ints(out)
	return out
}

// predsIn returns true if x has predecessors and all of them are in set.
func (e *Engine) predsIn(x int, set map[int]bool) bool {
	preds := e.preds(x)
	for _, p := range preds {
		if !set[p] {
			return false
		}
	}
	return len(preds) > 0
}

// dominated returns x and every block it dominates.
func (e *Engine) dominated(x int) map[int]bool {
	out := map[int]bool{}
	work := []int{x}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		out[b] = true
		work = append(work, e.g.DomChildren(b)...)
	}
	return out
}

// pickFollow returns the exit of an endless loop most often jumped to, the
// earliest in reverse postorder on ties, or -1.
func (e *Engine) pickFollow(body map[int]bool) int {
	count := make(map[int]int)
	for b := range body {
		for _, s := range e.succs(b) {
			if !body[s] {
				count[s]++
			}
		}
	}
	best := -1
	for s, n := range count {
		switch {
		case best < 0, n > count[best]:
			best = s
		case n == count[best] && e.g.RPONumber(s) < e.g.RPONumber(best):
			best = s
		}
	}
	return best
}
