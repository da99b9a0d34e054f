// Package flatten lowers a structured tree back to a flow graph.
//
// The lowering is the trivial one a compiler would emit: one block per
// straight-line run, a conditional block per test, loops closed by a jump
// back to their header, and empty landing pads for finally clauses. It is
// used to build fixtures and to check that structuring a flattened tree
// gives the same tree.
package flatten

import (
	"fmt"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/structure"
	"github.com/pkg/errors"
)

var ErrUnboundJump = errors.New("flatten: break or continue outside a loop")

// UnknownLabelError is returned for a Goto without a matching Label.
type UnknownLabelError struct {
	Label int
}

func (e UnknownLabelError) Error() string {
	return fmt.Sprintf("flatten: goto undefined label L%d", e.Label)
}

type frame struct {
	head  int
	after int // Created on first break, or -1.
}

type builder struct {
	g      *flowgraph.FlowGraph
	loops  []*frame
	labels map[int]int // Label index -> block.
	gotos  map[int]int // Block -> label index.
}

// Flatten returns the flow graph of n. Its source is block 0.
func Flatten(n structure.Node) (*flowgraph.FlowGraph, error) {
	b := &builder{
		g:      flowgraph.New(flowgraph.AllowForward()),
		labels: make(map[int]int),
		gotos:  make(map[int]int),
	}
	entry, err := b.open()
	if err != nil {
		return nil, err
	}
	if _, err := b.emit(n, entry); err != nil {
		return nil, err
	}
	for blk, label := range b.gotos {
		target, ok := b.labels[label]
		if !ok {
			return nil, UnknownLabelError{Label: label}
		}
		if err := b.g.SetExit(blk, block.Jump{Target: target}); err != nil {
			return nil, err
		}
	}
	if err := b.g.Resolve(); err != nil {
		return nil, err
	}
	return b.g, nil
}

// open adds an empty block control will fall into.
func (b *builder) open() (int, error) {
	return b.g.AddBlock(block.Terminal{})
}

func (b *builder) exit(i int, exit block.Exit) error {
	if i < 0 {
		return nil
	}
	return b.g.SetExit(i, exit)
}

func branch(test block.Operand, negated bool, yes, no int) block.CondJump {
	if negated {
		return block.CondJump{Test: test, True: no, False: yes}
	}
	return block.CondJump{Test: test, True: yes, False: no}
}

func (b *builder) loop() (*frame, error) {
	if len(b.loops) == 0 {
		return nil, ErrUnboundJump
	}
	return b.loops[len(b.loops)-1], nil
}

// emit lowers n into open block cur and returns the open block control
// leaves n through, or -1 if n never completes.
func (b *builder) emit(n structure.Node, cur int) (int, error) {
	var err error
	switch n := n.(type) {
	case nil:
		return cur, nil

	case *structure.Sequence:
		for _, m := range n.Nodes {
			if cur, err = b.emit(m, cur); err != nil || cur < 0 {
				return cur, err
			}
		}
		return cur, nil

	case *structure.Basic:
		blk := b.g.MustBlock(cur)
		blk.Instrs = append(blk.Instrs, n.Instrs...)
		return cur, nil

	case *structure.If:
		t, err := b.open()
		if err != nil {
			return -1, err
		}
		if n.Else == nil {
			join, err := b.open()
			if err != nil {
				return -1, err
			}
			if err := b.exit(cur, branch(n.Test, n.Negated, t, join)); err != nil {
				return -1, err
			}
			end, err := b.emit(n.Then, t)
			if err != nil {
				return -1, err
			}
			return join, b.exit(end, block.Jump{Target: join})
		}
		f, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, branch(n.Test, n.Negated, t, f)); err != nil {
			return -1, err
		}
		endT, err := b.emit(n.Then, t)
		if err != nil {
			return -1, err
		}
		endF, err := b.emit(n.Else, f)
		if err != nil || (endT < 0 && endF < 0) {
			return -1, err
		}
		join, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(endT, block.Jump{Target: join}); err != nil {
			return -1, err
		}
		return join, b.exit(endF, block.Jump{Target: join})

	case *structure.Guard:
		e, err := b.open()
		if err != nil {
			return -1, err
		}
		k, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, branch(n.Test, n.Negated, e, k)); err != nil {
			return -1, err
		}
		end, err := b.emit(n.Exit, e)
		if err != nil {
			return -1, err
		}
		return k, b.exit(end, block.Jump{Target: k})

	case *structure.While:
		h, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.Jump{Target: h}); err != nil {
			return -1, err
		}
		end, err := b.emit(n.Header, h)
		if err != nil {
			return -1, err
		}
		body, err := b.open()
		if err != nil {
			return -1, err
		}
		after, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(end, branch(n.Test, n.Negated, body, after)); err != nil {
			return -1, err
		}
		b.loops = append(b.loops, &frame{head: h, after: after})
		end, err = b.emit(n.Body, body)
		b.loops = b.loops[:len(b.loops)-1]
		if err != nil {
			return -1, err
		}
		return after, b.exit(end, block.Jump{Target: h})

	case *structure.DoWhile:
		h, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.Jump{Target: h}); err != nil {
			return -1, err
		}
		fr := &frame{head: h, after: -1}
		b.loops = append(b.loops, fr)
		end, err := b.emit(n.Body, h)
		b.loops = b.loops[:len(b.loops)-1]
		if err != nil || end < 0 {
			return fr.after, err
		}
		if fr.after < 0 {
			if fr.after, err = b.open(); err != nil {
				return -1, err
			}
		}
		return fr.after, b.exit(end, branch(n.Test, n.Negated, h, fr.after))

	case *structure.Loop:
		h, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.Jump{Target: h}); err != nil {
			return -1, err
		}
		fr := &frame{head: h, after: -1}
		b.loops = append(b.loops, fr)
		end, err := b.emit(n.Body, h)
		b.loops = b.loops[:len(b.loops)-1]
		if err != nil {
			return -1, err
		}
		return fr.after, b.exit(end, block.Jump{Target: h})

	case *structure.Break:
		fr, err := b.loop()
		if err != nil {
			return -1, err
		}
		if fr.after < 0 {
			if fr.after, err = b.open(); err != nil {
				return -1, err
			}
		}
		return -1, b.exit(cur, block.Jump{Target: fr.after})

	case *structure.Continue:
		fr, err := b.loop()
		if err != nil {
			return -1, err
		}
		return -1, b.exit(cur, block.Jump{Target: fr.head})

	case *structure.Try:
		return b.try(n, cur)

	case *structure.With:
		body, err := b.open()
		if err != nil {
			return -1, err
		}
		cleanup, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.With{Resource: n.Resource, Body: body, Cleanup: cleanup}); err != nil {
			return -1, err
		}
		end, err := b.emit(n.Body, body)
		if err != nil {
			return -1, err
		}
		if err := b.exit(end, block.Jump{Target: cleanup}); err != nil {
			return -1, err
		}
		if end, err = b.emit(n.Cleanup, cleanup); err != nil {
			return -1, err
		}
		return b.follow(end)

	case *structure.Return:
		return -1, b.exit(cur, block.Return{Value: n.Value})

	case *structure.Raise:
		return -1, b.exit(cur, block.Raise{})

	case *structure.End:
		return -1, nil

	case *structure.Label:
		l, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.Jump{Target: l}); err != nil {
			return -1, err
		}
		b.labels[n.Index] = l
		return b.emit(n.Body, l)

	case *structure.Goto:
		b.gotos[cur] = n.Target
		return -1, nil
	}
	return -1, errors.Errorf("flatten: unsupported node %T", n)
}

func (b *builder) try(n *structure.Try, cur int) (int, error) {
	if n.Finally != nil {
		body, err := b.open()
		if err != nil {
			return -1, err
		}
		pad, err := b.open()
		if err != nil {
			return -1, err
		}
		final, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(cur, block.Try{Body: body, Handler: pad}); err != nil {
			return -1, err
		}
		if err := b.exit(pad, block.Jump{Target: final}); err != nil {
			return -1, err
		}
		var end int
		if len(n.Handlers) > 0 || n.Reraise {
			end, err = b.emit(&structure.Try{Body: n.Body, Handlers: n.Handlers, Reraise: n.Reraise}, body)
		} else {
			end, err = b.emit(n.Body, body)
		}
		if err != nil {
			return -1, err
		}
		if err := b.exit(end, block.Jump{Target: final}); err != nil {
			return -1, err
		}
		if end, err = b.emit(n.Finally, final); err != nil {
			return -1, err
		}
		return b.follow(end)
	}

	body, err := b.open()
	if err != nil {
		return -1, err
	}
	handler, err := b.open()
	if err != nil {
		return -1, err
	}
	if err := b.exit(cur, block.Try{Body: body, Handler: handler}); err != nil {
		return -1, err
	}
	var ends []int
	end, err := b.emit(n.Body, body)
	if err != nil {
		return -1, err
	}
	ends = append(ends, end)

	chain := handler
	for _, h := range n.Handlers {
		if h.Filter == "" {
			end, err := b.emit(h.Body, chain)
			if err != nil {
				return -1, err
			}
			ends = append(ends, end)
			chain = -1
			break
		}
		d, err := b.emit(h.Match, chain)
		if err != nil {
			return -1, err
		}
		if blk := b.g.MustBlock(d); !hasFilter(blk) {
			blk.Instrs = append([]block.Instr{block.Filter(h.Filter)}, blk.Instrs...)
		}
		clause, err := b.open()
		if err != nil {
			return -1, err
		}
		next, err := b.open()
		if err != nil {
			return -1, err
		}
		if err := b.exit(d, block.CondJump{Test: h.Filter, True: clause, False: next}); err != nil {
			return -1, err
		}
		end, err := b.emit(h.Body, clause)
		if err != nil {
			return -1, err
		}
		ends = append(ends, end)
		chain = next
	}
	if chain >= 0 {
		// No bare clause: unmatched exceptions are raised again.
		if err := b.exit(chain, block.Raise{}); err != nil {
			return -1, err
		}
	}

	follow := -1
	for _, end := range ends {
		if end < 0 {
			continue
		}
		if follow < 0 {
			if follow, err = b.open(); err != nil {
				return -1, err
			}
		}
		if err := b.exit(end, block.Jump{Target: follow}); err != nil {
			return -1, err
		}
	}
	return follow, nil
}

// follow opens the block after a cleanup or finally clause ending at end,
// so what comes next is not part of the clause.
func (b *builder) follow(end int) (int, error) {
	if end < 0 {
		return -1, nil
	}
	next, err := b.open()
	if err != nil {
		return -1, err
	}
	return next, b.exit(end, block.Jump{Target: next})
}

func hasFilter(blk *block.Block) bool {
	_, ok := blk.Filter()
	return ok
}
