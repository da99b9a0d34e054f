// Package descriptor reads flow graphs from block descriptor files and
// writes structuring results.
//
// A descriptor document lists units. Each unit is an array of blocks whose
// exits refer to other blocks by index:
//
//	units:
//	  - name: f
//	    blocks:
//	      - exit: {kind: condjump, test: c, "true": 1, "false": 2}
//	      - instrs: [x]
//	        exit: {kind: jump, target: 0}
//	      - exit: {kind: return}
//
// A block may state its index, which must then match its position.
//
// The same document can be written as JSON or msgpack with the same field
// names.
package descriptor

import (
	"fmt"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/pkg/errors"
)

// Document is the top level of a descriptor file.
type Document struct {
	Units []Unit `json:"units" yaml:"units" msgpack:"units"`
}

// Unit is one flow graph.
type Unit struct {
	Name   string  `json:"name" yaml:"name" msgpack:"name"`
	Source int     `json:"source,omitempty" yaml:"source,omitempty" msgpack:"source,omitempty"`
	Blocks []Block `json:"blocks" yaml:"blocks" msgpack:"blocks"`
}

// Block describes a block. Filter makes a condjump block the dispatch test
// of an except clause.
type Block struct {
	Index  *int     `json:"index,omitempty" yaml:"index,omitempty" msgpack:"index,omitempty"`
	Instrs []string `json:"instrs,omitempty" yaml:"instrs,omitempty" msgpack:"instrs,omitempty"`
	Filter string   `json:"filter,omitempty" yaml:"filter,omitempty" msgpack:"filter,omitempty"`
	Exit   Exit     `json:"exit" yaml:"exit" msgpack:"exit"`
}

// Exit describes a block exit. Which targets are required depends on Kind.
type Exit struct {
	Kind     string `json:"kind" yaml:"kind" msgpack:"kind"`
	Target   *int   `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target,omitempty"`
	Test     string `json:"test,omitempty" yaml:"test,omitempty" msgpack:"test,omitempty"`
	True     *int   `json:"true,omitempty" yaml:"true,omitempty" msgpack:"true,omitempty"`
	False    *int   `json:"false,omitempty" yaml:"false,omitempty" msgpack:"false,omitempty"`
	Value    bool   `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Body     *int   `json:"body,omitempty" yaml:"body,omitempty" msgpack:"body,omitempty"`
	Handler  *int   `json:"handler,omitempty" yaml:"handler,omitempty" msgpack:"handler,omitempty"`
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty" msgpack:"resource,omitempty"`
	Cleanup  *int   `json:"cleanup,omitempty" yaml:"cleanup,omitempty" msgpack:"cleanup,omitempty"`
}

var ErrNoBlocks = errors.New("descriptor: unit has no blocks")

// KindError is returned for an exit kind that is not known.
type KindError struct {
	Block int
	Kind  string
}

func (e KindError) Error() string {
	return fmt.Sprintf("descriptor: block #%d has unknown exit kind %q", e.Block, e.Kind)
}

// MissingTargetError is returned when an exit lacks a target its kind needs.
type MissingTargetError struct {
	Block int
	Field string
}

func (e MissingTargetError) Error() string {
	return fmt.Sprintf("descriptor: block #%d exit needs %s", e.Block, e.Field)
}

// IndexError is returned when a block states an index other than its
// position in the unit.
type IndexError struct {
	Block int
	Index int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("descriptor: block #%d is labelled #%d", e.Block, e.Index)
}

var kinds = func() map[string]block.Kind {
	m := make(map[string]block.Kind)
	for k := block.KindTerminal; k <= block.KindWith; k++ {
		m[k.String()] = k
	}
	return m
}()

// Graph builds the flow graph of u. References are resolved after all
// blocks are added, so exits may refer forward.
func (u *Unit) Graph() (*flowgraph.FlowGraph, error) {
	if len(u.Blocks) == 0 {
		return nil, ErrNoBlocks
	}
	g := flowgraph.New(flowgraph.AllowForward())
	for i, b := range u.Blocks {
		if b.Index != nil && *b.Index != i {
			return nil, IndexError{Block: i, Index: *b.Index}
		}
		exit, err := b.Exit.exit(i)
		if err != nil {
			return nil, err
		}
		var instrs []block.Instr
		if b.Filter != "" {
			instrs = append(instrs, block.Filter(b.Filter))
		}
		for _, s := range b.Instrs {
			instrs = append(instrs, s)
		}
		if _, err := g.AddBlock(exit, instrs...); err != nil {
			return nil, errors.Wrapf(err, "descriptor: unit %q", u.Name)
		}
	}
	if u.Source != 0 {
		if err := g.SetSource(u.Source); err != nil {
			return nil, errors.Wrapf(err, "descriptor: unit %q source", u.Name)
		}
	}
	if err := g.Resolve(); err != nil {
		return nil, errors.Wrapf(err, "descriptor: unit %q", u.Name)
	}
	return g, nil
}

func (x Exit) exit(i int) (block.Exit, error) {
	k, ok := kinds[x.Kind]
	if !ok {
		return nil, KindError{Block: i, Kind: x.Kind}
	}
	need := func(field string, v *int) (int, error) {
		if v == nil {
			return 0, MissingTargetError{Block: i, Field: field}
		}
		return *v, nil
	}
	var err error
	switch k {
	case block.KindJump:
		var j block.Jump
		j.Target, err = need("target", x.Target)
		return j, err
	case block.KindCondJump:
		cj := block.CondJump{Test: x.Test}
		if cj.True, err = need("true", x.True); err != nil {
			return nil, err
		}
		cj.False, err = need("false", x.False)
		return cj, err
	case block.KindReturn:
		return block.Return{Value: x.Value}, nil
	case block.KindRaise:
		return block.Raise{}, nil
	case block.KindTry:
		var t block.Try
		if t.Body, err = need("body", x.Body); err != nil {
			return nil, err
		}
		t.Handler, err = need("handler", x.Handler)
		return t, err
	case block.KindWith:
		w := block.With{Resource: x.Resource}
		if w.Body, err = need("body", x.Body); err != nil {
			return nil, err
		}
		w.Cleanup, err = need("cleanup", x.Cleanup)
		return w, err
	}
	return block.Terminal{}, nil
}

// FromGraph returns the descriptor of g. Instructions are written with
// their default format.
func FromGraph(name string, g *flowgraph.FlowGraph) Unit {
	u := Unit{Name: name, Source: g.Source()}
	for i := 0; i < g.Len(); i++ {
		b, err := g.Block(i)
		if err != nil {
			// Removed blocks keep their index as unreachable stubs.
			u.Blocks = append(u.Blocks, Block{Exit: Exit{Kind: block.KindTerminal.String()}})
			continue
		}
		var d Block
		for _, instr := range b.Instrs {
			if f, ok := instr.(block.ExceptionFilter); ok && d.Filter == "" {
				d.Filter = f.Exception()
				continue
			}
			d.Instrs = append(d.Instrs, fmt.Sprint(instr))
		}
		d.Exit = exitOf(b.Exit)
		u.Blocks = append(u.Blocks, d)
	}
	return u
}

func exitOf(exit block.Exit) Exit {
	x := Exit{Kind: exit.Kind().String()}
	ref := func(i int) *int { return &i }
	switch exit := exit.(type) {
	case block.Jump:
		x.Target = ref(exit.Target)
	case block.CondJump:
		x.Test, x.True, x.False = fmt.Sprint(exit.Test), ref(exit.True), ref(exit.False)
	case block.Return:
		x.Value = exit.Value
	case block.Try:
		x.Body, x.Handler = ref(exit.Body), ref(exit.Handler)
	case block.With:
		x.Resource, x.Body, x.Cleanup = fmt.Sprint(exit.Resource), ref(exit.Body), ref(exit.Cleanup)
	}
	return x
}
