package ssa

import (
	"fmt"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

// Instr is an SSA instruction in a flow graph block.
type Instr struct {
	ssa.Instruction
}

func (i Instr) String() string {
	if v, ok := i.Instruction.(ssa.Value); ok && v.Name() != "" {
		return fmt.Sprintf("%s = %s", v.Name(), v.String())
	}
	return i.Instruction.String()
}

// FlowGraph returns the flow graph of fn, one block per SSA basic block.
// Block i of the graph is fn.Blocks[i]; the recover block, if any, is not
// reachable from the entry and is reported as such by the engine.
func FlowGraph(fn *ssa.Function) (*flowgraph.FlowGraph, error) {
	if len(fn.Blocks) == 0 {
		return nil, errors.Wrap(ErrNoBody, fn.String())
	}
	g := flowgraph.New(flowgraph.AllowForward())
	for _, b := range fn.Blocks {
		var (
			instrs []block.Instr
			exit   block.Exit = block.Terminal{}
		)
		for _, instr := range b.Instrs {
			switch instr := instr.(type) {
			case *ssa.If:
				exit = block.CondJump{Test: instr.Cond.Name(), True: b.Succs[0].Index, False: b.Succs[1].Index}
				continue
			case *ssa.Jump:
				exit = block.Jump{Target: b.Succs[0].Index}
				continue
			case *ssa.Return:
				exit = block.Return{Value: len(instr.Results) > 0}
				if len(instr.Results) == 0 {
					continue
				}
			case *ssa.Panic:
				exit = block.Raise{}
			}
			instrs = append(instrs, Instr{instr})
		}
		if _, err := g.AddBlock(exit, instrs...); err != nil {
			return nil, errors.Wrapf(err, "ssa: %s block %d", fn, b.Index)
		}
	}
	if err := g.Resolve(); err != nil {
		return nil, errors.Wrapf(err, "ssa: %s", fn)
	}
	return g, nil
}
