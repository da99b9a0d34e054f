package ssa

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/ssa"
)

// CallGraph is a representation of CallGraph, wrapped with metadata.
type CallGraph struct {
	cg      *callgraph.Graph // Internal cached copy of the callgraph.
	edges   []*cgEdge        // Result of callgraph analysis.
	prog    *ssa.Program     // SSA Program for which the callgraph is built from.
	usedFns []*ssa.Function  // Functions actually used by current Program.
	allFns  []*ssa.Function  // Functions in the current Program (including unused).
}

// AllFunctions return all ssa.Functions in the callgraph, sorted by name.
func (g *CallGraph) AllFunctions() ([]*ssa.Function, error) {
	if g.allFns != nil {
		return g.allFns, nil
	}
	nodes := make(map[*ssa.Function]bool, len(g.cg.Nodes))
	for fn := range g.cg.Nodes {
		if fn != nil {
			nodes[fn] = true
		}
	}
	g.allFns = sortedFuncs(nodes)
	return g.allFns, nil
}

// UsedFunctions return a slice of ssa.Function actually used by the current
// Program, rooted at main.init() and main.main(), sorted by name.
func (g *CallGraph) UsedFunctions() ([]*ssa.Function, error) {
	if g.usedFns != nil {
		return g.usedFns, nil
	}

	callTree := make(map[*ssa.Function][]*ssa.Function)
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		callTree[edge.Caller.Func] = append(callTree[edge.Caller.Func], edge.Callee.Func)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to visit edges")
	}

	mains, err := MainPkgs(g.prog)
	if err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to find main packages (is this a command?)")
	}

	var fnQueue []*ssa.Function
	for _, main := range mains {
		for _, name := range []string{"init", "main"} {
			if fn := main.Func(name); fn != nil && g.cg.Nodes[fn] != nil {
				fnQueue = append(fnQueue, fn)
			}
		}
	}

	visited := make(map[*ssa.Function]bool)
	for len(fnQueue) > 0 {
		headFn := fnQueue[0]
		fnQueue = fnQueue[1:]
		visited[headFn] = true
		for _, fn := range callTree[headFn] {
			if !visited[fn] {
				fnQueue = append(fnQueue, fn)
			}
			visited[fn] = true
		}
	}
	g.usedFns = sortedFuncs(visited)
	return g.usedFns, nil
}

func sortedFuncs(set map[*ssa.Function]bool) []*ssa.Function {
	funcs := make([]*ssa.Function, 0, len(set))
	for fn := range set {
		funcs = append(funcs, fn)
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].String() < funcs[j].String() })
	return funcs
}

// WriteGraphviz writes callgraph to w in graphviz dot format. Dynamic calls
// are dashed.
func (g *CallGraph) WriteGraphviz(w io.Writer) error {
	if g.edges == nil {
		if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
			g.edges = append(g.edges, &cgEdge{Caller: edge.Caller.Func, Callee: edge.Callee.Func, edge: edge})
			return nil
		}); err != nil {
			return err
		}
	}

	bufw := bufio.NewWriter(w)
	bufw.WriteString("digraph callgraph {\n")
	for _, edge := range g.edges {
		if edge.Dynamic() {
			fmt.Fprintf(bufw, "  %q -> %q [style=dashed]\n", edge.Caller, edge.Callee)
			continue
		}
		fmt.Fprintf(bufw, "  %q -> %q\n", edge.Caller, edge.Callee)
	}
	bufw.WriteString("}\n")
	return bufw.Flush()
}

// cgEdge is a single edge in the callgraph.
//
// Code based on golang.org/x/tools/cmd/callgraph
type cgEdge struct {
	Caller *ssa.Function
	Callee *ssa.Function

	edge *callgraph.Edge
}

func (e *cgEdge) Dynamic() bool {
	return e.edge.Site != nil && e.edge.Site.Common().StaticCallee() == nil
}

// BuildCallGraph constructs a callgraph from ssa.Info.
// algo is algorithm available in golang.org/x/tools/go/callgraph, which
// includes:
//   - static: static calls only (unsound)
//   - cha: Class Hierarchy Analysis
//   - rta: Rapid Type Analysis, rooted at main.init and main.main
func (info *Info) BuildCallGraph(algo string) (*CallGraph, error) {
	var cg *callgraph.Graph
	switch algo {
	case "static":
		cg = static.CallGraph(info.Prog)

	case "cha":
		cg = cha.CallGraph(info.Prog)

	case "rta":
		mains, err := MainPkgs(info.Prog)
		if err != nil {
			return nil, err
		}
		var roots []*ssa.Function
		for _, main := range mains {
			for _, name := range []string{"init", "main"} {
				if fn := main.Func(name); fn != nil {
					roots = append(roots, fn)
				}
			}
		}
		cg = rta.Analyze(roots, true).CallGraph

	default:
		return nil, errors.Wrapf(ErrUnknownAlgo, "%q", algo)
	}

	cg.DeleteSyntheticNodes()

	return &CallGraph{cg: cg, prog: info.Prog}, nil
}
