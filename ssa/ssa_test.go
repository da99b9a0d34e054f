package ssa_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nickng/gostruct/block"
	"github.com/nickng/gostruct/ssa"
	"github.com/nickng/gostruct/ssa/build"
	"github.com/nickng/gostruct/structure"
	"github.com/pkg/errors"
)

const callProg = `package main
	func main() {
		foo(1)
	}
	func foo(n int) int {
		return n + 1
	}
	func bar() {
		println("doesn't reach here")
	}`

const flowProg = `package main
	func sum(n int) int {
		s := 0
		for i := 0; i < n; i++ {
			s += i
		}
		return s
	}
	func check(x int) {
		if x < 0 {
			panic("negative")
		}
	}
	func main() {
		check(sum(3))
		f := func() {}
		f()
	}`

func mustBuild(t *testing.T, s string) *ssa.Info {
	t.Helper()
	info, err := build.FromReader(strings.NewReader(s)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	return info
}

// This tests basic build.
func TestBuild(t *testing.T) {
	info := mustBuild(t, callProg)
	if info.Prog == nil {
		t.Errorf("SSA Program missing")
	}
	mains, err := ssa.MainPkgs(info.Prog)
	if err != nil {
		t.Errorf("cannot find main packages: %v", err)
	}
	for _, main := range mains {
		if main.Func("main") == nil {
			t.Error("expects main.main() but not found")
		}
	}
}

// This tests building with non-main package.
func TestBuildNonMainPkg(t *testing.T) {
	info := mustBuild(t, `package pkg; func main() {}`)
	if _, err := ssa.MainPkgs(info.Prog); err != ssa.ErrNoMainPkgs {
		t.Errorf("unexpected main package")
	}
	if _, err := info.BuildCallGraph("rta"); err != ssa.ErrNoMainPkgs {
		t.Errorf("expects rta to need a main package, got %v", err)
	}
}

// This tests building of callgraph.
func TestCallGraph(t *testing.T) {
	info := mustBuild(t, callProg)
	graph, err := info.BuildCallGraph("rta")
	if err != nil {
		t.Fatalf("build callgraph failed: %v", err)
	}
	fns, err := graph.UsedFunctions()
	if err != nil {
		t.Fatalf("cannot filter unused functions in callgraph: %v", err)
	}
	for _, fn := range fns {
		if fn.Pkg != nil && fn.Pkg.Pkg.Name() == "main" {
			if fn.Name() != "foo" && fn.Name() != "main" && fn.Name() != "init" {
				t.Errorf("expecting main.{init, main, foo}, but got main.%s", fn.Name())
			}
		}
	}
}

// This tests building of callgraph and retrieving of all functions in callgraph.
func TestCallGraphAllFunc(t *testing.T) {
	info := mustBuild(t, callProg)
	for _, algo := range []string{"static", "cha", "rta"} {
		graph, err := info.BuildCallGraph(algo)
		if err != nil {
			t.Fatalf("build %s callgraph failed: %v", algo, err)
		}
		allFuncs, err := graph.AllFunctions()
		if err != nil {
			t.Errorf("cannot get functions in callgraph: %v", err)
		}
		usedFuncs, err := graph.UsedFunctions()
		if err != nil {
			t.Errorf("cannot filter unused functions in callgraph: %v", err)
		}
		if len(allFuncs) < len(usedFuncs) {
			t.Errorf("%s callgraph has %d functions, %d are used. Expect used < all",
				algo, len(allFuncs), len(usedFuncs))
		}
		all := make(map[string]bool)
		for _, fn := range allFuncs {
			all[fn.String()] = true
		}
		for _, fn := range usedFuncs {
			if !all[fn.String()] {
				t.Errorf("%s callgraph: used function %s not in all functions", algo, fn)
			}
		}
		if !all["main.main"] || !all["main.foo"] {
			t.Errorf("%s callgraph: expects main.main and main.foo in %v", algo, allFuncs)
		}
	}
	if _, err := info.BuildCallGraph("pta"); errors.Cause(err) != ssa.ErrUnknownAlgo {
		t.Errorf("expects %v but got %v", ssa.ErrUnknownAlgo, err)
	}
}

func TestWriteGraphviz(t *testing.T) {
	info := mustBuild(t, callProg)
	cg, err := info.BuildCallGraph("static")
	if err != nil {
		t.Fatalf("Cannot build callgraph: %v", err)
	}
	var buf bytes.Buffer
	if err := cg.WriteGraphviz(&buf); err != nil {
		t.Fatalf("Cannot write callgraph: %v", err)
	}
	if !strings.Contains(buf.String(), `"main.main" -> "main.foo"`) {
		t.Errorf("expects main.main -> main.foo edge, got\n%s", buf.String())
	}
}

func TestFindFunc(t *testing.T) {
	info := mustBuild(t, flowProg)
	for _, path := range []string{"main.sum", `"main".check`, "(main).main", "main.main$1"} {
		if _, err := info.FindFunc(path); err != nil {
			t.Errorf("cannot find %s: %v", path, err)
		}
	}
	_, err := info.FindFunc("main.nothing")
	if _, ok := err.(ssa.FuncNotFoundError); !ok {
		t.Errorf("expects FuncNotFoundError but got %v", err)
	}
}

func TestFuncs(t *testing.T) {
	info := mustBuild(t, flowProg)
	var names []string
	for _, fn := range info.Funcs() {
		names = append(names, fn.Name())
	}
	if want, got := "sum check main main$1", strings.Join(names, " "); want != got {
		t.Errorf("expects functions %q in source order but got %q", want, got)
	}
}

func TestWriteFunc(t *testing.T) {
	info := mustBuild(t, flowProg)
	var buf bytes.Buffer
	if _, err := info.WriteFunc(&buf, "main.check"); err != nil {
		t.Fatalf("cannot write function: %v", err)
	}
	if !strings.Contains(buf.String(), "func check(x int):") {
		t.Errorf("expects check to be written, got\n%s", buf.String())
	}
}

func structured(t *testing.T, info *ssa.Info, path string) structure.Node {
	t.Helper()
	fn, err := info.FindFunc(path)
	if err != nil {
		t.Fatal(err)
	}
	g, err := ssa.FlowGraph(fn)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := len(fn.Blocks), g.Len(); want != got {
		t.Errorf("expects %d blocks but got %d", want, got)
	}
	n, ds, err := structure.Structure(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) > 0 {
		t.Errorf("unexpected diagnostics: %v", ds)
	}
	return n
}

func TestFlowGraph(t *testing.T) {
	info := mustBuild(t, flowProg)

	loop := structure.Format(structured(t, info, "main.sum"))
	if !strings.Contains(loop, "while") || strings.Contains(loop, "goto") {
		t.Errorf("expects for loop to be a while loop, got\n%s", loop)
	}

	guard := structure.Shape(structured(t, info, "main.check"))
	if !strings.Contains(guard, "raise") || strings.Contains(guard, "goto") {
		t.Errorf("expects panic to raise, got %s", guard)
	}

	fn, err := info.FindFunc("main.check")
	if err != nil {
		t.Fatal(err)
	}
	g, err := ssa.FlowGraph(fn)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.MustBlock(0).Exit.(block.CondJump); !ok {
		t.Errorf("expects entry block to branch, got %v", g.MustBlock(0).Exit)
	}
}

func TestFlowGraphNoBody(t *testing.T) {
	info := mustBuild(t, `package main
	func ext()
	func main() { ext() }`)
	fn := info.Pkg.Func("ext")
	if _, err := ssa.FlowGraph(fn); errors.Cause(err) != ssa.ErrNoBody {
		t.Errorf("expects %v but got %v", ssa.ErrNoBody, err)
	}
}

func TestWriteTo(t *testing.T) {
	info := mustBuild(t, callProg)
	var used, all bytes.Buffer
	if _, err := info.WriteTo(&used); err != nil {
		t.Fatalf("cannot write used functions: %v", err)
	}
	if _, err := info.WriteAll(&all); err != nil {
		t.Fatalf("cannot write all functions: %v", err)
	}
	if !strings.Contains(used.String(), "func foo(n int) int:") || strings.Contains(used.String(), "func bar():") {
		t.Errorf("expects only reachable functions, got\n%s", used.String())
	}
	if !strings.Contains(all.String(), "func foo(n int) int:") {
		t.Errorf("expects foo in all functions, got\n%s", all.String())
	}
}
