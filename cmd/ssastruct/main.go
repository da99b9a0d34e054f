// Command ssastruct structures the control flow of Go functions from their
// SSA form.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/internal/logger"
	"github.com/nickng/gostruct/ssa"
	"github.com/nickng/gostruct/ssa/build"
	"github.com/nickng/gostruct/structure"
	gossa "golang.org/x/tools/go/ssa"
)

const (
	Usage = `ssastruct is a tool for recovering structured control flow of Go
functions from their SSA IR.

Usage:

  ssastruct [options] file.go [files.go...]

Options:

`
)

var (
	buildlogPath string
	callgraphOut string
	dupBudget    int
	outPath      string
	printSSA     bool
	reachable    bool
	verbose      bool
	viewFunc     string
	workers      int

	out io.Writer
)

func init() {
	flag.StringVar(&buildlogPath, "log", "", "Specify build log file (use '-' for stdout)")
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.StringVar(&viewFunc, "func", "", `Specify the function to structure (format: (import/path).FuncName, default: all)`)
	flag.BoolVar(&reachable, "reachable", false, "Only structure functions reachable from main (rta callgraph)")
	flag.StringVar(&callgraphOut, "callgraph", "", "Write the static callgraph in graphviz format to file")
	flag.BoolVar(&printSSA, "ssa", false, "Print SSA IR before each structured function")
	flag.IntVar(&dupBudget, "dup-budget", 0, "Block duplications allowed per function (0 = automatic)")
	flag.IntVar(&workers, "workers", 0, "Functions structured at once (0 = GOMAXPROCS)")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	conf := build.FromFiles(flag.Args()...)

	switch buildlogPath {
	case "":
	case "-":
		conf = conf.WithBuildLog(os.Stdout, log.LstdFlags)
	default:
		f, err := os.Create(buildlogPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", buildlogPath, err)
		}
		defer f.Close()
		conf = conf.WithBuildLog(f, log.LstdFlags)
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	info, err := conf.Build()
	if err != nil {
		log.Fatal("Cannot build SSA from files:", err)
	}

	if callgraphOut != "" {
		if err := writeCallgraph(info, callgraphOut); err != nil {
			log.Fatal("Cannot write callgraph:", err)
		}
	}

	funcs, err := selectFuncs(info)
	if err != nil {
		log.Fatal("Cannot select functions:", err)
	}

	sconf := structure.NewConfig().WithDupBudget(dupBudget).WithWorkers(workers)
	if verbose {
		l := logger.New()
		defer l.Sync()
		sconf = sconf.WithLogger(l)
	}

	var (
		graphs []*flowgraph.FlowGraph
		named  []*gossa.Function
	)
	for _, fn := range funcs {
		g, err := ssa.FlowGraph(fn)
		if err != nil {
			log.Printf("Skip %s: %v", fn, err)
			continue
		}
		graphs = append(graphs, g)
		named = append(named, fn)
	}

	results, err := structure.StructureAll(context.Background(), sconf, graphs...)
	if err != nil {
		log.Fatal("Cannot structure functions:", err)
	}
	for i, r := range results {
		fmt.Fprintf(out, "# %s\n", named[i])
		if printSSA {
			named[i].WriteTo(out)
		}
		if r.Err != nil {
			log.Printf("%s: %v", named[i], r.Err)
			continue
		}
		for _, d := range r.Diagnostics {
			log.Printf("%s: %v", named[i], d)
		}
		fmt.Fprint(out, structure.Format(r.Node))
	}
}

// selectFuncs returns the functions to structure.
func selectFuncs(info *ssa.Info) ([]*gossa.Function, error) {
	if viewFunc != "" {
		fn, err := info.FindFunc(viewFunc)
		if err != nil {
			return nil, err
		}
		return []*gossa.Function{fn}, nil
	}
	if !reachable {
		return info.Funcs(), nil
	}
	cg, err := info.BuildCallGraph("rta")
	if err != nil {
		return nil, err
	}
	used, err := cg.UsedFunctions()
	if err != nil {
		return nil, err
	}
	keep := make(map[*gossa.Function]bool, len(used))
	for _, fn := range used {
		keep[fn] = true
	}
	var funcs []*gossa.Function
	for _, fn := range info.Funcs() {
		if keep[fn] {
			funcs = append(funcs, fn)
		}
	}
	return funcs, nil
}

func writeCallgraph(info *ssa.Info, path string) error {
	cg, err := info.BuildCallGraph("static")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return cg.WriteGraphviz(f)
}
