package ssa

import (
	"io"
	"sort"

	"golang.org/x/tools/go/ssa"
)

// members is slice of ssa.Member. Used only for sorting by Pos.
type members []ssa.Member

func (m members) Len() int           { return len(m) }
func (m members) Less(i, j int) bool { return m[i].Pos() < m[j].Pos() }
func (m members) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }

// WriteTo writes Functions reachable from main to w in human readable SSA
// IR instruction format.
func (info *Info) WriteTo(w io.Writer) (int64, error) {
	graph, err := info.BuildCallGraph("rta")
	if err != nil {
		return 0, err
	}
	funcs, err := graph.UsedFunctions()
	if err != nil {
		return 0, err
	}
	return writeFuncs(w, funcs)
}

// WriteAll writes all Functions in the callgraph to w in human readable SSA
// IR instruction format.
func (info *Info) WriteAll(w io.Writer) (int64, error) {
	graph, err := info.BuildCallGraph("static")
	if err != nil {
		return 0, err
	}
	funcs, err := graph.AllFunctions()
	if err != nil {
		return 0, err
	}
	return writeFuncs(w, funcs)
}

// WriteFunc writes the Function at path to w.
func (info *Info) WriteFunc(w io.Writer, path string) (int64, error) {
	fn, err := info.FindFunc(path)
	if err != nil {
		return 0, err
	}
	return fn.WriteTo(w)
}

func writeFuncs(w io.Writer, funcs []*ssa.Function) (int64, error) {
	pkgFuncs := make(map[*ssa.Package]members)
	var pkgs []*ssa.Package
	for _, f := range funcs {
		if f.Pkg == nil {
			continue
		}
		if _, ok := pkgFuncs[f.Pkg]; !ok {
			pkgs = append(pkgs, f.Pkg)
		}
		pkgFuncs[f.Pkg] = append(pkgFuncs[f.Pkg], f)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Pkg.Path() < pkgs[j].Pkg.Path() })
	var n int64
	for _, pkg := range pkgs {
		sort.Sort(pkgFuncs[pkg])
		for _, f := range pkgFuncs[pkg] {
			written, err := f.(*ssa.Function).WriteTo(w)
			if err != nil {
				return n, err
			}
			n += written
		}
	}
	return n, nil
}
