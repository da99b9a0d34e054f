package ssa

import (
	"go/token"
	"sort"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// MainPkgs returns the main packages in the program.
func MainPkgs(prog *ssa.Program) ([]*ssa.Package, error) {
	mains := ssautil.MainPackages(prog.AllPackages())
	if len(mains) == 0 {
		return nil, ErrNoMainPkgs
	}
	return mains, nil
}

// Funcs returns the functions declared in the source files, closures
// included, in source order.
func (info *Info) Funcs() []*ssa.Function {
	var funcs []*ssa.Function
	for fn := range ssautil.AllFunctions(info.Prog) {
		if fn.Pkg != info.Pkg || fn.Synthetic != "" || fn.Pos() == token.NoPos {
			continue
		}
		funcs = append(funcs, fn)
	}
	sort.Slice(funcs, func(i, j int) bool {
		if funcs[i].Pos() != funcs[j].Pos() {
			return funcs[i].Pos() < funcs[j].Pos()
		}
		return funcs[i].String() < funcs[j].String()
	})
	return funcs
}
