// Package ssa builds Go SSA and turns its functions into flow graphs.
//
// The SSA IR is from golang.org/x/tools/go/ssa. Each function body becomes a
// flowgraph.FlowGraph with one block per SSA basic block, so the structuring
// engine can recover its if/else and loop nesting.
package ssa

import (
	"go/ast"
	"go/token"
	"io"

	"golang.org/x/tools/go/ssa"
)

// Info holds the results of a SSA build for analysis.
// To populate this structure, the 'build' subpackage should be used.
type Info struct {
	FSet  *token.FileSet // FileSet for parsed source files.
	Files []*ast.File    // Parsed source files.
	Prog  *ssa.Program   // SSA IR for whole program.
	Pkg   *ssa.Package   // Package built from the source files.

	BldLog io.Writer // Build log.
}
