// Package build parses Go source files and builds their SSA IR for the
// parent ssa package.
//
// All sources given to one builder are one package. Its imports are type
// checked from compiler export data, so only the functions of the package
// itself have SSA bodies to structure.
//
// Sources are either files on disk:
//
//	info, err := build.FromFiles("main.go", "util.go").Build()
//
// or a reader, parsed in memory, which is mostly used for tests:
//
//	info, err := build.FromReader(strings.NewReader(src)).WithPkgPath("example.com/p").Build()
package build
