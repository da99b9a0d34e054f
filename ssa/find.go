package ssa

import (
	"regexp"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// FindFunc parses path (e.g. "github.com/nickng/gostruct/ssa".MainPkgs or
// main.f$1 for a closure) and returns the Function declared in the source
// files. Does not handle methods.
func (info *Info) FindFunc(path string) (*ssa.Function, error) {
	pkgPath, fnName := parseFuncPath(path)
	for _, f := range info.Funcs() {
		if f.Signature.Recv() != nil {
			continue
		}
		if f.Pkg.Pkg.Path() == pkgPath && f.Name() == fnName {
			return f, nil
		}
	}
	return nil, FuncNotFoundError{Path: path}
}

var (
	parenPath = regexp.MustCompile(`\((?P<pkg>[^)]+)\)\.(?P<fn>.+)`)
	quotePath = regexp.MustCompile(`"(?P<pkg>[^"]+)"\.(?P<fn>.+)`)
)

// parseFuncPath splits path to package and function segments.
func parseFuncPath(path string) (pkgPath, fnName string) {
	if len(path) < 1 {
		return "", ""
	}
	switch path[0] {
	case '(':
		if m := parenPath.FindStringSubmatch(path); len(m) >= 3 {
			return m[1], m[2]
		}
	case '"':
		if m := quotePath.FindStringSubmatch(path); len(m) >= 3 {
			return m[1], m[2]
		}
	default:
		if i := strings.LastIndex(path, "."); i > 0 {
			return path[:i], path[i+1:]
		}
	}
	return "", path
}
