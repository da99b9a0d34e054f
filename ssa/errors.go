package ssa

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoMainPkgs   = errors.New("ssa: no main packages")
	ErrNoBody       = errors.New("ssa: function has no body")
	ErrUnknownAlgo  = errors.New("ssa: unknown callgraph algorithm")
	ErrNoSourcePkgs = errors.New("ssa: no source package")
)

// FuncNotFoundError is returned when a function path names no function.
type FuncNotFoundError struct {
	Path string
}

func (e FuncNotFoundError) Error() string {
	return fmt.Sprintf("ssa: function %s not found", e.Path)
}
