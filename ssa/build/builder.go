package build

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io"

	"github.com/nickng/gostruct/ssa"
	"github.com/pkg/errors"
)

// Builder builds SSA IR and metainfo.
type Builder interface {
	Build() (*ssa.Info, error)
}

// FileSrc is a set of filenames.
type FileSrc struct {
	Files []string
}

// FromFiles returns a non-nil Builder from filenames of the same package.
func FromFiles(files ...string) Configurer {
	return newConfig(&FileSrc{Files: files})
}

func (s *FileSrc) parse(fset *token.FileSet) ([]*ast.File, error) {
	var files []*ast.File
	for _, name := range s.Files {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse file: %s", name)
		}
		files = append(files, f)
	}
	return files, nil
}

// CachedSrc is source file from a reader.
type CachedSrc struct {
	cached []byte
	err    error
}

// FromReader returns a non-nil Builder for a reader.
// This is typically used for testing or building a temporary file.
func FromReader(r io.Reader) Configurer {
	b, err := io.ReadAll(r)
	return newConfig(&CachedSrc{cached: b, err: errors.Wrap(err, "failed to read from reader")})
}

func (s *CachedSrc) parse(fset *token.FileSet) ([]*ast.File, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.cached) == 0 {
		return nil, nil
	}
	f, err := parser.ParseFile(fset, "tmp.go", s.cached, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return []*ast.File{f}, nil
}
