package build

import (
	"go/ast"
	"go/importer"
	"go/token"
	"go/types"
	"io"
	"log"

	"github.com/nickng/gostruct/ssa"
	"github.com/pkg/errors"
	gossa "golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// srcReader is a wrapper for source code which can be parsed into files.
type srcReader interface {
	parse(fset *token.FileSet) ([]*ast.File, error)
}

type Configurer interface {
	Builder
	WithBuildLog(l io.Writer, flags int) Configurer
	WithPkgPath(path string) Configurer
}

// Config represents a build configuration.
type Config struct {
	bldLog    io.Writer // Build log.
	bldLFlags int       // Build log flags.
	pkgPath   string    // Import path of the built package.

	src srcReader // src points to the program source.
}

func newConfig(src srcReader) *Config {
	return &Config{
		bldLog:    io.Discard,
		bldLFlags: log.LstdFlags,
		src:       src,
	}
}

// WithBuildLog adds build log to config.
func (c *Config) WithBuildLog(l io.Writer, flags int) Configurer {
	c.bldLog = l
	c.bldLFlags = flags
	return c
}

// WithPkgPath sets the import path of the package. The package name is used
// if unset.
func (c *Config) WithPkgPath(path string) Configurer {
	c.pkgPath = path
	return c
}

// Build parses and type checks the source as a single package and builds
// its SSA. Imported packages are loaded from export data and have no
// function bodies.
func (c *Config) Build() (*ssa.Info, error) {
	bldLog := log.New(c.bldLog, "ssabuild: ", c.bldLFlags)

	fset := token.NewFileSet()
	files, err := c.src.parse(fset)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ssa.ErrNoSourcePkgs
	}

	name := files[0].Name.Name
	path := c.pkgPath
	if path == "" {
		path = name
	}
	tconf := &types.Config{Importer: importer.Default()}
	pkg, _, err := ssautil.BuildPackage(tconf, fset, types.NewPackage(path, name), files, gossa.BareInits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to type check")
	}
	bldLog.Print("Program loaded and type checked")
	bldLog.Printf("Built package %s (%d members)", pkg.Pkg.Path(), len(pkg.Members))

	return &ssa.Info{
		FSet:   fset,
		Files:  files,
		Prog:   pkg.Prog,
		Pkg:    pkg,
		BldLog: c.bldLog,
	}, nil
}
