package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/nickng/gostruct/descriptor"
	"github.com/nickng/gostruct/flowgraph"
	"github.com/nickng/gostruct/internal/logger"
	"github.com/nickng/gostruct/structure"
	"github.com/pkg/errors"
)

// unit is a named flow graph from an input file.
type unit struct {
	name string
	g    *flowgraph.FlowGraph
	err  error
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer, files []string) error {
	conf := structure.NewConfig().WithWorkers(opts.Workers).WithDupBudget(opts.DupBudget)
	if opts.Verbose {
		l := logger.New()
		defer l.Sync()
		conf = conf.WithLogger(l)
	}

	var units []unit
	for _, file := range files {
		us, err := readUnits(file, opts.Input)
		if err != nil {
			return err
		}
		units = append(units, us...)
	}

	if opts.Dot != "" {
		if err := writeDots(opts.Dot, units); err != nil {
			return err
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	var graphs []*flowgraph.FlowGraph
	for _, u := range units {
		if u.err == nil {
			graphs = append(graphs, u.g)
		}
	}
	structured, err := structure.StructureAll(ctx, conf, graphs...)
	if err != nil {
		return errors.Wrap(err, "structuring abandoned")
	}

	results := make([]descriptor.Result, 0, len(units))
	texts := make([]string, 0, len(units))
	failed := 0
	for _, u := range units {
		if u.err != nil {
			results = append(results, descriptor.Result{Name: u.name, Error: u.err.Error()})
			texts = append(texts, "")
			failed++
			continue
		}
		r := structured[0]
		structured = structured[1:]
		if r.Err != nil {
			failed++
		}
		results = append(results, descriptor.NewResult(u.name, r))
		texts = append(texts, structure.Format(r.Node))
	}

	out := stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return errors.Wrapf(err, "cannot create output file %s", opts.Out)
		}
		defer f.Close()
		out = f
	}
	if err := writeResults(out, stderr, opts.Output, results, texts); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(units))
	}
	return nil
}

// readUnits decodes file and builds the graph of every unit in it. A unit
// that does not form a valid graph is kept with its error.
func readUnits(file, input string) ([]unit, error) {
	format, err := descriptor.FormatOf(file)
	if input != "" {
		format, err = descriptor.ParseFormat(input)
	}
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := descriptor.Decode(f, format)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	units := make([]unit, 0, len(doc.Units))
	for i := range doc.Units {
		u := unit{name: doc.Units[i].Name}
		if u.name == "" {
			u.name = fmt.Sprintf("%s#%d", filepath.Base(file), i)
		}
		u.g, u.err = doc.Units[i].Graph()
		units = append(units, u)
	}
	return units, nil
}

func writeDots(dir string, units []unit) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, u := range units {
		if u.err != nil {
			continue
		}
		f, err := os.Create(filepath.Join(dir, u.name+".dot"))
		if err != nil {
			return err
		}
		err = u.g.WriteDot(f, u.name, true)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "cannot write dot for %s", u.name)
		}
	}
	return nil
}

// writeResults writes results in output format. The text format prints
// texts and reports diagnostics on stderr.
func writeResults(out, stderr io.Writer, output string, results []descriptor.Result, texts []string) error {
	if output != "text" {
		format, err := descriptor.ParseFormat(output)
		if err != nil {
			return err
		}
		return descriptor.EncodeResult(out, format, results)
	}
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)
	for i, r := range results {
		fmt.Fprintf(out, "# %s\n", r.Name)
		if r.Error != "" {
			fail.Fprintf(stderr, "%s: %s\n", r.Name, r.Error)
			continue
		}
		for _, d := range r.Diagnostics {
			warn.Fprintf(stderr, "%s: %s at #%d: %s\n", r.Name, d.Code, d.Block, d.Message)
		}
		fmt.Fprint(out, texts[i])
	}
	return nil
}
