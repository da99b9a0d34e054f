// Command cfgstruct structures the flow graphs of block descriptor files.
//
// Each input file is a descriptor document (YAML, JSON or msgpack, chosen by
// extension or --input). Every unit in it is structured and the trees are
// written as text or in the --output format.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "cfgstruct:", err)
		os.Exit(1)
	}
}
