package flowgraph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nickng/gostruct/block"
)

type dotWriter struct {
	w      *bufio.Writer
	instrs bool
}

func (d *dotWriter) EnterBlk(b *block.Block) {
	var label strings.Builder
	fmt.Fprintf(&label, "#%d %s", b.Index, b.Exit.Kind())
	if d.instrs {
		for _, instr := range b.Instrs {
			fmt.Fprintf(&label, "\n%v", instr)
		}
	}
	shape := "box"
	if b.Synthetic() {
		shape = "box3d"
	}
	fmt.Fprintf(d.w, "  n%d [shape=%s label=%q];\n", b.Index, shape, label.String())
}

func (d *dotWriter) JumpBlk(curr, next *block.Block, label string) {
	if label == "" {
		fmt.Fprintf(d.w, "  n%d -> n%d;\n", curr.Index, next.Index)
		return
	}
	style := ""
	if label == "handler" || label == "cleanup" {
		style = " style=dashed"
	}
	fmt.Fprintf(d.w, "  n%d -> n%d [label=%q%s];\n", curr.Index, next.Index, label, style)
}

func (d *dotWriter) ExitBlk(b *block.Block) {
	fmt.Fprintf(d.w, "  n%d -> exit;\n", b.Index)
}

// WriteDot writes the reachable part of g as a Graphviz digraph named name.
// If instrs is true, block labels include their instructions.
func (g *FlowGraph) WriteDot(w io.Writer, name string, instrs bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "strict digraph %q {\n", name)
	fmt.Fprintf(bw, "  exit [shape=point];\n")
	Walk(g, &dotWriter{w: bw, instrs: instrs})
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}
