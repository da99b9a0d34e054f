package structure

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nickng/gostruct/block"
)

func test(t block.Operand, negated bool) string {
	if negated {
		return fmt.Sprintf("!(%v)", t)
	}
	return fmt.Sprint(t)
}

func (r Raised) String() string { return fmt.Sprintf("raised(#%d)", r.Setup) }

type printer struct {
	buf    bytes.Buffer
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.buf.WriteString(strings.Repeat("    ", p.indent))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) block(n Node) {
	p.indent++
	p.print(n)
	p.indent--
}

func (p *printer) print(n Node) {
	switch n := n.(type) {
	case nil:
	case *Sequence:
		for _, m := range n.Nodes {
			p.print(m)
		}
	case *Basic:
		p.line("# block %d", n.Index)
		for _, instr := range n.Instrs {
			p.line("%v", instr)
		}
	case *If:
		p.line("if %s {", test(n.Test, n.Negated))
		p.block(n.Then)
		if n.Else != nil {
			p.line("} else {")
			p.block(n.Else)
		}
		p.line("}")
	case *Guard:
		p.line("if %s {", test(n.Test, n.Negated))
		p.block(n.Exit)
		p.line("}")
	case *While:
		p.line("while {")
		p.block(n.Header)
		p.line("} %s {", test(n.Test, n.Negated))
		p.block(n.Body)
		p.line("}")
	case *DoWhile:
		p.line("do {")
		p.block(n.Body)
		p.line("} while %s", test(n.Test, n.Negated))
	case *Loop:
		p.line("loop {")
		p.block(n.Body)
		p.line("}")
	case *Try:
		p.line("try {")
		p.block(n.Body)
		for _, h := range n.Handlers {
			if h.Filter == "" {
				p.line("} except {")
			} else {
				p.line("} except %s {", h.Filter)
			}
			if h.Match != nil {
				p.block(h.Match)
			}
			p.block(h.Body)
		}
		if n.Reraise {
			p.line("} except {")
			p.block(&Raise{})
		}
		if n.Finally != nil {
			p.line("} finally {")
			p.block(n.Finally)
		}
		p.line("}")
	case *With:
		p.line("with %v {", n.Resource)
		p.block(n.Body)
		p.line("} cleanup {")
		p.block(n.Cleanup)
		p.line("}")
	case *Return:
		if n.Value {
			p.line("return value")
		} else {
			p.line("return")
		}
	case *Raise:
		p.line("raise")
	case *End:
		p.line("end")
	case *Break:
		p.line("break // loop #%d", n.Loop)
	case *Continue:
		p.line("continue // loop #%d", n.Loop)
	case *Goto:
		p.line("goto L%d", n.Target)
	case *Label:
		p.line("L%d:", n.Index)
		p.print(n.Body)
	default:
		p.line("?%T", n)
	}
}

// Format returns n as indented text.
func Format(n Node) string {
	p := &printer{}
	p.print(n)
	return p.buf.String()
}

// Shape returns a one-line rendering of n without block indices. Adjacent
// basic blocks print as one, so trees that only differ in how straight-line
// code is split into blocks have the same shape.
func Shape(n Node) string {
	var buf bytes.Buffer
	shape(&buf, n)
	return buf.String()
}

func shape(buf *bytes.Buffer, n Node) {
	s, ok := Seq(n).(*Sequence)
	if !ok {
		s = &Sequence{Nodes: []Node{Seq(n)}}
	}
	var instrs []string
	sep := false
	flush := func() {
		if len(instrs) == 0 {
			return
		}
		if sep {
			buf.WriteByte(';')
		}
		fmt.Fprintf(buf, "b(%s)", strings.Join(instrs, ","))
		instrs, sep = nil, true
	}
	for _, m := range s.Nodes {
		if b, ok := m.(*Basic); ok {
			for _, instr := range b.Instrs {
				instrs = append(instrs, fmt.Sprint(instr))
			}
			continue
		}
		flush()
		if sep {
			buf.WriteByte(';')
		}
		stmt(buf, m)
		sep = true
	}
	flush()
}

func braced(buf *bytes.Buffer, n Node) {
	buf.WriteByte('{')
	if n != nil {
		shape(buf, n)
	}
	buf.WriteByte('}')
}

func stmt(buf *bytes.Buffer, n Node) {
	switch n := n.(type) {
	case *If:
		fmt.Fprintf(buf, "if(%s)", test(n.Test, n.Negated))
		braced(buf, n.Then)
		if n.Else != nil {
			buf.WriteString("else")
			braced(buf, n.Else)
		}
	case *Guard:
		fmt.Fprintf(buf, "guard(%s)", test(n.Test, n.Negated))
		braced(buf, n.Exit)
	case *While:
		buf.WriteString("while")
		braced(buf, n.Header)
		fmt.Fprintf(buf, "(%s)", test(n.Test, n.Negated))
		braced(buf, n.Body)
	case *DoWhile:
		buf.WriteString("do")
		braced(buf, n.Body)
		fmt.Fprintf(buf, "while(%s)", test(n.Test, n.Negated))
	case *Loop:
		buf.WriteString("loop")
		braced(buf, n.Body)
	case *Try:
		buf.WriteString("try")
		braced(buf, n.Body)
		for _, h := range n.Handlers {
			fmt.Fprintf(buf, "except(%s)", h.Filter)
			braced(buf, Seq(h.Match, h.Body))
		}
		if n.Reraise {
			buf.WriteString("reraise")
		}
		if n.Finally != nil {
			buf.WriteString("finally")
			braced(buf, n.Finally)
		}
	case *With:
		fmt.Fprintf(buf, "with(%v)", n.Resource)
		braced(buf, n.Body)
		buf.WriteString("cleanup")
		braced(buf, n.Cleanup)
	case *Return:
		buf.WriteString("return")
		if n.Value {
			buf.WriteString("(v)")
		}
	case *Raise:
		buf.WriteString("raise")
	case *End:
		buf.WriteString("end")
	case *Break:
		buf.WriteString("break")
	case *Continue:
		buf.WriteString("continue")
	case *Goto:
		buf.WriteString("goto")
	case *Label:
		buf.WriteString("label")
		braced(buf, n.Body)
	case *Sequence:
		braced(buf, n)
	default:
		fmt.Fprintf(buf, "?%T", n)
	}
}
