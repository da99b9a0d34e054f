package structure

import "github.com/nickng/gostruct/block"

// Node is a structured statement.
type Node interface {
	node()
}

// Sequence runs Nodes in order.
type Sequence struct {
	Nodes []Node
}

// Basic is the straight-line code of block Index.
type Basic struct {
	Index  int
	Instrs []block.Instr
}

// If runs Then when Test holds (fails if Negated), Else otherwise. Else is
// nil for an if without else.
type If struct {
	Test    block.Operand
	Negated bool
	Then    Node
	Else    Node
}

// Guard runs Exit, which never completes normally, when Test holds (fails
// if Negated). Control continues after the guard otherwise.
type Guard struct {
	Test    block.Operand
	Negated bool
	Exit    Node
}

// While evaluates Header, then runs Body and repeats while Test holds (fails
// if Negated).
type While struct {
	Header  Node
	Test    block.Operand
	Negated bool
	Body    Node
}

// DoWhile runs Body and repeats while Test holds (fails if Negated).
type DoWhile struct {
	Body    Node
	Test    block.Operand
	Negated bool
}

// Loop runs Body until a Break, Return or Raise leaves it.
type Loop struct {
	Body Node
}

// Except is a clause of a Try.
type Except struct {
	Filter string // "" for a bare clause.
	Match  Node   // Code of the dispatch test, or nil.
	Body   Node
}

// Try runs Body under Handlers, then Finally if not nil. Reraise is true if
// an exception matching no clause is raised again.
type Try struct {
	Body     Node
	Handlers []Except
	Reraise  bool
	Finally  Node
}

// With runs Body with Resource held, then Cleanup.
type With struct {
	Resource block.Operand
	Body     Node
	Cleanup  Node
}

// Return leaves the function.
type Return struct {
	Value bool
}

// Raise leaves the function by raising.
type Raise struct{}

// End is where the unit stops without returning.
type End struct{}

// Break leaves the loop headed by block Loop.
type Break struct {
	Loop int
}

// Continue starts the next iteration of the loop headed by block Loop.
type Continue struct {
	Loop int
}

// Goto transfers control to the Label of block Target.
type Goto struct {
	Target int
}

// Label marks the start of block Index as a Goto target.
type Label struct {
	Index int
	Body  Node
}

// Raised is the test an unstructured protected range degrades to: it holds
// when the range entered at Setup raised.
type Raised struct {
	Setup int
}

func (*Sequence) node() {}
func (*Basic) node()    {}
func (*If) node()       {}
func (*Guard) node()    {}
func (*While) node()    {}
func (*DoWhile) node()  {}
func (*Loop) node()     {}
func (*Try) node()      {}
func (*With) node()     {}
func (*Return) node()   {}
func (*Raise) node()    {}
func (*End) node()      {}
func (*Break) node()    {}
func (*Continue) node() {}
func (*Goto) node()     {}
func (*Label) node()    {}

// Seq returns the sequence of nodes, with nested sequences flattened and
// empty basic blocks dropped. A single node is returned as is.
func Seq(nodes ...Node) Node {
	var out []Node
	for _, n := range nodes {
		switch n := n.(type) {
		case nil:
		case *Sequence:
			if s, ok := Seq(n.Nodes...).(*Sequence); ok {
				out = append(out, s.Nodes...)
			} else {
				out = append(out, Seq(n.Nodes...))
			}
		case *Basic:
			if len(n.Instrs) > 0 {
				out = append(out, n)
			}
		default:
			out = append(out, n)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Sequence{Nodes: out}
}

// last returns the last statement of n.
func last(n Node) Node {
	for {
		s, ok := n.(*Sequence)
		if !ok || len(s.Nodes) == 0 {
			return n
		}
		n = s.Nodes[len(s.Nodes)-1]
	}
}

// raises returns true if n ends by raising.
func raises(n Node) bool {
	_, ok := last(n).(*Raise)
	return ok
}

// labelled returns true if n starts with the label of block i.
func labelled(n Node, i int) bool {
	for {
		switch m := n.(type) {
		case *Label:
			return m.Index == i
		case *Sequence:
			if len(m.Nodes) == 0 {
				return false
			}
			n = m.Nodes[0]
		default:
			return false
		}
	}
}

// asTryExcept returns the try/except n consists of, if any.
func asTryExcept(n Node) (*Try, bool) {
	t, ok := Seq(n).(*Try)
	if !ok || t.Finally != nil {
		return nil, false
	}
	return t, true
}
