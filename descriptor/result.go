package descriptor

import (
	"fmt"
	"io"

	"github.com/nickng/gostruct/structure"
)

// Node is the serialisable form of a structured tree. Kind names the
// statement; only the fields of that statement are set.
type Node struct {
	Kind     string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Block    *int     `json:"block,omitempty" yaml:"block,omitempty" msgpack:"block,omitempty"`
	Instrs   []string `json:"instrs,omitempty" yaml:"instrs,omitempty" msgpack:"instrs,omitempty"`
	Test     string   `json:"test,omitempty" yaml:"test,omitempty" msgpack:"test,omitempty"`
	Negated  bool     `json:"negated,omitempty" yaml:"negated,omitempty" msgpack:"negated,omitempty"`
	Value    bool     `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Filter   string   `json:"filter,omitempty" yaml:"filter,omitempty" msgpack:"filter,omitempty"`
	Reraise  bool     `json:"reraise,omitempty" yaml:"reraise,omitempty" msgpack:"reraise,omitempty"`
	Resource string   `json:"resource,omitempty" yaml:"resource,omitempty" msgpack:"resource,omitempty"`

	Nodes    []*Node `json:"nodes,omitempty" yaml:"nodes,omitempty" msgpack:"nodes,omitempty"`
	Header   *Node   `json:"header,omitempty" yaml:"header,omitempty" msgpack:"header,omitempty"`
	Then     *Node   `json:"then,omitempty" yaml:"then,omitempty" msgpack:"then,omitempty"`
	Else     *Node   `json:"else,omitempty" yaml:"else,omitempty" msgpack:"else,omitempty"`
	Body     *Node   `json:"body,omitempty" yaml:"body,omitempty" msgpack:"body,omitempty"`
	Match    *Node   `json:"match,omitempty" yaml:"match,omitempty" msgpack:"match,omitempty"`
	Handlers []*Node `json:"handlers,omitempty" yaml:"handlers,omitempty" msgpack:"handlers,omitempty"`
	Finally  *Node   `json:"finally,omitempty" yaml:"finally,omitempty" msgpack:"finally,omitempty"`
	Cleanup  *Node   `json:"cleanup,omitempty" yaml:"cleanup,omitempty" msgpack:"cleanup,omitempty"`
}

// Diagnostic is the serialisable form of a structure.Diagnostic.
type Diagnostic struct {
	Code    string `json:"code" yaml:"code" msgpack:"code"`
	Block   int    `json:"block" yaml:"block" msgpack:"block"`
	Message string `json:"message" yaml:"message" msgpack:"message"`
}

// Result is the outcome of structuring one unit.
type Result struct {
	Name        string       `json:"name" yaml:"name" msgpack:"name"`
	Tree        *Node        `json:"tree,omitempty" yaml:"tree,omitempty" msgpack:"tree,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// NewResult converts the outcome of structuring unit name.
func NewResult(name string, r structure.Result) Result {
	out := Result{Name: name, Tree: EncodeNode(r.Node)}
	for _, d := range r.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{Code: d.Code.String(), Block: d.Block, Message: d.Message})
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// EncodeResult writes results in format f.
func EncodeResult(w io.Writer, f Format, results []Result) error {
	return Encode(w, f, results)
}

// EncodeNode returns the serialisable form of n.
func EncodeNode(n structure.Node) *Node {
	index := func(i int) *int { return &i }
	switch n := n.(type) {
	case nil:
		return nil
	case *structure.Sequence:
		out := &Node{Kind: "sequence"}
		for _, m := range n.Nodes {
			out.Nodes = append(out.Nodes, EncodeNode(m))
		}
		return out
	case *structure.Basic:
		out := &Node{Kind: "basic", Block: index(n.Index)}
		for _, instr := range n.Instrs {
			out.Instrs = append(out.Instrs, fmt.Sprint(instr))
		}
		return out
	case *structure.If:
		return &Node{Kind: "if", Test: fmt.Sprint(n.Test), Negated: n.Negated, Then: EncodeNode(n.Then), Else: EncodeNode(n.Else)}
	case *structure.Guard:
		return &Node{Kind: "guard", Test: fmt.Sprint(n.Test), Negated: n.Negated, Body: EncodeNode(n.Exit)}
	case *structure.While:
		return &Node{Kind: "while", Header: EncodeNode(n.Header), Test: fmt.Sprint(n.Test), Negated: n.Negated, Body: EncodeNode(n.Body)}
	case *structure.DoWhile:
		return &Node{Kind: "dowhile", Body: EncodeNode(n.Body), Test: fmt.Sprint(n.Test), Negated: n.Negated}
	case *structure.Loop:
		return &Node{Kind: "loop", Body: EncodeNode(n.Body)}
	case *structure.Try:
		out := &Node{Kind: "try", Body: EncodeNode(n.Body), Reraise: n.Reraise, Finally: EncodeNode(n.Finally)}
		for _, h := range n.Handlers {
			out.Handlers = append(out.Handlers, &Node{Kind: "except", Filter: h.Filter, Match: EncodeNode(h.Match), Body: EncodeNode(h.Body)})
		}
		return out
	case *structure.With:
		return &Node{Kind: "with", Resource: fmt.Sprint(n.Resource), Body: EncodeNode(n.Body), Cleanup: EncodeNode(n.Cleanup)}
	case *structure.Return:
		return &Node{Kind: "return", Value: n.Value}
	case *structure.Raise:
		return &Node{Kind: "raise"}
	case *structure.End:
		return &Node{Kind: "end"}
	case *structure.Break:
		return &Node{Kind: "break", Block: index(n.Loop)}
	case *structure.Continue:
		return &Node{Kind: "continue", Block: index(n.Loop)}
	case *structure.Goto:
		return &Node{Kind: "goto", Block: index(n.Target)}
	case *structure.Label:
		return &Node{Kind: "label", Block: index(n.Index), Body: EncodeNode(n.Body)}
	}
	return &Node{Kind: fmt.Sprintf("%T", n)}
}
