package flowgraph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nickng/gostruct/block"
)

func TestTraverseEdges(t *testing.T) {
	g := New(AllowForward())
	g.AddBlock(block.CondJump{True: 1, False: 2})
	g.AddBlock(block.Jump{Target: 3})
	g.AddBlock(block.Jump{Target: 3})
	g.AddBlock(block.Jump{Target: 1})
	if err := g.Resolve(); err != nil {
		t.Fatalf("cannot resolve: %v", err)
	}
	var visited []Edge
	var entered []int
	TraverseEdges(g, func(from, to int) {
		visited = append(visited, Edge{Tail: from, Head: to})
	}, func(i int) {
		entered = append(entered, i)
	})
	want := []Edge{{-1, 0}, {0, 1}, {0, 2}, {1, 3}, {2, 3}, {3, 1}}
	if len(visited) != len(want) {
		t.Fatalf("edges mismatch, want:\n%v\ngot:\n%v\n", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("edges mismatch, want:\n%v\ngot:\n%v\n", want, visited)
		}
	}
	if len(entered) != 4 {
		t.Errorf("expects 4 entered blocks, got %v", entered)
	}
}

func TestWriteDot(t *testing.T) {
	g := New(AllowForward())
	g.AddBlock(block.Try{Body: 1, Handler: 2}, "setup")
	g.AddBlock(block.CondJump{True: 3, False: 3})
	g.AddBlock(block.Jump{Target: 3})
	g.AddBlock(block.Return{Value: true})
	if err := g.Resolve(); err != nil {
		t.Fatalf("cannot resolve: %v", err)
	}
	var buf bytes.Buffer
	if err := g.WriteDot(&buf, "f", true); err != nil {
		t.Fatalf("cannot write dot: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`strict digraph "f" {`,
		`n0 [shape=box label="#0 try\nsetup"];`,
		`n0 -> n1 [label="body"];`,
		`n0 -> n2 [label="handler" style=dashed];`,
		`n1 -> n3 [label="ifTrue|ifFalse"];`,
		`n3 -> exit;`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q, got:\n%s\n", want, out)
		}
	}
}
