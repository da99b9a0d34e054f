package block

import (
	"bytes"
	"fmt"
)

// Instr is an opaque instruction payload.
type Instr interface{}

// ExceptionFilter is implemented by instructions that declare which
// exceptions an except clause handles. A CondJump block carrying one is the
// dispatch test of that clause.
type ExceptionFilter interface {
	Exception() string
}

// Filter is an ExceptionFilter naming an exception type.
type Filter string

func (f Filter) Exception() string { return string(f) }

func (f Filter) String() string { return "except " + string(f) }

// Block is a basic block.
type Block struct {
	Index  int
	Instrs []Instr
	Exit   Exit

	// Payload is the structured form of a synthetic block.
	Payload interface{}
}

// New returns a block with the given exit.
func New(index int, exit Exit, instrs ...Instr) *Block {
	return &Block{Index: index, Instrs: instrs, Exit: exit}
}

// Successors returns successor block indices in target order, without
// duplicates.
func (b *Block) Successors() []int {
	targets := b.Exit.Targets()
	if len(targets) == 2 && targets[0] == targets[1] {
		return targets[:1]
	}
	return targets
}

// IsTerminal returns true if the block has no successor.
func (b *Block) IsTerminal() bool {
	return len(b.Exit.Targets()) == 0
}

// Synthetic returns true if b stands for an already structured region.
func (b *Block) Synthetic() bool {
	return b.Payload != nil
}

// Filter returns the exception filter carried by the block, if any.
func (b *Block) Filter() (ExceptionFilter, bool) {
	for _, instr := range b.Instrs {
		if f, ok := instr.(ExceptionFilter); ok {
			return f, true
		}
	}
	return nil, false
}

// IsDispatch returns true if b is the test of an except clause.
func (b *Block) IsDispatch() bool {
	if _, ok := b.Exit.(CondJump); !ok {
		return false
	}
	_, ok := b.Filter()
	return ok
}

func (b *Block) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#%d %s", b.Index, b.Exit.Kind())
	if t := b.Exit.Targets(); len(t) > 0 {
		fmt.Fprintf(&buf, " %v", t)
	}
	return buf.String()
}
