package structure

import (
	"fmt"
	"sort"
)

// Code classifies a Diagnostic.
type Code int

const (
	InvalidTarget Code = iota
	UnknownBlock
	NonContiguousProtectedRange
	Irreducible
	AmbiguousMergePoint
	Unreachable
)

func (c Code) String() string {
	switch c {
	case InvalidTarget:
		return "InvalidTarget"
	case UnknownBlock:
		return "UnknownBlock"
	case NonContiguousProtectedRange:
		return "NonContiguousProtectedRange"
	case Irreducible:
		return "Irreducible"
	case AmbiguousMergePoint:
		return "AmbiguousMergePoint"
	case Unreachable:
		return "Unreachable"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Diagnostic is a condition met while structuring one unit.
type Diagnostic struct {
	Code    Code
	Block   int // Block the condition was found at, or -1.
	Message string
}

func (d Diagnostic) String() string {
	if d.Block < 0 {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s at #%d: %s", d.Code, d.Block, d.Message)
}

// diagnostics collects diagnostics, keeping the first of each code and
// block.
type diagnostics struct {
	seen map[Diagnostic]bool
	list []Diagnostic
}

func (d *diagnostics) add(code Code, blk int, format string, args ...interface{}) {
	key := Diagnostic{Code: code, Block: blk}
	if d.seen == nil {
		d.seen = make(map[Diagnostic]bool)
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.list = append(d.list, Diagnostic{Code: code, Block: blk, Message: fmt.Sprintf(format, args...)})
}

// Sorted returns the diagnostics ordered by block then code.
func (d *diagnostics) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(d.list))
	copy(out, d.list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Count returns the number of diagnostics in ds with code c.
func Count(ds []Diagnostic, c Code) int {
	n := 0
	for _, d := range ds {
		if d.Code == c {
			n++
		}
	}
	return n
}
